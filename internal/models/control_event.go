package models

import "time"

// Control event types.
const (
	EventStart           = "START"
	EventStop            = "STOP"
	EventActuate         = "ACTUATE"
	EventWriteFailed     = "WRITE_FAILED"
	EventSensorFault     = "SENSOR_FAULT"
	EventSensorRecovered = "SENSOR_RECOVERED"
	EventTargetChange    = "TARGET_CHANGE"
	EventEnableChange    = "ENABLE_CHANGE"
)

// EventTypes lists every type the controller records.
var EventTypes = []string{
	EventStart, EventStop, EventActuate, EventWriteFailed,
	EventSensorFault, EventSensorRecovered, EventTargetChange, EventEnableChange,
}

// IsEventType reports whether t is one of EventTypes.
func IsEventType(t string) bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ControlEvent is a single entry of the controller history.
type ControlEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Controller  string    `json:"controller"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
