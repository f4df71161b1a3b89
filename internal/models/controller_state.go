package models

import "time"

// ControllerState is the mutable control state owned by one controller instance.
type ControllerState struct {
	Target        float64   `json:"sensor_value_target"`
	Enabled       bool      `json:"enabled"`
	LastChangedAt time.Time `json:"last_changed_at"` // last successful actuator level change
}

// Snapshot is the persisted subset of ControllerState. The JSON keys match the
// state file written by earlier device servers; a missing key is nil and falls
// back to the configured initial value for that key.
type Snapshot struct {
	SensorValueTarget *float64 `json:"sensorValueTarget"`
	Enabled           *bool    `json:"enabled"`
}

// NewSnapshot builds a fully populated snapshot.
func NewSnapshot(target float64, enabled bool) Snapshot {
	return Snapshot{SensorValueTarget: &target, Enabled: &enabled}
}

// Attributes is the read-only view exposed to external callers.
type Attributes struct {
	Controller         string    `json:"controller"`
	SensorValueCurrent float64   `json:"sensorValueCurrent"`
	ActorValueCurrent  float64   `json:"actorValueCurrent"`
	Difference         float64   `json:"difference"`
	SensorValueTarget  float64   `json:"sensorValueTarget"`
	TargetSet          bool      `json:"targetSet"`
	Enabled            bool      `json:"enabled"`
	Writable           bool      `json:"writable"`
	LastChangedAt      time.Time `json:"lastChangedAt"`
	ReadAt             time.Time `json:"readAt"`
}
