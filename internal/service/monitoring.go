package service

import (
	"context"
	"time"

	"two_point_controller/internal/models"
	"two_point_controller/internal/policy"
)

// SensorValue reads the sensor directly, outside of loop timing.
func (s *ControllerService) SensorValue(ctx context.Context) (float64, error) {
	return s.readSensor(ctx)
}

// ActorValue reads the actuator; an unreadable actuator reports 0.
func (s *ControllerService) ActorValue(ctx context.Context) float64 {
	return s.readActuator(ctx)
}

// Difference returns target minus the current sensor value. With no target
// set the result is computed against the sentinel like any other target.
func (s *ControllerService) Difference(ctx context.Context) (float64, error) {
	sensor, err := s.readSensor(ctx)
	if err != nil {
		return 0, err
	}
	return policy.Difference(s.Target(), sensor), nil
}

// Attributes returns every attribute at once. The error is non-nil only when
// the sensor cannot be read; the remaining fields are filled in regardless.
func (s *ControllerService) Attributes(ctx context.Context) (models.Attributes, error) {
	st := s.State()
	a := models.Attributes{
		Controller:        s.name,
		SensorValueTarget: st.Target,
		TargetSet:         st.Target != policy.TargetNoValue,
		Enabled:           st.Enabled,
		Writable:          s.Writable(),
		LastChangedAt:     toUTC(st.LastChangedAt),
		ReadAt:            time.Now().UTC(),
	}
	a.ActorValueCurrent = s.readActuator(ctx)

	sensor, err := s.readSensor(ctx)
	if err != nil {
		return a, err
	}
	a.SensorValueCurrent = sensor
	a.Difference = policy.Difference(st.Target, sensor)
	return a, nil
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
