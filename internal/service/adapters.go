package service

import (
	"context"
	"errors"
	"fmt"

	"two_point_controller/internal/value"
)

var errNoEndpoint = errors.New("endpoint not configured")

// readSensor reads the sensor and normalises it to float64. Errors propagate.
func (s *ControllerService) readSensor(ctx context.Context) (float64, error) {
	if s.ep.Sensor == nil {
		return 0, errNoEndpoint
	}
	ctx, cancel := withTimeout(ctx, s.cfg.IOTimeout)
	defer cancel()

	v, err := s.ep.Sensor.Read(ctx)
	if err != nil {
		return 0, err
	}
	return v.Float()
}

// readActuator returns the current actuator level, or 0 when it cannot be
// read. A successful read records the actuator's native kind for writes.
func (s *ControllerService) readActuator(ctx context.Context) float64 {
	if s.ep.Actor == nil {
		return 0
	}
	ctx, cancel := withTimeout(ctx, s.cfg.IOTimeout)
	defer cancel()

	v, err := s.ep.Actor.Read(ctx)
	if err != nil {
		s.log.Debugw("actuator read failed, assuming 0", "err", err)
		return 0
	}
	f, err := v.Float()
	if err != nil {
		s.log.Debugw("actuator value not numeric, assuming 0", "value", v.String(), "err", err)
		return 0
	}

	s.mu.Lock()
	s.actorKind = v.Kind()
	s.mu.Unlock()
	return f
}

// writeActuator sends level in the actuator's native representation.
func (s *ControllerService) writeActuator(ctx context.Context, level float64) error {
	if s.ep.Actor == nil {
		return errNoEndpoint
	}
	s.mu.RLock()
	kind := s.actorKind
	s.mu.RUnlock()

	ctx, cancel := withTimeout(ctx, s.cfg.IOTimeout)
	defer cancel()

	if err := s.ep.Actor.Write(ctx, value.As(kind, level)); err != nil {
		return fmt.Errorf("write actuator: %w", err)
	}
	return nil
}
