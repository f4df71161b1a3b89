package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"two_point_controller/internal/config"
	"two_point_controller/internal/logger"
	"two_point_controller/internal/models"
	"two_point_controller/internal/policy"
	"two_point_controller/internal/repository"
	"two_point_controller/internal/value"
)

var (
	// ErrReadOnlyAttribute is returned when writing target/enabled on a
	// controller whose setpoint is fixed by configuration.
	ErrReadOnlyAttribute = errors.New("attribute is read-only for this controller")
	// ErrInvalidTarget is returned for NaN or infinite setpoints.
	ErrInvalidTarget = errors.New("target must be a finite number")
)

// ControllerService owns the control state of one two-point controller and
// runs its regulation loop.
type ControllerService struct {
	name      string
	cfg       config.ControllerConfig
	policy    policy.Policy
	ep        Endpoints
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
	log       *logger.Logger
	now       func() time.Time

	mu          sync.RWMutex
	state       models.ControllerState
	actorKind   value.Kind
	sensorFault bool

	// serialises snapshot+save so the store never goes backwards
	persistMu sync.Mutex
}

// NewControllerService builds the controller and restores its persisted
// target/enabled state. Restoring never fails: missing or unreadable state
// falls back to the configured initial values.
func NewControllerService(
	name string,
	cfg config.ControllerConfig,
	ep Endpoints,
	stateRepo repository.StateRepo,
	eventRepo repository.EventRepo,
	log *logger.Logger,
) *ControllerService {
	s := &ControllerService{
		name: name,
		cfg:  cfg,
		policy: policy.Policy{
			Hysteresis:         cfg.Hysteresis,
			MinControlInterval: cfg.MinControlInterval(),
			OffValue:           cfg.ActorOffValue,
			OnValue:            cfg.ActorOnValue,
			Gated:              cfg.Stateful(),
		},
		ep:        ep,
		stateRepo: stateRepo,
		eventRepo: eventRepo,
		log:       logger.OrNop(log),
		now:       time.Now,
		actorKind: value.Numeric,
	}
	s.state = models.ControllerState{
		Target:        cfg.SensorValueTargetInitial,
		Enabled:       cfg.EnabledInitial,
		LastChangedAt: s.now(),
	}
	if cfg.Persistent() {
		s.restoreState(context.Background())
	}
	return s
}

func (s *ControllerService) Name() string { return s.name }

// State returns a copy of the current control state.
func (s *ControllerService) State() models.ControllerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *ControllerService) Target() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Target
}

func (s *ControllerService) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Enabled
}

// Writable reports whether target and enabled can be changed at runtime.
func (s *ControllerService) Writable() bool {
	return s.cfg.Stateful()
}

// SetTarget changes the setpoint. TargetNoValue is accepted and clears it.
func (s *ControllerService) SetTarget(ctx context.Context, v float64) error {
	if !s.Writable() {
		return ErrReadOnlyAttribute
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidTarget
	}

	s.mu.Lock()
	prev := s.state.Target
	s.state.Target = v
	s.mu.Unlock()

	if prev == v {
		return nil
	}
	meta := map[string]any{"from": prev, "to": v}
	annotateOperator(ctx, meta)
	s.log.Infow("target changed", "from", prev, "to", v, "user_id", meta["user_id"])
	s.appendEvent(ctx, models.EventTargetChange, "Target changed to "+value.FormatFloat(v), meta)
	s.persistIfEnabled(ctx)
	return nil
}

func (s *ControllerService) SetEnabled(ctx context.Context, enabled bool) error {
	if !s.Writable() {
		return ErrReadOnlyAttribute
	}

	s.mu.Lock()
	prev := s.state.Enabled
	s.state.Enabled = enabled
	s.mu.Unlock()

	if prev == enabled {
		return nil
	}
	meta := map[string]any{"enabled": enabled}
	annotateOperator(ctx, meta)
	s.log.Infow("enabled changed", "enabled", enabled, "user_id", meta["user_id"])
	s.appendEvent(ctx, models.EventEnableChange, fmt.Sprintf("Controller enabled=%t", enabled), meta)
	s.persistIfEnabled(ctx)
	return nil
}

// Regulate runs one control cycle: read, decide, actuate, persist.
// A sensor failure aborts the cycle before anything is decided or saved; a
// failed actuator write returns the decided action with the error and skips
// the save.
func (s *ControllerService) Regulate(ctx context.Context) (act policy.Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("regulate: panic: %v", r)
		}
	}()

	sensor, err := s.readSensor(ctx)
	if err != nil {
		s.markSensorFault(ctx, err)
		return policy.Action{}, fmt.Errorf("read sensor: %w", err)
	}
	s.markSensorOK(ctx, sensor)

	actor := s.readActuator(ctx)
	now := s.now()
	st := s.State()

	act = s.policy.Decide(policy.Input{
		Sensor:        sensor,
		Actor:         actor,
		Target:        st.Target,
		Enabled:       st.Enabled,
		Now:           now,
		LastChangedAt: st.LastChangedAt,
	})

	if act.Kind == policy.SetActor {
		if err := s.actuate(ctx, act, actor, sensor, st.Target, now); err != nil {
			return act, fmt.Errorf("write actuator: %w", err)
		}
	}

	s.persistIfEnabled(ctx)
	return act, nil
}

// actuate writes the level. A failed write is recorded and returned; the
// cycle ends there without persisting.
func (s *ControllerService) actuate(ctx context.Context, act policy.Action, from, sensor, target float64, now time.Time) error {
	meta := map[string]any{
		"from":       from,
		"to":         act.Level,
		"sensor":     sensor,
		"target":     target,
		"difference": act.Difference,
	}

	if err := s.writeActuator(ctx, act.Level); err != nil {
		if s.cfg.DebounceFailedWrites {
			s.touchLastChanged(now)
		}
		meta["err"] = err.Error()
		s.appendEvent(ctx, models.EventWriteFailed, "Actuator write failed", meta)
		return err
	}

	s.touchLastChanged(now)
	s.log.Infow("actuator switched", "from", from, "to", act.Level, "sensor", sensor, "target", target)
	s.appendEvent(ctx, models.EventActuate, "Actuator set to "+value.FormatFloat(act.Level), meta)
	return nil
}

func (s *ControllerService) touchLastChanged(t time.Time) {
	s.mu.Lock()
	s.state.LastChangedAt = t
	s.mu.Unlock()
}

// markSensorFault logs a sensor failure. Events are only recorded on the
// transition into the fault so a dead sensor does not flood the history.
func (s *ControllerService) markSensorFault(ctx context.Context, err error) {
	s.mu.Lock()
	was := s.sensorFault
	s.sensorFault = true
	s.mu.Unlock()

	if was {
		s.log.Debugw("sensor still unavailable", "err", err)
		return
	}
	s.log.Errorw("sensor read failed", "err", err)
	s.appendEvent(ctx, models.EventSensorFault, "Sensor read failed", map[string]any{"err": err.Error()})
}

func (s *ControllerService) markSensorOK(ctx context.Context, sensor float64) {
	s.mu.Lock()
	was := s.sensorFault
	s.sensorFault = false
	s.mu.Unlock()

	if !was {
		return
	}
	s.log.Infow("sensor recovered", "value", sensor)
	s.appendEvent(ctx, models.EventSensorRecovered, "Sensor readable again", map[string]any{"value": sensor})
}

// Run evaluates immediately and then once per interval until ctx is canceled.
// Cycle errors are logged and never stop the loop.
func (s *ControllerService) Run(ctx context.Context, interval time.Duration) {
	s.log.Infow("control loop started", "interval", interval)
	s.appendEvent(ctx, models.EventStart, "Control loop started", map[string]any{
		"interval_sec": interval.Seconds(),
		"target":       s.Target(),
		"enabled":      s.Enabled(),
	})

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stopped(ctx)
			return
		case <-timer.C:
		}

		act, err := s.Regulate(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			s.log.Warnw("regulation cycle failed", "err", err)
		case err == nil && act.Kind == policy.NoAction:
			s.log.Debugw("no action", "reason", act.Reason, "difference", act.Difference)
		}

		timer.Reset(interval)
	}
}

func (s *ControllerService) stopped(ctx context.Context) {
	s.log.Infow("control loop stopped")
	// ctx is already canceled; the STOP event gets its own budget.
	s.appendEvent(context.WithoutCancel(ctx), models.EventStop, "Control loop stopped", nil)
}

// appendEvent records a control event. The history is best-effort and
// failures are only logged.
func (s *ControllerService) appendEvent(ctx context.Context, typ, desc string, meta map[string]any) {
	if s.eventRepo == nil {
		return
	}
	ctx, cancel := withTimeout(ctx, s.cfg.SaveTimeout)
	defer cancel()

	ev := models.ControlEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  s.now().UTC(),
		Controller:  s.name,
		Type:        typ,
		Description: desc,
	}
	if meta != nil {
		ev.Metadata = meta
	}
	if err := s.eventRepo.Append(ctx, ev); err != nil {
		s.log.Warnw("append control event failed", "type", typ, "err", err)
	}
}

// withTimeout bounds ctx by d; a non-positive d leaves it unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
