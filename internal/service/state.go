package service

import (
	"context"

	"two_point_controller/internal/config"
	"two_point_controller/internal/models"
	"two_point_controller/internal/repository"
)

// StoredState is a persisted snapshot resolved against the configured
// initial values.
type StoredState struct {
	Target  float64
	Enabled bool
	// Restored is set per key when the value came from the store.
	TargetRestored  bool
	EnabledRestored bool
}

// ResolveSnapshot fills keys missing from snap with the initial values in cfg.
// A nil snap resolves to the initial values.
func ResolveSnapshot(snap *models.Snapshot, cfg config.ControllerConfig) StoredState {
	st := StoredState{
		Target:  cfg.SensorValueTargetInitial,
		Enabled: cfg.EnabledInitial,
	}
	if snap == nil {
		return st
	}
	if snap.SensorValueTarget != nil {
		st.Target = *snap.SensorValueTarget
		st.TargetRestored = true
	}
	if snap.Enabled != nil {
		st.Enabled = *snap.Enabled
		st.EnabledRestored = true
	}
	return st
}

// LoadStoredState reads the store and resolves the result. The returned error
// reports why the store could not be used; the state is valid either way.
func LoadStoredState(ctx context.Context, repo repository.StateRepo, cfg config.ControllerConfig) (StoredState, error) {
	if repo == nil {
		return ResolveSnapshot(nil, cfg), nil
	}
	ctx, cancel := withTimeout(ctx, cfg.SaveTimeout)
	defer cancel()

	snap, err := repo.Load(ctx)
	if err != nil {
		return ResolveSnapshot(nil, cfg), err
	}
	return ResolveSnapshot(snap, cfg), nil
}

func (s *ControllerService) restoreState(ctx context.Context) {
	st, err := LoadStoredState(ctx, s.stateRepo, s.cfg)
	if err != nil {
		s.log.Warnw("persisted state unusable, using initial values", "err", err)
	}

	s.mu.Lock()
	s.state.Target = st.Target
	s.state.Enabled = st.Enabled
	s.mu.Unlock()

	s.log.Infow("state restored",
		"target", st.Target, "target_restored", st.TargetRestored,
		"enabled", st.Enabled, "enabled_restored", st.EnabledRestored,
	)
}

// persistIfEnabled writes target/enabled to the store. Failures are logged
// and otherwise ignored.
func (s *ControllerService) persistIfEnabled(ctx context.Context) {
	if !s.cfg.Persistent() || s.stateRepo == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	st := s.State()
	ctx, cancel := withTimeout(ctx, s.cfg.SaveTimeout)
	defer cancel()

	if err := s.stateRepo.Save(ctx, models.NewSnapshot(st.Target, st.Enabled)); err != nil {
		s.log.Warnw("persist state failed", "err", err)
	}
}
