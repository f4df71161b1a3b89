package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"two_point_controller/internal/models"
)

type StateSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db, now: time.Now}
}

const (
	controllerStateRowID = 1

	upsertStateSQL = `
		INSERT INTO controller_state (id, target, enabled, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			target=excluded.target,
			enabled=excluded.enabled,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT target, enabled
		FROM controller_state WHERE id=?
	`
)

// Save upserts the single controller_state row (id always 1).
func (r *StateSQLite) Save(ctx context.Context, s models.Snapshot) error {
	var target sql.NullFloat64
	if s.SensorValueTarget != nil {
		target = sql.NullFloat64{Float64: *s.SensorValueTarget, Valid: true}
	}
	var enabled sql.NullBool
	if s.Enabled != nil {
		enabled = sql.NullBool{Bool: *s.Enabled, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, upsertStateSQL,
		controllerStateRowID,
		target,
		enabled,
		r.now().UTC(),
	)
	return err
}

// Load fetches the controller_state row; nil when none was saved yet.
func (r *StateSQLite) Load(ctx context.Context) (*models.Snapshot, error) {
	var (
		target  sql.NullFloat64
		enabled sql.NullBool
	)
	err := r.db.QueryRowContext(ctx, selectStateSQL, controllerStateRowID).Scan(&target, &enabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var s models.Snapshot
	if target.Valid {
		s.SensorValueTarget = &target.Float64
	}
	if enabled.Valid {
		s.Enabled = &enabled.Bool
	}
	return &s, nil
}
