package repository

import (
	"context"
	"database/sql"
	"time"

	"two_point_controller/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// StateRepo persists the controller's target/enabled snapshot.
// Load returns nil, nil when nothing has been saved yet.
type StateRepo interface {
	Save(ctx context.Context, s models.Snapshot) error
	Load(ctx context.Context) (*models.Snapshot, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.ControlEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.ControlEvent, error)
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
	Auth      Authorization
}

// NewRepository wires the SQLite-backed repositories. state selects the
// snapshot backend; pass nil to keep the snapshot in the database.
func NewRepository(db *sql.DB, state StateRepo) *Repository {
	if state == nil {
		state = NewStateSQLite(db)
	}
	return &Repository{
		StateRepo: state,
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
