package repository

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"two_point_controller/internal/models"
)

func TestStateSQLite_Save(t *testing.T) {
	t.Parallel()

	db, mock := newSQLMock(t)
	repo := NewStateSQLite(db)
	fixed := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	mock.ExpectExec(regexp.QuoteMeta(upsertStateSQL)).
		WithArgs(controllerStateRowID, 19.5, false, fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Save(testCtx(t), models.NewSnapshot(19.5, false)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestStateSQLite_SaveNulls(t *testing.T) {
	t.Parallel()

	db, mock := newSQLMock(t)
	repo := NewStateSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(upsertStateSQL)).
		WithArgs(controllerStateRowID, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Save(testCtx(t), models.Snapshot{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestStateSQLite_Load(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		expect      func(sqlmock.Sqlmock)
		wantNil     bool
		wantErr     bool
		wantTarget  *float64
		wantEnabled *bool
	}{
		{
			name: "both keys",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectStateSQL)).
					WithArgs(controllerStateRowID).
					WillReturnRows(sqlmock.NewRows([]string{"target", "enabled"}).AddRow(22.0, true))
			},
			wantTarget:  ptr(22.0),
			wantEnabled: ptr(true),
		},
		{
			name: "null target",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectStateSQL)).
					WithArgs(controllerStateRowID).
					WillReturnRows(sqlmock.NewRows([]string{"target", "enabled"}).AddRow(nil, false))
			},
			wantEnabled: ptr(false),
		},
		{
			name: "no row yet",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectStateSQL)).
					WithArgs(controllerStateRowID).
					WillReturnError(sql.ErrNoRows)
			},
			wantNil: true,
		},
		{
			name: "query error",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectStateSQL)).
					WithArgs(controllerStateRowID).
					WillReturnError(errors.New("locked"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newSQLMock(t)
			repo := NewStateSQLite(db)
			tt.expect(mock)

			got, err := repo.Load(testCtx(t))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got %+v", got)
				}
				return
			}
			if !equalPtr(got.SensorValueTarget, tt.wantTarget) {
				t.Fatalf("target: want %v got %v", tt.wantTarget, got.SensorValueTarget)
			}
			if !equalPtr(got.Enabled, tt.wantEnabled) {
				t.Fatalf("enabled: want %v got %v", tt.wantEnabled, got.Enabled)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("mock expectations: %v", err)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
