package store

import (
	"context"

	"github.com/skylog-app/skylog/internal/model"
)

// Store exposes the persistence operations required by services. It is the
// single process-wide entry store adapter, injected into the aggregator,
// resolver, and CRUD service at wiring time.
// Implementations live under internal/store/<driver>/ (postgres, sqlite, memory).
type Store interface {
	Entries() Entries
	Stats() Stats
}

// Entries persists mood entries keyed by (userId, date). Get returns
// model.ErrNotFound when no entry exists for the key; I/O failures are
// reported as (or wrapping) model.ErrUnavailable.
type Entries interface {
	Get(ctx context.Context, userID string, date model.Date) (*model.MoodEntry, error)
	GetByID(ctx context.Context, userID, entryID string) (*model.MoodEntry, error)
	// GetAll returns every entry for the user ordered by date ascending.
	GetAll(ctx context.Context, userID string) ([]*model.MoodEntry, error)
	// Put inserts or replaces the entry stored under (e.UserID, e.Date).
	Put(ctx context.Context, e *model.MoodEntry) error
	Delete(ctx context.Context, userID string, date model.Date) error
}

// Stats persists one derived UserStats record per user.
type Stats interface {
	Get(ctx context.Context, userID string) (*model.UserStats, error)
	Put(ctx context.Context, userID string, s *model.UserStats) error
}
