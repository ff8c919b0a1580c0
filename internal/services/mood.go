package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylog-app/skylog/internal/locks"
	"github.com/skylog-app/skylog/internal/model"
	"github.com/skylog-app/skylog/internal/store"
)

// MoodService is the single-entry create/update/delete path. It enforces the
// one-entry-per-day rule and runs the stats recomputation hook after every
// accepted mutation, inside the per-user serialization scope.
type MoodService struct {
	store    store.Store
	resolver *ConflictResolver
	stats    *StatsService
	locks    *locks.UserLocker
	log      zerolog.Logger
}

func NewMoodService(s store.Store, resolver *ConflictResolver, stats *StatsService, l *locks.UserLocker, log zerolog.Logger) *MoodService {
	return &MoodService{store: s, resolver: resolver, stats: stats, locks: l, log: log}
}

// UpdateRequest carries the mutable fields of an update; nil fields keep
// their current value.
type UpdateRequest struct {
	Emojis    []string
	Intensity *int
	Note      *string
	Location  *model.Location
	Weather   *model.ExternalWeather
}

// Create persists a candidate entry. When the (userId, date) slot is already
// occupied the submission replaces the existing entry in place, the resolver's
// Merge outcome, so N creates for one day leave exactly one entry. Returns the
// stored entry and whether it was accepted or merged.
func (m *MoodService) Create(ctx context.Context, callerID string, c Candidate) (*model.MoodEntry, model.SyncOutcome, error) {
	if c.UserID != callerID {
		m.logOwnership(callerID, c.UserID, "create")
		return nil, "", fmt.Errorf("%w: cannot create entries for another user", model.ErrOwnership)
	}
	if err := m.resolver.Validate(callerID, c); err != nil {
		return nil, "", err
	}

	var (
		stored  *model.MoodEntry
		outcome model.SyncOutcome
		opErr   error
	)
	m.locks.Do(callerID, func() {
		existing, err := m.store.Entries().Get(ctx, callerID, c.DateFor())
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			opErr = err
			return
		}
		res, err := m.resolver.Resolve(callerID, c, existing)
		if err != nil {
			opErr = err
			return
		}
		if err := m.store.Entries().Put(ctx, res.Entry); err != nil {
			opErr = err
			return
		}
		stored = res.Entry
		outcome = res.Outcome
		m.recomputeHook(ctx, callerID)
	})
	if opErr != nil {
		return nil, "", opErr
	}
	return stored, outcome, nil
}

// Update mutates an existing entry addressed by entryId. Ownership is
// verified against the caller; nil request fields keep current values.
func (m *MoodService) Update(ctx context.Context, callerID, entryID string, req UpdateRequest) (*model.MoodEntry, error) {
	var (
		updated *model.MoodEntry
		opErr   error
	)
	m.locks.Do(callerID, func() {
		existing, err := m.store.Entries().GetByID(ctx, callerID, entryID)
		if err != nil {
			opErr = err
			return
		}
		if existing.UserID != callerID {
			m.logOwnership(callerID, existing.UserID, "update")
			opErr = fmt.Errorf("%w: entry belongs to another user", model.ErrOwnership)
			return
		}

		next := *existing
		if req.Emojis != nil {
			next.Emojis = dedupe(req.Emojis)
		}
		if req.Intensity != nil {
			next.Intensity = *req.Intensity
		}
		if req.Note != nil {
			next.Note = req.Note
		}
		if req.Location != nil {
			next.Location = req.Location
		}
		if req.Weather != nil {
			next.ExternalWeather = req.Weather
		}
		if err := m.resolver.Validate(callerID, Candidate{
			UserID:    next.UserID,
			Date:      next.Date,
			Timestamp: next.Timestamp,
			Emojis:    next.Emojis,
			Intensity: next.Intensity,
			Note:      next.Note,
			Location:  next.Location,
		}); err != nil {
			opErr = err
			return
		}

		upd := m.resolver.now().UTC()
		next.UpdatedAt = &upd
		if err := m.store.Entries().Put(ctx, &next); err != nil {
			opErr = err
			return
		}
		updated = &next
		m.recomputeHook(ctx, callerID)
	})
	if opErr != nil {
		return nil, opErr
	}
	return updated, nil
}

// Delete removes an entry addressed by entryId after an ownership check.
func (m *MoodService) Delete(ctx context.Context, callerID, entryID string) error {
	var opErr error
	m.locks.Do(callerID, func() {
		existing, err := m.store.Entries().GetByID(ctx, callerID, entryID)
		if err != nil {
			opErr = err
			return
		}
		if existing.UserID != callerID {
			m.logOwnership(callerID, existing.UserID, "delete")
			opErr = fmt.Errorf("%w: entry belongs to another user", model.ErrOwnership)
			return
		}
		if err := m.store.Entries().Delete(ctx, callerID, existing.Date); err != nil {
			opErr = err
			return
		}
		m.recomputeHook(ctx, callerID)
	})
	return opErr
}

// Get fetches a single entry with an ownership check.
func (m *MoodService) Get(ctx context.Context, callerID, entryID string) (*model.MoodEntry, error) {
	entry, err := m.store.Entries().GetByID(ctx, callerID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != callerID {
		m.logOwnership(callerID, entry.UserID, "get")
		return nil, fmt.Errorf("%w: entry belongs to another user", model.ErrOwnership)
	}
	return entry, nil
}

// List returns one page of the user's entries, newest first, plus the total
// count after date filtering.
func (m *MoodService) List(ctx context.Context, req model.ListEntriesRequest) ([]*model.MoodEntry, int, error) {
	entries, err := m.store.Entries().GetAll(ctx, req.UserID)
	if err != nil {
		return nil, 0, err
	}

	filtered := entries[:0:0]
	for _, e := range entries {
		if req.From != nil && e.Date < *req.From {
			continue
		}
		if req.To != nil && e.Date > *req.To {
			continue
		}
		filtered = append(filtered, e)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Date > filtered[j].Date })

	total := len(filtered)
	offset := req.Offset
	if offset > total {
		offset = total
	}
	end := total
	if req.Limit > 0 && offset+req.Limit < end {
		end = offset + req.Limit
	}
	return filtered[offset:end], total, nil
}

// Calendar projects one month of entries into the calendar view.
func (m *MoodService) Calendar(ctx context.Context, userID string, year int, month time.Month) (*model.CalendarMonth, error) {
	first := model.DateOf(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
	last := model.DateOf(time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1))

	entries, err := m.store.Entries().GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	days := make(map[model.Date]model.CalendarDay)
	for _, e := range entries {
		if e.Date < first || e.Date > last {
			continue
		}
		days[e.Date] = model.CalendarDay{
			Emojis:    e.Emojis,
			Intensity: e.Intensity,
			HasNote:   e.Note != nil && *e.Note != "",
		}
	}
	return &model.CalendarMonth{Year: year, Month: int(month), Days: days}, nil
}

// recomputeHook is the post-commit statistics trigger, run while the caller
// still holds the user's lock. A recompute failure never rolls back the
// entry mutation; it is logged and repaired by the forced-recompute
// operation.
func (m *MoodService) recomputeHook(ctx context.Context, userID string) {
	if _, err := m.stats.recompute(ctx, userID); err != nil {
		m.log.Error().Stack().Err(err).
			Str("user_id", userID).
			Msg("stats recompute after mutation failed; repair via forced recompute")
	}
}

// logOwnership records a cross-user access attempt as a security signal.
func (m *MoodService) logOwnership(callerID, ownerID, op string) {
	m.log.Warn().
		Str("caller_id", callerID).
		Str("owner_id", ownerID).
		Str("op", op).
		Msg("ownership check failed")
}
