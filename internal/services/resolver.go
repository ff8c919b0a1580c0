package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skylog-app/skylog/internal/model"
)

// Candidate is an incoming mood submission normalized for conflict
// resolution. It arrives from the single-entry CRUD path or from one item of
// a sync batch.
type Candidate struct {
	UserID    string
	Date      model.Date // empty: derived from Timestamp's UTC day
	Timestamp time.Time
	Emojis    []string
	Intensity int
	Note      *string
	Location  *model.Location
	Weather   *model.ExternalWeather
}

// Resolution is the resolver's verdict on a candidate: the outcome plus the
// entry to persist.
type Resolution struct {
	Outcome model.SyncOutcome
	Entry   *model.MoodEntry
}

// ConflictResolver decides how an incoming entry reconciles with the server
// entry for the same (userId, date). Last write wins by submission order; no
// field-level merging, since partial merges leave ambiguous provenance.
type ConflictResolver struct {
	now func() time.Time
}

func NewConflictResolver() *ConflictResolver {
	return &ConflictResolver{now: time.Now}
}

// WithClock overrides the resolver clock. Intended for tests.
func (r *ConflictResolver) WithClock(now func() time.Time) *ConflictResolver {
	r.now = now
	return r
}

// Validate runs the structural checks that make a candidate rejectable:
// intensity range, emoji set, timestamp presence, owner match. The returned
// error wraps model.ErrValidation.
func (r *ConflictResolver) Validate(callerID string, c Candidate) error {
	if c.UserID != callerID {
		return fmt.Errorf("%w: userId does not match authenticated user", model.ErrValidation)
	}
	if c.Intensity < 0 || c.Intensity > 100 {
		return fmt.Errorf("%w: intensity %d out of range [0,100]", model.ErrValidation, c.Intensity)
	}
	if len(c.Emojis) == 0 {
		return fmt.Errorf("%w: emojis must not be empty", model.ErrValidation)
	}
	if len(dedupe(c.Emojis)) > 5 {
		return fmt.Errorf("%w: at most 5 emojis per entry", model.ErrValidation)
	}
	for _, e := range c.Emojis {
		if !model.ValidEmoji(e) {
			return fmt.Errorf("%w: invalid emoji %q", model.ErrValidation, e)
		}
	}
	if c.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required and must carry a UTC offset", model.ErrValidation)
	}
	if c.Note != nil && len(*c.Note) > 500 {
		return fmt.Errorf("%w: note exceeds 500 characters", model.ErrValidation)
	}
	if c.Location != nil {
		if c.Location.Lat < -90 || c.Location.Lat > 90 || c.Location.Lon < -180 || c.Location.Lon > 180 {
			return fmt.Errorf("%w: location out of range", model.ErrValidation)
		}
	}
	if c.Date != "" && !c.Date.Valid() {
		return fmt.Errorf("%w: malformed date %q", model.ErrValidation, c.Date)
	}
	return nil
}

// DateFor returns the day bucket the candidate targets.
func (c Candidate) DateFor() model.Date {
	if c.Date != "" {
		return c.Date
	}
	return model.DateOf(c.Timestamp)
}

// Resolve validates the candidate and decides Accept (no existing entry),
// or Merge (existing entry replaced wholesale, EntryID and CreatedAt
// preserved, UpdatedAt refreshed). A validation failure is the Reject case
// and returns an error wrapping model.ErrValidation.
func (r *ConflictResolver) Resolve(callerID string, c Candidate, existing *model.MoodEntry) (Resolution, error) {
	if err := r.Validate(callerID, c); err != nil {
		return Resolution{Outcome: model.SyncRejected}, err
	}

	now := r.now().UTC()
	entry := &model.MoodEntry{
		UserID:          c.UserID,
		Date:            c.DateFor(),
		Timestamp:       c.Timestamp.UTC(),
		Emojis:          dedupe(c.Emojis),
		Intensity:       c.Intensity,
		Note:            c.Note,
		Location:        c.Location,
		ExternalWeather: c.Weather,
	}

	if existing == nil {
		entry.EntryID = uuid.New().String()
		entry.CreatedAt = now
		return Resolution{Outcome: model.SyncAccepted, Entry: entry}, nil
	}

	entry.EntryID = existing.EntryID
	entry.CreatedAt = existing.CreatedAt
	upd := now
	entry.UpdatedAt = &upd
	return Resolution{Outcome: model.SyncMerged, Entry: entry}, nil
}

// dedupe removes repeated emojis, keeping first-seen order.
func dedupe(emojis []string) []string {
	seen := make(map[string]struct{}, len(emojis))
	out := make([]string, 0, len(emojis))
	for _, e := range emojis {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
