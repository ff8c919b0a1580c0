package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/skylog-app/skylog/internal/model"
	"github.com/skylog-app/skylog/internal/store"
)

// Run exercises a minimal compliance suite against a store.Store
// implementation. Implementations should provide a clean, isolated store and
// return it from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	userID := "u-" + uuid.New().String()
	now := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)

	// Absent entry reads map to ErrNotFound.
	if _, err := s.Entries().Get(ctx, userID, "2026-03-10"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get absent: want ErrNotFound, got %v", err)
	}
	if _, err := s.Stats().Get(ctx, userID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Stats absent: want ErrNotFound, got %v", err)
	}

	// Put then Get round-trips the full record.
	note := "rough morning"
	e1 := &model.MoodEntry{
		EntryID:   uuid.New().String(),
		UserID:    userID,
		Date:      "2026-03-10",
		Timestamp: now,
		Emojis:    []string{"rainy", "cloudy"},
		Intensity: 35,
		Note:      &note,
		Location:  &model.Location{Lat: 45.46, Lon: 9.19},
		CreatedAt: now,
	}
	if err := s.Entries().Put(ctx, e1); err != nil {
		t.Fatalf("Put e1: %v", err)
	}
	got, err := s.Entries().Get(ctx, userID, e1.Date)
	if err != nil {
		t.Fatalf("Get e1: %v", err)
	}
	if got.EntryID != e1.EntryID || got.Intensity != 35 || len(got.Emojis) != 2 || got.Emojis[0] != "rainy" {
		t.Fatalf("Get e1: round-trip mismatch: %+v", got)
	}
	if got.Note == nil || *got.Note != note {
		t.Fatalf("Get e1: note lost: %+v", got.Note)
	}
	if got.Location == nil || got.Location.Lat != 45.46 {
		t.Fatalf("Get e1: location lost: %+v", got.Location)
	}
	if got.UpdatedAt != nil {
		t.Fatalf("Get e1: updatedAt should be nil on first write, got %v", got.UpdatedAt)
	}

	// Lookup by entry id.
	if got, err := s.Entries().GetByID(ctx, userID, e1.EntryID); err != nil || got.Date != e1.Date {
		t.Fatalf("GetByID: got=%+v err=%v", got, err)
	}
	if _, err := s.Entries().GetByID(ctx, userID, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetByID missing: want ErrNotFound, got %v", err)
	}

	// Put on the same (user, date) replaces in place: still one entry.
	upd := now.Add(2 * time.Hour)
	e1b := *e1
	e1b.Intensity = 60
	e1b.Emojis = []string{"partly"}
	e1b.UpdatedAt = &upd
	if err := s.Entries().Put(ctx, &e1b); err != nil {
		t.Fatalf("Put e1b: %v", err)
	}
	all, err := s.Entries().GetAll(ctx, userID)
	if err != nil || len(all) != 1 {
		t.Fatalf("GetAll after replace: n=%d err=%v", len(all), err)
	}
	if all[0].Intensity != 60 || all[0].UpdatedAt == nil {
		t.Fatalf("replace did not stick: %+v", all[0])
	}

	// GetAll orders by date ascending.
	e2 := &model.MoodEntry{EntryID: uuid.New().String(), UserID: userID, Date: "2026-03-08",
		Timestamp: now.AddDate(0, 0, -2), Emojis: []string{"sunny"}, Intensity: 80, CreatedAt: now}
	e3 := &model.MoodEntry{EntryID: uuid.New().String(), UserID: userID, Date: "2026-03-12",
		Timestamp: now.AddDate(0, 0, 2), Emojis: []string{"stormy"}, Intensity: 20, CreatedAt: now}
	if err := s.Entries().Put(ctx, e3); err != nil {
		t.Fatalf("Put e3: %v", err)
	}
	if err := s.Entries().Put(ctx, e2); err != nil {
		t.Fatalf("Put e2: %v", err)
	}
	all, err = s.Entries().GetAll(ctx, userID)
	if err != nil || len(all) != 3 {
		t.Fatalf("GetAll: n=%d err=%v", len(all), err)
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Date >= all[i].Date {
			t.Fatalf("GetAll not date-ascending: %s before %s", all[i-1].Date, all[i].Date)
		}
	}

	// Other users are invisible.
	otherID := "u-" + uuid.New().String()
	if lst, err := s.Entries().GetAll(ctx, otherID); err != nil || len(lst) != 0 {
		t.Fatalf("GetAll other user: n=%d err=%v", len(lst), err)
	}

	// Delete removes exactly the keyed entry.
	if err := s.Entries().Delete(ctx, userID, e2.Date); err != nil {
		t.Fatalf("Delete e2: %v", err)
	}
	if _, err := s.Entries().Get(ctx, userID, e2.Date); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get deleted: want ErrNotFound, got %v", err)
	}
	if err := s.Entries().Delete(ctx, userID, e2.Date); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Delete absent: want ErrNotFound, got %v", err)
	}

	// Stats round-trip.
	dominant := "sunny"
	st := &model.UserStats{
		TotalEntries:     2,
		CurrentStreak:    1,
		LongestStreak:    4,
		DominantMood:     &dominant,
		AverageIntensity: 40.5,
		WeeklyRhythm:     model.WeeklyRhythm{Tuesday: 60, Thursday: 20},
		LastUpdated:      now,
	}
	if err := s.Stats().Put(ctx, userID, st); err != nil {
		t.Fatalf("Stats.Put: %v", err)
	}
	gotSt, err := s.Stats().Get(ctx, userID)
	if err != nil {
		t.Fatalf("Stats.Get: %v", err)
	}
	if gotSt.LongestStreak != 4 || gotSt.DominantMood == nil || *gotSt.DominantMood != "sunny" {
		t.Fatalf("Stats round-trip mismatch: %+v", gotSt)
	}
	if gotSt.WeeklyRhythm.Tuesday != 60 || gotSt.WeeklyRhythm.Monday != 0 {
		t.Fatalf("Stats rhythm mismatch: %+v", gotSt.WeeklyRhythm)
	}

	// Stats overwrite wins.
	st.TotalEntries = 3
	if err := s.Stats().Put(ctx, userID, st); err != nil {
		t.Fatalf("Stats.Put overwrite: %v", err)
	}
	if gotSt, err = s.Stats().Get(ctx, userID); err != nil || gotSt.TotalEntries != 3 {
		t.Fatalf("Stats overwrite: got=%+v err=%v", gotSt, err)
	}
}
