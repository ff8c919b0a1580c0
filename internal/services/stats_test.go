package services

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylog-app/skylog/internal/locks"
	"github.com/skylog-app/skylog/internal/model"
	"github.com/skylog-app/skylog/internal/store"
	"github.com/skylog-app/skylog/internal/store/memory"
)

// fixedNow is a Tuesday; 2026-03-01 was a Sunday.
var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func entryOn(userID string, date model.Date, primary string, intensity int) *model.MoodEntry {
	return &model.MoodEntry{
		EntryID:   "e-" + string(date),
		UserID:    userID,
		Date:      date,
		Timestamp: date.Time().Add(9 * time.Hour),
		Emojis:    []string{primary},
		Intensity: intensity,
		CreatedAt: fixedNow,
	}
}

func TestStreakRunEndingToday(t *testing.T) {
	// Days 1,2,3 consecutive, gap, then day 10 which is "today".
	entries := []*model.MoodEntry{
		entryOn("u1", "2026-03-01", "sunny", 50),
		entryOn("u1", "2026-03-02", "sunny", 50),
		entryOn("u1", "2026-03-03", "sunny", 50),
		entryOn("u1", "2026-03-10", "rainy", 50),
	}
	st := ComputeStats(entries, fixedNow)
	if st.CurrentStreak != 1 {
		t.Fatalf("currentStreak = %d, want 1", st.CurrentStreak)
	}
	if st.LongestStreak != 3 {
		t.Fatalf("longestStreak = %d, want 3", st.LongestStreak)
	}
}

func TestStreakAnchoredAtYesterday(t *testing.T) {
	entries := []*model.MoodEntry{
		entryOn("u1", "2026-03-07", "sunny", 50),
		entryOn("u1", "2026-03-08", "sunny", 50),
		entryOn("u1", "2026-03-09", "sunny", 50), // yesterday
	}
	st := ComputeStats(entries, fixedNow)
	if st.CurrentStreak != 3 {
		t.Fatalf("currentStreak = %d, want 3", st.CurrentStreak)
	}
	if st.LongestStreak != 3 {
		t.Fatalf("longestStreak = %d, want 3", st.LongestStreak)
	}
}

func TestStreakResetWhenLastEntryStale(t *testing.T) {
	// A long run that ended before yesterday contributes nothing to the
	// current streak, whatever its length.
	entries := []*model.MoodEntry{
		entryOn("u1", "2026-03-02", "sunny", 50),
		entryOn("u1", "2026-03-03", "sunny", 50),
		entryOn("u1", "2026-03-04", "sunny", 50),
		entryOn("u1", "2026-03-05", "sunny", 50),
	}
	st := ComputeStats(entries, fixedNow)
	if st.CurrentStreak != 0 {
		t.Fatalf("currentStreak = %d, want 0", st.CurrentStreak)
	}
	if st.LongestStreak != 4 {
		t.Fatalf("longestStreak = %d, want 4", st.LongestStreak)
	}
}

func TestDominantMoodByFrequency(t *testing.T) {
	entries := []*model.MoodEntry{
		entryOn("u1", "2026-03-01", "sunny", 50),
		entryOn("u1", "2026-03-02", "rainy", 50),
		entryOn("u1", "2026-03-03", "rainy", 50),
	}
	st := ComputeStats(entries, fixedNow)
	if st.DominantMood == nil || *st.DominantMood != "rainy" {
		t.Fatalf("dominantMood = %v, want rainy", st.DominantMood)
	}
}

func TestDominantMoodTieBreaksOnRecency(t *testing.T) {
	// sunny and stormy both appear twice; stormy occurred more recently.
	entries := []*model.MoodEntry{
		entryOn("u1", "2026-03-01", "sunny", 50),
		entryOn("u1", "2026-03-02", "stormy", 50),
		entryOn("u1", "2026-03-03", "sunny", 50),
		entryOn("u1", "2026-03-04", "stormy", 50),
	}
	st := ComputeStats(entries, fixedNow)
	if st.DominantMood == nil || *st.DominantMood != "stormy" {
		t.Fatalf("dominantMood = %v, want stormy", st.DominantMood)
	}
}

func TestDominantMoodUsesPrimaryEmojiOnly(t *testing.T) {
	e := entryOn("u1", "2026-03-01", "cloudy", 50)
	e.Emojis = []string{"cloudy", "sunny", "sunny"}
	entries := []*model.MoodEntry{
		e,
		entryOn("u1", "2026-03-02", "cloudy", 50),
		entryOn("u1", "2026-03-03", "sunny", 50),
	}
	st := ComputeStats(entries, fixedNow)
	if st.DominantMood == nil || *st.DominantMood != "cloudy" {
		t.Fatalf("dominantMood = %v, want cloudy (secondary emojis must not count)", st.DominantMood)
	}
}

func TestEmptyEntrySet(t *testing.T) {
	st := ComputeStats(nil, fixedNow)
	if st.TotalEntries != 0 || st.CurrentStreak != 0 || st.LongestStreak != 0 {
		t.Fatalf("zero counters expected: %+v", st)
	}
	if st.DominantMood != nil {
		t.Fatalf("dominantMood = %v, want nil", st.DominantMood)
	}
	if st.AverageIntensity != 0 {
		t.Fatalf("averageIntensity = %v, want 0", st.AverageIntensity)
	}
	if st.WeeklyRhythm != (model.WeeklyRhythm{}) {
		t.Fatalf("weeklyRhythm should be all zeros: %+v", st.WeeklyRhythm)
	}
}

func TestAverageIntensityRounding(t *testing.T) {
	entries := []*model.MoodEntry{
		entryOn("u1", "2026-03-01", "sunny", 70),
		entryOn("u1", "2026-03-02", "sunny", 70),
		entryOn("u1", "2026-03-03", "sunny", 71),
	}
	st := ComputeStats(entries, fixedNow)
	if st.AverageIntensity != 70.33 {
		t.Fatalf("averageIntensity = %v, want 70.33", st.AverageIntensity)
	}
}

func TestWeeklyRhythmMeansPerWeekday(t *testing.T) {
	// 2026-03-09 and 2026-03-16 are Mondays; 2026-03-10 is a Tuesday.
	entries := []*model.MoodEntry{
		entryOn("u1", "2026-03-09", "sunny", 40),
		entryOn("u1", "2026-03-16", "sunny", 60),
		entryOn("u1", "2026-03-10", "rainy", 90),
	}
	st := ComputeStats(entries, fixedNow)
	if st.WeeklyRhythm.Monday != 50 {
		t.Fatalf("Monday = %v, want 50", st.WeeklyRhythm.Monday)
	}
	if st.WeeklyRhythm.Tuesday != 90 {
		t.Fatalf("Tuesday = %v, want 90", st.WeeklyRhythm.Tuesday)
	}
	if st.WeeklyRhythm.Friday != 0 {
		t.Fatalf("Friday = %v, want 0 sentinel", st.WeeklyRhythm.Friday)
	}
}

func TestComputeStatsDeterministic(t *testing.T) {
	entries := []*model.MoodEntry{
		entryOn("u1", "2026-03-01", "sunny", 33),
		entryOn("u1", "2026-03-02", "rainy", 67),
		entryOn("u1", "2026-03-09", "stormy", 12),
	}
	a, err := json.Marshal(ComputeStats(entries, fixedNow))
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(ComputeStats(entries, fixedNow))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("recompute not byte-identical:\n%s\n%s", a, b)
	}
}

func TestRecomputePersistsAndMatchesForcedRebuild(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := NewStatsService(st, locks.NewUserLocker(), zerolog.Nop()).WithClock(func() time.Time { return fixedNow })

	for _, e := range []*model.MoodEntry{
		entryOn("u1", "2026-03-08", "sunny", 40),
		entryOn("u1", "2026-03-09", "cloudy", 60),
	} {
		if err := st.Entries().Put(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	first, err := svc.Recompute(ctx, "u1")
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	// Simulate a manual store edit, then force a rebuild: the result must
	// reconcile with the entry set exactly.
	if err := st.Entries().Delete(ctx, "u1", "2026-03-08"); err != nil {
		t.Fatal(err)
	}
	forced, err := svc.Recompute(ctx, "u1")
	if err != nil {
		t.Fatalf("forced Recompute: %v", err)
	}
	if forced.TotalEntries != 1 || forced.CurrentStreak != 1 {
		t.Fatalf("forced rebuild wrong: %+v", forced)
	}
	if first.TotalEntries != 2 {
		t.Fatalf("first rebuild wrong: %+v", first)
	}

	stored, err := st.Stats().Get(ctx, "u1")
	if err != nil {
		t.Fatalf("stats not persisted: %v", err)
	}
	if stored.TotalEntries != forced.TotalEntries {
		t.Fatalf("persisted stats stale: %+v vs %+v", stored, forced)
	}
}

// stallStore wraps another store and blocks the first GetAll until released,
// holding an in-flight recompute open so a concurrent write can race it.
type stallStore struct {
	inner   store.Store
	once    sync.Once
	stalled chan struct{}
	release chan struct{}
}

func (s *stallStore) Entries() store.Entries { return &stallEntries{s} }
func (s *stallStore) Stats() store.Stats     { return s.inner.Stats() }

type stallEntries struct{ p *stallStore }

func (e *stallEntries) Get(ctx context.Context, userID string, date model.Date) (*model.MoodEntry, error) {
	return e.p.inner.Entries().Get(ctx, userID, date)
}
func (e *stallEntries) GetByID(ctx context.Context, userID, entryID string) (*model.MoodEntry, error) {
	return e.p.inner.Entries().GetByID(ctx, userID, entryID)
}
func (e *stallEntries) GetAll(ctx context.Context, userID string) ([]*model.MoodEntry, error) {
	e.p.once.Do(func() {
		close(e.p.stalled)
		<-e.p.release
	})
	return e.p.inner.Entries().GetAll(ctx, userID)
}
func (e *stallEntries) Put(ctx context.Context, ent *model.MoodEntry) error {
	return e.p.inner.Entries().Put(ctx, ent)
}
func (e *stallEntries) Delete(ctx context.Context, userID string, date model.Date) error {
	return e.p.inner.Entries().Delete(ctx, userID, date)
}

func TestForcedRecomputeSerializesWithWrites(t *testing.T) {
	ctx := context.Background()
	ss := &stallStore{inner: memory.New(), stalled: make(chan struct{}), release: make(chan struct{})}
	clock := func() time.Time { return fixedNow }
	ul := locks.NewUserLocker()
	stats := NewStatsService(ss, ul, zerolog.Nop()).WithClock(clock)
	moods := NewMoodService(ss, NewConflictResolver().WithClock(clock), stats, ul, zerolog.Nop())

	if err := ss.inner.Entries().Put(ctx, entryOn("u1", "2026-03-09", "sunny", 40)); err != nil {
		t.Fatal(err)
	}

	// Forced rebuild reads the one-entry set, then stalls before writing.
	rebuilt := make(chan error, 1)
	go func() {
		_, err := stats.Recompute(ctx, "u1")
		rebuilt <- err
	}()
	<-ss.stalled

	// A write for the same user must queue behind the in-flight rebuild, not
	// interleave with it.
	created := make(chan error, 1)
	go func() {
		_, _, err := moods.Create(ctx, "u1", candidateOn("u1", "2026-03-10", 60))
		created <- err
	}()
	select {
	case err := <-created:
		t.Fatalf("create completed during in-flight recompute (err=%v)", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(ss.release)
	if err := <-rebuilt; err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if err := <-created; err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The write's own recompute ran last, so the stalled rebuild cannot have
	// left one-entry stats behind.
	stored, err := ss.inner.Stats().Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if stored.TotalEntries != 2 {
		t.Fatalf("stale rebuild overwrote fresh stats: totalEntries = %d, want 2", stored.TotalEntries)
	}
}

func TestGetRecomputesStaleStreak(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	// Stats written "yesterday" with a live streak.
	yesterday := fixedNow.AddDate(0, 0, -1)
	if err := st.Entries().Put(ctx, entryOn("u1", "2026-03-09", "sunny", 50)); err != nil {
		t.Fatal(err)
	}
	stale := ComputeStats([]*model.MoodEntry{entryOn("u1", "2026-03-09", "sunny", 50)}, yesterday)
	if stale.CurrentStreak != 1 {
		t.Fatalf("precondition: streak should be live yesterday, got %+v", stale)
	}
	if err := st.Stats().Put(ctx, "u1", &stale); err != nil {
		t.Fatal(err)
	}

	// Read two days later: the day rolled over twice, streak must decay.
	later := fixedNow.AddDate(0, 0, 1)
	svc := NewStatsService(st, locks.NewUserLocker(), zerolog.Nop()).WithClock(func() time.Time { return later })
	got, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CurrentStreak != 0 {
		t.Fatalf("currentStreak = %d, want 0 after day rollover", got.CurrentStreak)
	}
}
