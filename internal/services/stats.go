package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylog-app/skylog/internal/locks"
	"github.com/skylog-app/skylog/internal/metrics"
	"github.com/skylog-app/skylog/internal/model"
	"github.com/skylog-app/skylog/internal/store"
)

// StatsService rebuilds a user's derived statistics from that user's entry
// set. The rebuild reads only the one user's entries, so recomputation cost
// never depends on other users' data, and running it twice over the same
// entry set yields identical output. Every read-entries-then-write-stats
// sequence runs inside the per-user serialization scope, so a rebuild cannot
// interleave with an entry mutation and overwrite fresher stats.
type StatsService struct {
	store store.Store
	locks *locks.UserLocker
	log   zerolog.Logger
	now   func() time.Time
}

func NewStatsService(s store.Store, l *locks.UserLocker, log zerolog.Logger) *StatsService {
	return &StatsService{store: s, locks: l, log: log, now: time.Now}
}

// WithClock overrides the service clock. Intended for tests.
func (s *StatsService) WithClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

// Recompute rebuilds UserStats from the full entry set and persists the
// result, holding the user's serialization scope for the whole sequence.
// This is both the post-mutation hook and the forced-recompute repair path;
// there is no separate cached incremental state to diverge from it.
func (s *StatsService) Recompute(ctx context.Context, userID string) (*model.UserStats, error) {
	var (
		st  *model.UserStats
		err error
	)
	s.locks.Do(userID, func() {
		st, err = s.recompute(ctx, userID)
	})
	return st, err
}

// recompute is the rebuild body for callers already holding the user's lock
// (MoodService and SyncService run it inside their mutation scope).
func (s *StatsService) recompute(ctx context.Context, userID string) (*model.UserStats, error) {
	start := time.Now()

	entries, err := s.store.Entries().GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	prior, err := s.store.Stats().Get(ctx, userID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	st := ComputeStats(entries, s.now())
	carryOver(&st, prior)
	st.UnlockedBadges = unlockBadges(&st, entries)

	if err := s.store.Stats().Put(ctx, userID, &st); err != nil {
		return nil, err
	}

	metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	s.log.Debug().
		Str("user_id", userID).
		Int("total_entries", st.TotalEntries).
		Int("current_streak", st.CurrentStreak).
		Msg("user stats recomputed")
	return &st, nil
}

// Get returns the stored stats, computing them when absent. A record whose
// lastUpdated date precedes today is recomputed so currentStreak decays
// across day boundaries without a mutation.
func (s *StatsService) Get(ctx context.Context, userID string) (*model.UserStats, error) {
	st, err := s.store.Stats().Get(ctx, userID)
	if err == nil {
		if model.DateOf(st.LastUpdated) < model.DateOf(s.now()) {
			return s.Recompute(ctx, userID)
		}
		return st, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	return s.Recompute(ctx, userID)
}

// carryOver preserves the fields a rebuild cannot derive from the entry set:
// the mindful-moments counter and previously unlocked badges, which stay
// unlocked even if the entries that earned them are gone.
func carryOver(st *model.UserStats, prior *model.UserStats) {
	if prior == nil {
		return
	}
	st.MindfulMoments = prior.MindfulMoments
	st.UnlockedBadges = append([]string{}, prior.UnlockedBadges...)
}

// ComputeStats derives UserStats from a user's complete entry set.
// Deterministic: the same entry set and clock produce byte-identical output.
func ComputeStats(entries []*model.MoodEntry, now time.Time) model.UserStats {
	st := model.UserStats{
		TotalEntries:   len(entries),
		UnlockedBadges: []string{},
		LastUpdated:    now.UTC(),
	}
	if len(entries) == 0 {
		return st
	}

	cur, longest := streaks(entries, model.DateOf(now))
	st.CurrentStreak = cur
	st.LongestStreak = longest
	st.DominantMood = dominantMood(entries)
	st.AverageIntensity = averageIntensity(entries)
	st.WeeklyRhythm = weeklyRhythm(entries)
	return st
}

// unlockBadges returns the badge set after checking unlock conditions
// against the current stats and entry set. Already-unlocked badges stay;
// newly earned ones append in the fixed BadgeIDs order so repeated rebuilds
// agree.
func unlockBadges(st *model.UserStats, entries []*model.MoodEntry) []string {
	badges := st.UnlockedBadges
	if badges == nil {
		badges = []string{}
	}
	has := func(id string) bool {
		for _, b := range badges {
			if b == id {
				return true
			}
		}
		return false
	}

	earned := map[string]bool{
		model.BadgeSevenDayStreak:    st.CurrentStreak >= 7,
		model.BadgeStoryteller:       anyWithNote(entries),
		model.BadgeMindfulMoment:     st.MindfulMoments >= 1,
		model.BadgeWeatherMixologist: anyWithMixedEmojis(entries),
	}
	for _, id := range model.BadgeIDs {
		if earned[id] && !has(id) {
			badges = append(badges, id)
		}
	}
	return badges
}

func anyWithNote(entries []*model.MoodEntry) bool {
	for _, e := range entries {
		if e.Note != nil && *e.Note != "" {
			return true
		}
	}
	return false
}

func anyWithMixedEmojis(entries []*model.MoodEntry) bool {
	for _, e := range entries {
		if len(e.Emojis) >= 2 {
			return true
		}
	}
	return false
}

// streaks returns (currentStreak, longestStreak) over the entries' dates.
// A run breaks on any gap greater than one calendar day. The current streak
// is the run ending at the most recent date and is 0 unless that date is
// today or yesterday.
func streaks(entries []*model.MoodEntry, today model.Date) (int, int) {
	seen := make(map[model.Date]struct{}, len(entries))
	for _, e := range entries {
		seen[e.Date] = struct{}{}
	}
	dates := make([]model.Date, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })
	if len(dates) == 0 {
		return 0, 0
	}

	longest := 1
	run := 1
	for i := 1; i < len(dates); i++ {
		if dates[i-1].AddDays(1) == dates[i] {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}

	// run now holds the length of the trailing consecutive run.
	last := dates[len(dates)-1]
	current := 0
	if last == today || last.AddDays(1) == today {
		current = run
	}
	return current, longest
}

// dominantMood returns the most frequent primary emoji. Ties break toward the
// emoji seen most recently, then toward the lexically smaller label; the
// ordering is fixed so repeated recomputations agree.
func dominantMood(entries []*model.MoodEntry) *string {
	counts := make(map[string]int)
	latest := make(map[string]model.Date)
	for _, e := range entries {
		p := e.PrimaryEmoji()
		if p == "" {
			continue
		}
		counts[p]++
		if e.Date > latest[p] {
			latest[p] = e.Date
		}
	}
	if len(counts) == 0 {
		return nil
	}

	var best string
	for emoji := range counts {
		if best == "" {
			best = emoji
			continue
		}
		switch {
		case counts[emoji] > counts[best]:
			best = emoji
		case counts[emoji] == counts[best] && latest[emoji] > latest[best]:
			best = emoji
		case counts[emoji] == counts[best] && latest[emoji] == latest[best] && emoji < best:
			best = emoji
		}
	}
	return &best
}

func averageIntensity(entries []*model.MoodEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, e := range entries {
		sum += e.Intensity
	}
	return round2(float64(sum) / float64(len(entries)))
}

func weeklyRhythm(entries []*model.MoodEntry) model.WeeklyRhythm {
	var sums, counts [7]float64
	for _, e := range entries {
		wd := int(e.Date.Weekday())
		sums[wd] += float64(e.Intensity)
		counts[wd]++
	}
	mean := func(wd time.Weekday) float64 {
		if counts[wd] == 0 {
			return 0
		}
		return round2(sums[wd] / counts[wd])
	}
	return model.WeeklyRhythm{
		Monday:    mean(time.Monday),
		Tuesday:   mean(time.Tuesday),
		Wednesday: mean(time.Wednesday),
		Thursday:  mean(time.Thursday),
		Friday:    mean(time.Friday),
		Saturday:  mean(time.Saturday),
		Sunday:    mean(time.Sunday),
	}
}

// round2 rounds to two decimal places, the precision persisted stats use.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
