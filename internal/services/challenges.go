package services

import (
	"context"
	"errors"

	"github.com/skylog-app/skylog/internal/model"
)

// challengeMeta describes one badge's display metadata and goal.
type challengeMeta struct {
	ID          string
	Name        string
	Goal        string
	Description string
	Icon        string
	Target      int
}

var challengeCatalog = []challengeMeta{
	{
		ID:          model.BadgeSevenDayStreak,
		Name:        "7-Day Streak",
		Goal:        "Log your mood for 7 consecutive days.",
		Description: "Build a consistent habit to unlock your weekly emotional weather report.",
		Icon:        "vibrant_sun",
		Target:      7,
	},
	{
		ID:          model.BadgeStoryteller,
		Name:        "Storyteller",
		Goal:        "Add a text note to any mood entry.",
		Description: "Provide qualitative context to your inner climate to enrich your mood analysis.",
		Icon:        "book_open",
		Target:      1,
	},
	{
		ID:          model.BadgeMindfulMoment,
		Name:        "Mindful Moment",
		Goal:        "Complete one guided breathing exercise or meditation.",
		Description: "Use the practice player to find calm and check your mood again after the session.",
		Icon:        "wind_wave",
		Target:      1,
	},
	{
		ID:          model.BadgeWeatherMixologist,
		Name:        "Weather Mixologist",
		Goal:        "Combine two different weather emojis in a single mood entry.",
		Description: "Use the mixing canvas to show that emotions can be complex, like a sunny but cloudy day.",
		Icon:        "flask",
		Target:      1,
	},
}

// Challenges projects the user's stats and entry set onto the challenge
// catalog: per-challenge progress plus the unlocked badge list.
func (s *StatsService) Challenges(ctx context.Context, userID string) (*model.UserChallenges, error) {
	st, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlocked := func(id string) bool {
		for _, b := range st.UnlockedBadges {
			if b == id {
				return true
			}
		}
		return false
	}

	// Note and mixed-emoji progress come from the entry set when the badge
	// is still locked; once unlocked the stored badge is authoritative.
	var hasNote, hasMixed bool
	if !unlocked(model.BadgeStoryteller) || !unlocked(model.BadgeWeatherMixologist) {
		entries, err := s.store.Entries().GetAll(ctx, userID)
		if err != nil {
			return nil, err
		}
		hasNote = anyWithNote(entries)
		hasMixed = anyWithMixedEmojis(entries)
	}

	out := &model.UserChallenges{
		CurrentStreak:  st.CurrentStreak,
		UnlockedBadges: st.UnlockedBadges,
		Challenges:     make([]model.Challenge, 0, len(challengeCatalog)),
	}
	for _, meta := range challengeCatalog {
		current := 0
		switch meta.ID {
		case model.BadgeSevenDayStreak:
			current = st.CurrentStreak
		case model.BadgeStoryteller:
			if unlocked(meta.ID) || hasNote {
				current = 1
			}
		case model.BadgeMindfulMoment:
			current = st.MindfulMoments
		case model.BadgeWeatherMixologist:
			if unlocked(meta.ID) || hasMixed {
				current = 1
			}
		}

		progress := current * 100 / meta.Target
		if progress > 100 {
			progress = 100
		}
		status := model.ChallengeLocked
		if unlocked(meta.ID) || current >= meta.Target {
			status = model.ChallengeCompleted
		}

		out.Challenges = append(out.Challenges, model.Challenge{
			ID:           meta.ID,
			Name:         meta.Name,
			Goal:         meta.Goal,
			Description:  meta.Description,
			Icon:         meta.Icon,
			Status:       status,
			Progress:     progress,
			CurrentValue: current,
			TargetValue:  meta.Target,
		})
	}
	return out, nil
}

// RecordMindfulMoment increments the mindfulness counter and unlocks the
// badge on the first completion, inside the user's serialization scope.
func (s *StatsService) RecordMindfulMoment(ctx context.Context, userID string) (*model.UserStats, error) {
	var (
		st  *model.UserStats
		err error
	)
	s.locks.Do(userID, func() {
		var prior *model.UserStats
		prior, err = s.store.Stats().Get(ctx, userID)
		if errors.Is(err, model.ErrNotFound) {
			// First interaction may precede any stats record; build one.
			prior, err = s.recompute(ctx, userID)
		}
		if err != nil {
			return
		}

		next := *prior
		next.UnlockedBadges = append([]string{}, prior.UnlockedBadges...)
		next.MindfulMoments++
		next.UnlockedBadges = unlockBadges(&next, nil)
		next.LastUpdated = s.now().UTC()
		if err = s.store.Stats().Put(ctx, userID, &next); err != nil {
			return
		}
		st = &next
	})
	return st, err
}
