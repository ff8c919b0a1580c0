package model

import "time"

// MoodEmoji is one symbol from the fixed weather-mood vocabulary.
type MoodEmoji string

const (
	EmojiSunny  MoodEmoji = "sunny"
	EmojiPartly MoodEmoji = "partly"
	EmojiCloudy MoodEmoji = "cloudy"
	EmojiRainy  MoodEmoji = "rainy"
	EmojiStormy MoodEmoji = "stormy"
)

// MoodEmojis lists the vocabulary in a fixed order.
var MoodEmojis = []MoodEmoji{EmojiSunny, EmojiPartly, EmojiCloudy, EmojiRainy, EmojiStormy}

// ValidEmoji reports whether s belongs to the vocabulary.
func ValidEmoji(s string) bool {
	for _, e := range MoodEmojis {
		if string(e) == s {
			return true
		}
	}
	return false
}

// Date is a calendar day bucket in "2006-01-02" form. Entries are unique per
// (userId, date).
type Date string

const dateLayout = "2006-01-02"

// ParseDate validates and normalizes a date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", err
	}
	return Date(t.Format(dateLayout)), nil
}

// DateOf buckets an instant into its UTC calendar day.
func DateOf(t time.Time) Date {
	return Date(t.UTC().Format(dateLayout))
}

// Time returns midnight UTC of the day. Callers must hold a validated Date;
// a malformed value yields the zero time.
func (d Date) Time() time.Time {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Valid reports whether d is a well-formed calendar date.
func (d Date) Valid() bool {
	_, err := time.Parse(dateLayout, string(d))
	return err == nil
}

// Weekday returns the day of week the date falls on.
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// AddDays returns the date n calendar days later (negative n goes back).
func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n)) }

// Location is a geographic coordinate attached to an entry.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ExternalWeather captures provider conditions observed alongside an entry.
type ExternalWeather struct {
	Temp               float64 `json:"temp"`
	FeelsLike          float64 `json:"feels_like"`
	Humidity           int     `json:"humidity"`
	WeatherMain        string  `json:"weather_main"`
	WeatherDescription string  `json:"weather_description"`
	Icon               string  `json:"icon"`
}

// MoodEntry is one emotional/weather observation. At most one exists per
// (userId, date); merges replace mutable fields in place and keep EntryID and
// CreatedAt.
type MoodEntry struct {
	EntryID         string           `json:"entryId"`
	UserID          string           `json:"userId"`
	Date            Date             `json:"date"`
	Timestamp       time.Time        `json:"timestamp"`
	Emojis          []string         `json:"emojis"`
	Intensity       int              `json:"intensity"`
	Note            *string          `json:"note,omitempty"`
	Location        *Location        `json:"location,omitempty"`
	ExternalWeather *ExternalWeather `json:"externalWeather,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       *time.Time       `json:"updatedAt,omitempty"`
}

// PrimaryEmoji returns the first emoji, the one dominant-mood counting uses.
func (e *MoodEntry) PrimaryEmoji() string {
	if len(e.Emojis) == 0 {
		return ""
	}
	return e.Emojis[0]
}

// WeeklyRhythm maps each weekday to the mean intensity of entries falling on
// it. Weekdays without entries report 0. All seven keys always serialize.
type WeeklyRhythm struct {
	Monday    float64 `json:"monday"`
	Tuesday   float64 `json:"tuesday"`
	Wednesday float64 `json:"wednesday"`
	Thursday  float64 `json:"thursday"`
	Friday    float64 `json:"friday"`
	Saturday  float64 `json:"saturday"`
	Sunday    float64 `json:"sunday"`
}

// UserStats is derived from the user's entry set and rebuildable from
// scratch at any time, except for two sticky fields: MindfulMoments is an
// explicit counter, and UnlockedBadges never loses a badge even if the
// entries that earned it are deleted.
type UserStats struct {
	TotalEntries     int          `json:"totalEntries"`
	CurrentStreak    int          `json:"currentStreak"`
	LongestStreak    int          `json:"longestStreak"`
	DominantMood     *string      `json:"dominantMood"`
	AverageIntensity float64      `json:"averageIntensity"`
	WeeklyRhythm     WeeklyRhythm `json:"weeklyRhythm"`
	MindfulMoments   int          `json:"mindfulMomentsCount"`
	UnlockedBadges   []string     `json:"unlockedBadges"`
	LastUpdated      time.Time    `json:"lastUpdated"`
}

// Badge identifiers. BadgeIDs fixes the display and unlock-append order.
const (
	BadgeSevenDayStreak    = "7_day_streak"
	BadgeStoryteller       = "storyteller"
	BadgeMindfulMoment     = "mindful_moment"
	BadgeWeatherMixologist = "weather_mixologist"
)

var BadgeIDs = []string{BadgeSevenDayStreak, BadgeStoryteller, BadgeMindfulMoment, BadgeWeatherMixologist}

// ChallengeStatus is the unlock state of one challenge.
type ChallengeStatus string

const (
	ChallengeCompleted ChallengeStatus = "completed"
	ChallengeLocked    ChallengeStatus = "locked"
)

// Challenge is the progress projection of one badge.
type Challenge struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Goal         string          `json:"goal"`
	Description  string          `json:"description"`
	Icon         string          `json:"icon"`
	Status       ChallengeStatus `json:"status"`
	Progress     int             `json:"progress"`
	CurrentValue int             `json:"currentValue"`
	TargetValue  int             `json:"targetValue"`
}

// UserChallenges is the whole-user challenges view.
type UserChallenges struct {
	CurrentStreak  int         `json:"currentStreak"`
	UnlockedBadges []string    `json:"unlockedBadges"`
	Challenges     []Challenge `json:"challenges"`
}

// CalendarDay is the per-day projection used by the month calendar view.
type CalendarDay struct {
	Emojis    []string `json:"emojis"`
	Intensity int      `json:"intensity"`
	HasNote   bool     `json:"hasNote"`
}

// CalendarMonth holds calendar data for one month keyed by date.
type CalendarMonth struct {
	Year  int                  `json:"year"`
	Month int                  `json:"month"`
	Days  map[Date]CalendarDay `json:"days"`
}

// SyncItem is one client-queued entry submitted in a batch sync.
type SyncItem struct {
	LocalID   string           `json:"localId"`
	UserID    string           `json:"userId"`
	Date      Date             `json:"date,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Emojis    []string         `json:"emojis"`
	Intensity int              `json:"intensity"`
	Note      *string          `json:"note,omitempty"`
	Location  *Location        `json:"location,omitempty"`
	Weather   *ExternalWeather `json:"externalWeather,omitempty"`
}

// SyncOutcome classifies the result of one batch item.
type SyncOutcome string

const (
	SyncAccepted SyncOutcome = "accepted" // no prior entry, inserted
	SyncMerged   SyncOutcome = "merged"   // prior entry replaced in place
	SyncRejected SyncOutcome = "rejected" // structural validation failure
	SyncFailed   SyncOutcome = "failed"   // store unavailable for this item
)

// SyncItemResult correlates one input item to its outcome, preserving order.
type SyncItemResult struct {
	LocalID string      `json:"localId"`
	EntryID string      `json:"serverId,omitempty"`
	Outcome SyncOutcome `json:"status"`
	Reason  string      `json:"reason,omitempty"`
}

// SyncResult is the whole-batch response; Results has one element per input
// item in submission order.
type SyncResult struct {
	Results        []SyncItemResult `json:"results"`
	TotalProcessed int              `json:"totalProcessed"`
	SuccessCount   int              `json:"successCount"`
	ErrorCount     int              `json:"errorCount"`
}

// SyncStatus reports completion info for a user. Sync is processed
// synchronously within one request, so there is no in-progress state.
type SyncStatus struct {
	UserID       string    `json:"userId"`
	Complete     bool      `json:"complete"`
	TotalEntries int       `json:"totalEntries"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// ListEntriesRequest captures filters used when listing a user's entries.
type ListEntriesRequest struct {
	UserID string
	From   *Date
	To     *Date
	Limit  int
	Offset int
}
