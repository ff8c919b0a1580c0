package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/skylog-app/skylog/internal/auth"
	"github.com/skylog-app/skylog/internal/config"
	"github.com/skylog-app/skylog/internal/model"
	"github.com/skylog-app/skylog/internal/store/memory"
)

type stubWeather struct{}

func (stubWeather) Current(ctx context.Context, lat, lon float64) (*model.ExternalWeather, error) {
	return &model.ExternalWeather{Temp: 7.5, WeatherMain: "Rain", Icon: "10d"}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	router := NewRouter(memory.New(), stubWeather{}, auth.NewDevAuthorizer(), config.NewForTesting(), zerolog.Nop())
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatal(err)
	}
}

func moodBody(userID, date string, intensity int) map[string]interface{} {
	return map[string]interface{}{
		"userId":    userID,
		"date":      date,
		"timestamp": date + "T09:00:00Z",
		"emojis":    []string{"sunny"},
		"intensity": intensity,
	}
}

func TestMissingTokenRejected(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/moods", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestCreateThenMergeStatusCodes(t *testing.T) {
	srv := newTestServer(t)
	token := "sk_dev_alice"

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/moods", token, moodBody("alice", "2026-03-10", 60))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first create status = %d, want 201", resp.StatusCode)
	}
	var first model.MoodEntry
	decode(t, resp, &first)
	if first.EntryID == "" {
		t.Fatal("missing entryId")
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/moods", token, moodBody("alice", "2026-03-10", 80))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("same-day resubmit status = %d, want 200", resp.StatusCode)
	}
	var second model.MoodEntry
	decode(t, resp, &second)
	if second.EntryID != first.EntryID || second.Intensity != 80 {
		t.Fatalf("merge wrong: %+v", second)
	}
}

func TestCreateForOtherUserForbidden(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/moods", "sk_dev_alice", moodBody("bob", "2026-03-10", 60))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestValidationMapsTo400(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/moods", "sk_dev_alice", moodBody("alice", "2026-03-10", 150))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMoodCRUDRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	token := "sk_dev_alice"

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/moods", token, moodBody("alice", "2026-03-10", 60))
	var created model.MoodEntry
	decode(t, resp, &created)

	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/moods/"+created.EntryID, token,
		map[string]interface{}{"note": "clearing up"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	var updated model.MoodEntry
	decode(t, resp, &updated)
	if updated.Note == nil || *updated.Note != "clearing up" || updated.Intensity != 60 {
		t.Fatalf("update wrong: %+v", updated)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/moods/"+created.EntryID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/moods/"+created.EntryID, token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/moods/"+created.EntryID, token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", resp.StatusCode)
	}
}

func TestForeignEntryInvisible(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/moods", "sk_dev_alice", moodBody("alice", "2026-03-10", 60))
	var created model.MoodEntry
	decode(t, resp, &created)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/moods/"+created.EntryID, "sk_dev_bob", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for foreign caller", resp.StatusCode)
	}
}

func TestListWithFilters(t *testing.T) {
	srv := newTestServer(t)
	token := "sk_dev_alice"

	for d := 1; d <= 5; d++ {
		date := fmt.Sprintf("2026-03-%02d", d)
		if resp := doJSON(t, http.MethodPost, srv.URL+"/api/moods", token, moodBody("alice", date, 50)); resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed %s failed: %d", date, resp.StatusCode)
		}
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/moods?from=2026-03-02&to=2026-03-04", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var out struct {
		Entries []model.MoodEntry `json:"entries"`
		Total   int               `json:"total"`
	}
	decode(t, resp, &out)
	if out.Total != 3 || len(out.Entries) != 3 {
		t.Fatalf("list = %+v, want 3 in range", out)
	}
	if out.Entries[0].Date != "2026-03-04" {
		t.Fatalf("first entry %s, want newest first", out.Entries[0].Date)
	}
}

func TestSyncEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := "sk_dev_alice"

	items := []map[string]interface{}{
		{"localId": "l1", "userId": "alice", "date": "2026-03-01", "timestamp": "2026-03-01T20:00:00Z", "emojis": []string{"sunny"}, "intensity": 50},
		{"localId": "l2", "userId": "alice", "date": "2026-03-02", "timestamp": "2026-03-02T20:00:00Z", "emojis": []string{"rainy"}, "intensity": 150},
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sync", token, map[string]interface{}{"items": items})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sync status = %d", resp.StatusCode)
	}
	var res model.SyncResult
	decode(t, resp, &res)
	if res.TotalProcessed != 2 || res.SuccessCount != 1 || res.ErrorCount != 1 {
		t.Fatalf("sync result = %+v", res)
	}
	if res.Results[0].Outcome != model.SyncAccepted || res.Results[1].Outcome != model.SyncRejected {
		t.Fatalf("outcomes = %+v", res.Results)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/sync/status", token, nil)
	var st model.SyncStatus
	decode(t, resp, &st)
	if !st.Complete || st.TotalEntries != 1 {
		t.Fatalf("sync status = %+v", st)
	}
}

func TestEmptySyncBatchIs400(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sync", "sk_dev_alice",
		map[string]interface{}{"items": []interface{}{}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStatsEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := "sk_dev_alice"

	if resp := doJSON(t, http.MethodPost, srv.URL+"/api/moods", token, moodBody("alice", "2026-03-10", 70)); resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed failed: %d", resp.StatusCode)
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/stats", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d", resp.StatusCode)
	}
	var st model.UserStats
	decode(t, resp, &st)
	if st.TotalEntries != 1 || st.AverageIntensity != 70 {
		t.Fatalf("stats = %+v", st)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/stats/recompute", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recompute status = %d", resp.StatusCode)
	}
}

func TestChallengesEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := "sk_dev_alice"

	body := moodBody("alice", "2026-03-10", 70)
	body["note"] = "first journal entry"
	if resp := doJSON(t, http.MethodPost, srv.URL+"/api/moods", token, body); resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed failed: %d", resp.StatusCode)
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/challenges", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("challenges status = %d", resp.StatusCode)
	}
	var uc model.UserChallenges
	decode(t, resp, &uc)
	if len(uc.Challenges) != 4 {
		t.Fatalf("challenge count = %d, want 4", len(uc.Challenges))
	}
	var story *model.Challenge
	for i := range uc.Challenges {
		if uc.Challenges[i].ID == model.BadgeStoryteller {
			story = &uc.Challenges[i]
		}
	}
	if story == nil || story.Status != model.ChallengeCompleted {
		t.Fatalf("storyteller = %+v, want completed after noted entry", story)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/challenges/mindful", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mindful status = %d", resp.StatusCode)
	}
	var st model.UserStats
	decode(t, resp, &st)
	if st.MindfulMoments != 1 {
		t.Fatalf("mindfulMomentsCount = %d, want 1", st.MindfulMoments)
	}
	found := false
	for _, b := range st.UnlockedBadges {
		if b == model.BadgeMindfulMoment {
			found = true
		}
	}
	if !found {
		t.Fatalf("mindful badge missing: %v", st.UnlockedBadges)
	}
}

func TestCalendarEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := "sk_dev_alice"

	if resp := doJSON(t, http.MethodPost, srv.URL+"/api/moods", token, moodBody("alice", "2026-03-10", 70)); resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed failed: %d", resp.StatusCode)
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/moods/calendar/2026/3", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("calendar status = %d", resp.StatusCode)
	}
	var cal model.CalendarMonth
	decode(t, resp, &cal)
	if cal.Month != 3 || len(cal.Days) != 1 {
		t.Fatalf("calendar = %+v", cal)
	}
}

func TestWeatherProxy(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/weather/current?lat=51.5&lon=-0.12", "sk_dev_alice", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("weather status = %d", resp.StatusCode)
	}
	var w model.ExternalWeather
	decode(t, resp, &w)
	if w.WeatherMain != "Rain" {
		t.Fatalf("weather = %+v", w)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/weather/current?lat=999&lon=0", "sk_dev_alice", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad coords status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthEndpointMirrorsServiceState(t *testing.T) {
	srv := newTestServer(t)
	prev := serviceIsHealthy
	t.Cleanup(func() { BindServiceHealth(prev) })

	// No auth required either way; the status code follows service state.
	BindServiceHealth(func() bool { return true })
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthy status = %d, want 200 without auth", resp.StatusCode)
	}
	var body map[string]string
	decode(t, resp, &body)
	if body["status"] != "healthy" {
		t.Fatalf("healthy body = %v", body)
	}

	BindServiceHealth(func() bool { return false })
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/health", "", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy status = %d, want 503", resp.StatusCode)
	}
	decode(t, resp, &body)
	if body["status"] != "unhealthy" {
		t.Fatalf("unhealthy body = %v", body)
	}
}
