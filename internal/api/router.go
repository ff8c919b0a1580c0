package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/skylog-app/skylog/internal/api/ratelimit"
	"github.com/skylog-app/skylog/internal/api/recovery"
	"github.com/skylog-app/skylog/internal/auth"
	"github.com/skylog-app/skylog/internal/config"
	"github.com/skylog-app/skylog/internal/locks"
	"github.com/skylog-app/skylog/internal/services"
	"github.com/skylog-app/skylog/internal/store"
	"github.com/skylog-app/skylog/internal/weather"
)

// NewRouter wires all HTTP routes to handlers.
func NewRouter(st store.Store, wp weather.Provider, authorizer auth.Authorizer, cfg *config.Config, log zerolog.Logger) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	// Domain services share one per-user lock scope so single-entry writes
	// and sync batches serialize against each other.
	userLocks := locks.NewUserLocker()
	resolver := services.NewConflictResolver()
	statsSvc := services.NewStatsService(st, userLocks, log)
	moodSvc := services.NewMoodService(st, resolver, statsSvc, userLocks, log)
	syncSvc := services.NewSyncService(st, resolver, statsSvc, userLocks, cfg.SyncMaxBatch, log)

	moodHandler := NewMoodHandler(moodSvc)
	statsHandler := NewStatsHandler(statsSvc)
	syncHandler := NewSyncHandler(syncSvc)
	challengesHandler := NewChallengesHandler(statsSvc)
	weatherHandler := NewWeatherHandler(wp)
	healthHandler := NewHealthHandler()

	// Health and metrics stay outside auth.
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	root.Handle("/metrics", promhttp.Handler()).Methods("GET")

	authed := root.PathPrefix("/api").Subrouter()
	authed.Use(AuthMiddleware(authorizer))
	authed.Use(RateLimitMiddleware(ratelimit.NewPerUser(cfg.RateLimitPerMinute, cfg.RateLimitBurst)))

	// Mood entries
	authed.HandleFunc("/moods", moodHandler.CreateMood).Methods("POST")
	authed.HandleFunc("/moods", moodHandler.ListMoods).Methods("GET")
	authed.HandleFunc("/moods/calendar/{year:[0-9]{4}}/{month:[0-9]{1,2}}", moodHandler.GetCalendar).Methods("GET")
	authed.HandleFunc("/moods/{entryId}", moodHandler.GetMood).Methods("GET")
	authed.HandleFunc("/moods/{entryId}", moodHandler.UpdateMood).Methods("PATCH")
	authed.HandleFunc("/moods/{entryId}", moodHandler.DeleteMood).Methods("DELETE")

	// Offline sync
	authed.HandleFunc("/sync", syncHandler.Sync).Methods("POST")
	authed.HandleFunc("/sync/status", syncHandler.SyncStatus).Methods("GET")

	// Statistics
	authed.HandleFunc("/stats", statsHandler.GetStats).Methods("GET")
	authed.HandleFunc("/stats/recompute", statsHandler.RecomputeStats).Methods("POST")

	// Challenges and badges
	authed.HandleFunc("/challenges", challengesHandler.GetChallenges).Methods("GET")
	authed.HandleFunc("/challenges/mindful", challengesHandler.RecordMindfulMoment).Methods("POST")

	// Weather proxy
	authed.HandleFunc("/weather/current", weatherHandler.GetCurrent).Methods("GET")

	return root
}
