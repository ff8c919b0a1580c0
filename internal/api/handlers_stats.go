package api

import (
	"net/http"

	"github.com/skylog-app/skylog/internal/api/respond"
	"github.com/skylog-app/skylog/internal/services"
)

type StatsHandler struct {
	svc *services.StatsService
}

func NewStatsHandler(svc *services.StatsService) *StatsHandler { return &StatsHandler{svc: svc} }

// GetStats handles GET /api/stats. Computes on first read and refreshes when
// the stored record predates today.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "missing bearer token")
		return
	}
	st, err := h.svc.Get(r.Context(), actor.UserID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, st)
}

// RecomputeStats handles POST /api/stats/recompute, the repair path that
// rebuilds statistics from the entry set unconditionally.
func (h *StatsHandler) RecomputeStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "missing bearer token")
		return
	}
	st, err := h.svc.Recompute(r.Context(), actor.UserID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, st)
}
