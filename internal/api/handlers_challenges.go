package api

import (
	"net/http"

	"github.com/skylog-app/skylog/internal/api/respond"
	"github.com/skylog-app/skylog/internal/services"
)

type ChallengesHandler struct {
	svc *services.StatsService
}

func NewChallengesHandler(svc *services.StatsService) *ChallengesHandler {
	return &ChallengesHandler{svc: svc}
}

// GetChallenges handles GET /api/challenges: the badge catalog projected onto
// the caller's stats and entry set.
func (h *ChallengesHandler) GetChallenges(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "missing bearer token")
		return
	}
	ch, err := h.svc.Challenges(r.Context(), actor.UserID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, ch)
}

// RecordMindfulMoment handles POST /api/challenges/mindful, logging one
// completed breathing or meditation session.
func (h *ChallengesHandler) RecordMindfulMoment(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "missing bearer token")
		return
	}
	st, err := h.svc.RecordMindfulMoment(r.Context(), actor.UserID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, st)
}
