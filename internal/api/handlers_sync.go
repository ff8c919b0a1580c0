package api

import (
	"encoding/json"
	"net/http"

	"github.com/skylog-app/skylog/internal/api/respond"
	"github.com/skylog-app/skylog/internal/model"
	"github.com/skylog-app/skylog/internal/services"
)

type SyncHandler struct {
	svc *services.SyncService
}

func NewSyncHandler(svc *services.SyncService) *SyncHandler { return &SyncHandler{svc: svc} }

// Sync handles POST /api/sync: a batch of client-queued entries, answered
// with one result per item in submission order.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "missing bearer token")
		return
	}
	var in struct {
		Items []model.SyncItem `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}

	res, err := h.svc.Sync(r.Context(), actor.UserID, in.Items)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

// SyncStatus handles GET /api/sync/status.
func (h *SyncHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "missing bearer token")
		return
	}
	st, err := h.svc.Status(r.Context(), actor.UserID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, st)
}
