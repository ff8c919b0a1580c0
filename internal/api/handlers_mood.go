package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/skylog-app/skylog/internal/api/respond"
	"github.com/skylog-app/skylog/internal/api/validate"
	"github.com/skylog-app/skylog/internal/model"
	"github.com/skylog-app/skylog/internal/services"
)

// listPageLimit bounds one page of GET /api/moods.
const listPageLimit = 100

type MoodHandler struct {
	svc *services.MoodService
}

func NewMoodHandler(svc *services.MoodService) *MoodHandler { return &MoodHandler{svc: svc} }

type moodRequest struct {
	UserID    string                 `json:"userId"`
	Date      model.Date             `json:"date,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Emojis    []string               `json:"emojis"`
	Intensity int                    `json:"intensity"`
	Note      *string                `json:"note,omitempty"`
	Location  *model.Location        `json:"location,omitempty"`
	Weather   *model.ExternalWeather `json:"externalWeather,omitempty"`
}

// CreateMood handles POST /api/moods. A resubmission for an occupied day
// merges in place and answers 200; a fresh day answers 201.
func (h *MoodHandler) CreateMood(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "missing bearer token")
		return
	}
	var in moodRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}

	entry, outcome, err := h.svc.Create(r.Context(), actor.UserID, services.Candidate{
		UserID:    in.UserID,
		Date:      in.Date,
		Timestamp: in.Timestamp,
		Emojis:    in.Emojis,
		Intensity: in.Intensity,
		Note:      in.Note,
		Location:  in.Location,
		Weather:   in.Weather,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if outcome == model.SyncMerged {
		status = http.StatusOK
	}
	respond.WriteJSON(w, status, entry)
}

// GetMood handles GET /api/moods/{entryId}.
func (h *MoodHandler) GetMood(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "missing bearer token")
		return
	}
	entry, err := h.svc.Get(r.Context(), actor.UserID, mux.Vars(r)["entryId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, entry)
}

// ListMoods handles GET /api/moods with from/to/limit/offset query filters.
func (h *MoodHandler) ListMoods(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "missing bearer token")
		return
	}
	q := r.URL.Query()

	from, err := validate.OptionalDate("from", q.Get("from"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	to, err := validate.OptionalDate("to", q.Get("to"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	limit, offset, err := validate.Pagination(q.Get("limit"), q.Get("offset"), listPageLimit)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	entries, total, err := h.svc.List(r.Context(), model.ListEntriesRequest{
		UserID: actor.UserID,
		From:   from,
		To:     to,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   total,
	})
}

type moodUpdateRequest struct {
	Emojis    []string               `json:"emojis,omitempty"`
	Intensity *int                   `json:"intensity,omitempty"`
	Note      *string                `json:"note,omitempty"`
	Location  *model.Location        `json:"location,omitempty"`
	Weather   *model.ExternalWeather `json:"externalWeather,omitempty"`
}

// UpdateMood handles PATCH /api/moods/{entryId}; absent fields keep their
// current values.
func (h *MoodHandler) UpdateMood(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "missing bearer token")
		return
	}
	var in moodUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}

	entry, err := h.svc.Update(r.Context(), actor.UserID, mux.Vars(r)["entryId"], services.UpdateRequest{
		Emojis:    in.Emojis,
		Intensity: in.Intensity,
		Note:      in.Note,
		Location:  in.Location,
		Weather:   in.Weather,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, entry)
}

// DeleteMood handles DELETE /api/moods/{entryId}.
func (h *MoodHandler) DeleteMood(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "missing bearer token")
		return
	}
	if err := h.svc.Delete(r.Context(), actor.UserID, mux.Vars(r)["entryId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCalendar handles GET /api/moods/calendar/{year}/{month}.
func (h *MoodHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "missing bearer token")
		return
	}
	vars := mux.Vars(r)
	year, month, err := validate.YearMonth(vars["year"], vars["month"])
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	cal, err := h.svc.Calendar(r.Context(), actor.UserID, year, time.Month(month))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, cal)
}
