package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/skylog-app/skylog/internal/api/respond"
	"github.com/skylog-app/skylog/internal/api/validate"
	"github.com/skylog-app/skylog/internal/weather"
)

type WeatherHandler struct {
	provider weather.Provider
}

func NewWeatherHandler(p weather.Provider) *WeatherHandler { return &WeatherHandler{provider: p} }

// GetCurrent handles GET /api/weather/current?lat=..&lon=.. and proxies the
// upstream provider so clients never hold the API key.
func (h *WeatherHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	if _, ok := ActorFrom(r.Context()); !ok {
		respond.WriteUnauthorized(w, "missing bearer token")
		return
	}
	q := r.URL.Query()
	lat, lon, err := validate.Coordinates(q.Get("lat"), q.Get("lon"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	cond, err := h.provider.Current(r.Context(), lat, lon)
	if err != nil {
		log.Error().Err(err).Msg("weather lookup failed")
		respond.WriteError(w, http.StatusBadGateway, "weather provider unavailable")
		return
	}
	respond.WriteJSON(w, http.StatusOK, cond)
}
