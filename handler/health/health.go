package health

import (
	"net/http"

	"github.com/mager/tastebud/handler/respond"
	"github.com/mager/tastebud/narrative"
	"github.com/mager/tastebud/spotify"
	"go.uber.org/zap"
)

// HealthHandler reports whether the relay's upstreams can be used.
type HealthHandler struct {
	log       *zap.SugaredLogger
	spotify   *spotify.Provider
	narrative *narrative.Generator
}

func (*HealthHandler) Pattern() string {
	return "/health"
}

func (*HealthHandler) Method() string {
	return http.MethodGet
}

// NewHealthHandler builds a new HealthHandler.
func NewHealthHandler(log *zap.SugaredLogger, spotify *spotify.Provider, narrative *narrative.Generator) *HealthHandler {
	return &HealthHandler{
		log:       log,
		spotify:   spotify,
		narrative: narrative,
	}
}

type Response struct {
	Server bool `json:"server"`
	// Spotify is true when the accounts service answered.
	Spotify bool `json:"spotify"`
	// Narrative is false when analyses come from the local template only.
	Narrative bool `json:"narrative"`
}

// Health check
// @Summary Health check
// @Produce json
// @Success 200 {object} Response
// @Router /health [get]
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var resp Response

	h.log.Debug("health check")

	resp.Server = true

	resp.Spotify = h.spotify.Reachable(r.Context())
	resp.Narrative = h.narrative.Remote()

	respond.OK(w, resp)
}
