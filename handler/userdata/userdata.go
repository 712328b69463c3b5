package userdata

import (
	"net/http"

	"github.com/mager/tastebud/handler/respond"
	"github.com/mager/tastebud/spotify"
	"github.com/mager/tastebud/tastebud"
	spot "github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
)

const (
	defaultTopTracks  = 50
	defaultTopArtists = 20
	defaultRecent     = 50
)

// --- Top Tracks Handler ---

type TopTracksHandler struct {
	log     *zap.SugaredLogger
	spotify *spotify.Provider
}

func (*TopTracksHandler) Pattern() string { return "/top-tracks" }
func (*TopTracksHandler) Method() string  { return http.MethodGet }

func NewTopTracksHandler(log *zap.SugaredLogger, spotify *spotify.Provider) *TopTracksHandler {
	return &TopTracksHandler{log: log, spotify: spotify}
}

type TopTracksResponse struct {
	Tracks []tastebud.TrackSummary `json:"tracks"`
}

// Top tracks
// @Summary Get the user's top tracks
// @Produce json
// @Param access_token query string true "Access token"
// @Param time_range query string false "short_term, medium_term or long_term"
// @Param limit query int false "Number of tracks"
// @Success 200 {object} TopTracksResponse
// @Router /top-tracks [get]
func (h *TopTracksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to fetch top tracks"
	q := r.URL.Query()

	token := respond.AccessToken(r, "")
	if token == "" {
		respond.Missing(w, "Access token is required")
		return
	}
	tr, err := timeRange(q)
	if err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}
	n, err := limit(q, defaultTopTracks)
	if err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}

	tracks, err := h.spotify.Session(r.Context(), token).TopTracks(r.Context(), tr, n)
	if err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}
	respond.OK(w, TopTracksResponse{Tracks: tracks})
}

// --- Top Artists Handler ---

type TopArtistsHandler struct {
	log     *zap.SugaredLogger
	spotify *spotify.Provider
}

func (*TopArtistsHandler) Pattern() string { return "/top-artists" }
func (*TopArtistsHandler) Method() string  { return http.MethodGet }

func NewTopArtistsHandler(log *zap.SugaredLogger, spotify *spotify.Provider) *TopArtistsHandler {
	return &TopArtistsHandler{log: log, spotify: spotify}
}

type TopArtistsResponse struct {
	Artists []tastebud.ArtistSummary `json:"artists"`
}

// Top artists
// @Summary Get the user's top artists
// @Produce json
// @Param access_token query string true "Access token"
// @Param time_range query string false "short_term, medium_term or long_term"
// @Param limit query int false "Number of artists"
// @Success 200 {object} TopArtistsResponse
// @Router /top-artists [get]
func (h *TopArtistsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to fetch top artists"
	q := r.URL.Query()

	token := respond.AccessToken(r, "")
	if token == "" {
		respond.Missing(w, "Access token is required")
		return
	}
	tr, err := timeRange(q)
	if err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}
	n, err := limit(q, defaultTopArtists)
	if err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}

	artists, err := h.spotify.Session(r.Context(), token).TopArtists(r.Context(), tr, n)
	if err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}
	respond.OK(w, TopArtistsResponse{Artists: artists})
}

// --- Recently Played Handler ---

type RecentlyPlayedHandler struct {
	log     *zap.SugaredLogger
	spotify *spotify.Provider
}

func (*RecentlyPlayedHandler) Pattern() string { return "/recently-played" }
func (*RecentlyPlayedHandler) Method() string  { return http.MethodGet }

func NewRecentlyPlayedHandler(log *zap.SugaredLogger, spotify *spotify.Provider) *RecentlyPlayedHandler {
	return &RecentlyPlayedHandler{log: log, spotify: spotify}
}

type RecentlyPlayedResponse struct {
	Tracks []tastebud.RecentTrack `json:"tracks"`
}

// Recently played
// @Summary Get the user's recently played tracks
// @Produce json
// @Param access_token query string true "Access token"
// @Param limit query int false "Number of tracks"
// @Success 200 {object} RecentlyPlayedResponse
// @Router /recently-played [get]
func (h *RecentlyPlayedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to fetch recently played tracks"

	token := respond.AccessToken(r, "")
	if token == "" {
		respond.Missing(w, "Access token is required")
		return
	}
	n, err := limit(r.URL.Query(), defaultRecent)
	if err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}

	tracks, err := h.spotify.Session(r.Context(), token).RecentlyPlayed(r.Context(), n)
	if err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}
	respond.OK(w, RecentlyPlayedResponse{Tracks: tracks})
}

// --- Audio Features Handler ---

type AudioFeaturesHandler struct {
	log     *zap.SugaredLogger
	spotify *spotify.Provider
}

func (*AudioFeaturesHandler) Pattern() string { return "/audio-features" }
func (*AudioFeaturesHandler) Method() string  { return http.MethodGet }

func NewAudioFeaturesHandler(log *zap.SugaredLogger, spotify *spotify.Provider) *AudioFeaturesHandler {
	return &AudioFeaturesHandler{log: log, spotify: spotify}
}

// AudioFeaturesResponse passes the upstream feature objects through. Unknown
// tracks come back as null.
type AudioFeaturesResponse struct {
	AudioFeatures []*spot.AudioFeatures `json:"audio_features"`
}

// Audio features
// @Summary Get audio features for tracks
// @Produce json
// @Param access_token query string true "Access token"
// @Param track_ids query string true "Comma separated track IDs"
// @Success 200 {object} AudioFeaturesResponse
// @Router /audio-features [get]
func (h *AudioFeaturesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := respond.AccessToken(r, "")
	if token == "" {
		respond.Missing(w, "Access token is required")
		return
	}
	ids := trackIDs(r.URL.Query())
	if len(ids) == 0 {
		respond.Missing(w, "No track IDs provided")
		return
	}

	h.log.Infow("fetching audio features", "tracks", len(ids))
	features, err := h.spotify.Session(r.Context(), token).AudioFeatures(r.Context(), ids)
	if err != nil {
		respond.Error(w, h.log, err, "Failed to fetch audio features")
		return
	}
	respond.OK(w, AudioFeaturesResponse{AudioFeatures: features})
}

// --- Profile Handler ---

type ProfileHandler struct {
	log     *zap.SugaredLogger
	spotify *spotify.Provider
}

func (*ProfileHandler) Pattern() string { return "/profile" }
func (*ProfileHandler) Method() string  { return http.MethodPost }

func NewProfileHandler(log *zap.SugaredLogger, spotify *spotify.Provider) *ProfileHandler {
	return &ProfileHandler{log: log, spotify: spotify}
}

type ProfileRequest struct {
	AccessToken string `json:"access_token"`
}

// Profile
// @Summary Get the user's Spotify profile
// @Accept json
// @Produce json
// @Param body body ProfileRequest true "Access token"
// @Success 200 {object} object
// @Router /profile [post]
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to fetch user profile"

	var req ProfileRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}
	token := respond.AccessToken(r, req.AccessToken)
	if token == "" {
		respond.Missing(w, "Access token is required")
		return
	}

	profile, err := h.spotify.Session(r.Context(), token).Profile(r.Context())
	if err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}
	respond.OK(w, profile)
}
