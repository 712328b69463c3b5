package playlist

import (
	"net/http"

	"github.com/mager/tastebud/handler/respond"
	"github.com/mager/tastebud/spotify"
	"go.uber.org/zap"
)

// --- Create Playlist Handler ---

type CreateHandler struct {
	log     *zap.SugaredLogger
	spotify *spotify.Provider
}

func (*CreateHandler) Pattern() string { return "/playlists/create" }
func (*CreateHandler) Method() string  { return http.MethodPost }

func NewCreateHandler(log *zap.SugaredLogger, spotify *spotify.Provider) *CreateHandler {
	return &CreateHandler{log: log, spotify: spotify}
}

type CreateRequest struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Public defaults to true when omitted.
	Public *bool `json:"public"`
}

// Create playlist
// @Summary Create a playlist for the user
// @Accept json
// @Produce json
// @Param body body CreateRequest true "Playlist"
// @Success 200 {object} tastebud.Playlist
// @Router /playlists/create [post]
func (h *CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to create playlist"

	var req CreateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}
	token := respond.AccessToken(r, req.AccessToken)
	if token == "" {
		respond.Missing(w, "Access token is required")
		return
	}
	if req.Name == "" {
		respond.Missing(w, "Playlist name is required")
		return
	}
	public := true
	if req.Public != nil {
		public = *req.Public
	}

	ctx := r.Context()
	session := h.spotify.Session(ctx, token)

	userID := req.UserID
	if userID == "" {
		var err error
		if userID, err = session.CurrentUserID(ctx); err != nil {
			respond.Error(w, h.log, err, failed)
			return
		}
	}

	pl, err := session.CreatePlaylist(ctx, userID, req.Name, req.Description, public)
	if err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}

	h.log.Infow("playlist created", "user_id", userID, "playlist_id", pl.ID)
	respond.OK(w, pl)
}

// --- Add Tracks Handler ---

type AddTracksHandler struct {
	log     *zap.SugaredLogger
	spotify *spotify.Provider
}

func (*AddTracksHandler) Pattern() string { return "/playlists/add-tracks" }
func (*AddTracksHandler) Method() string  { return http.MethodPost }

func NewAddTracksHandler(log *zap.SugaredLogger, spotify *spotify.Provider) *AddTracksHandler {
	return &AddTracksHandler{log: log, spotify: spotify}
}

type AddTracksRequest struct {
	AccessToken string   `json:"access_token"`
	PlaylistID  string   `json:"playlist_id"`
	TrackURIs   []string `json:"track_uris"`
}

type AddTracksResponse struct {
	Success bool `json:"success"`
}

// Add tracks
// @Summary Add tracks to a playlist
// @Accept json
// @Produce json
// @Param body body AddTracksRequest true "Tracks"
// @Success 200 {object} AddTracksResponse
// @Router /playlists/add-tracks [post]
func (h *AddTracksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to add tracks to playlist"

	var req AddTracksRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}
	token := respond.AccessToken(r, req.AccessToken)
	if token == "" || req.PlaylistID == "" || len(req.TrackURIs) == 0 {
		respond.Missing(w, "Missing required parameters")
		return
	}

	if err := h.spotify.Session(r.Context(), token).AddTracks(r.Context(), req.PlaylistID, req.TrackURIs); err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}

	h.log.Infow("tracks added", "playlist_id", req.PlaylistID, "tracks", len(req.TrackURIs))
	respond.OK(w, AddTracksResponse{Success: true})
}
