package llm

import (
	"context"
	"net/http"

	"github.com/mager/tastebud/handler/respond"
	"github.com/mager/tastebud/narrative"
	"github.com/mager/tastebud/spotify"
	"github.com/mager/tastebud/tastebud"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	historyRange   = "medium_term"
	historyTracks  = 50
	historyArtists = 20
	searchLimit    = 5
)

// enrich fetches audio features for tracks. Features are optional here, so
// a failure is logged and the data goes out without them.
func enrich(ctx context.Context, log *zap.SugaredLogger, session *spotify.Session, tracks []tastebud.TrackSummary) []tastebud.AudioFeatures {
	features, err := session.AudioFeatures(ctx, spotify.TrackIDs(tracks))
	if err != nil {
		log.Warnw("continuing without audio features", "error", err)
		return nil
	}
	return spotify.FeatureSummaries(features)
}

// --- Analyze Taste Handler ---

type AnalyzeTasteHandler struct {
	log       *zap.SugaredLogger
	spotify   *spotify.Provider
	narrative *narrative.Generator
}

func (*AnalyzeTasteHandler) Pattern() string { return "/llm/analyze-taste" }
func (*AnalyzeTasteHandler) Method() string  { return http.MethodPost }

func NewAnalyzeTasteHandler(log *zap.SugaredLogger, spotify *spotify.Provider, narrative *narrative.Generator) *AnalyzeTasteHandler {
	return &AnalyzeTasteHandler{log: log, spotify: spotify, narrative: narrative}
}

type AnalyzeTasteRequest struct {
	AccessToken string `json:"access_token"`
}

type AnalyzeTasteResponse struct {
	Analysis string `json:"analysis"`
}

// Analyze taste
// @Summary Describe the user's music taste
// @Accept json
// @Produce json
// @Param body body AnalyzeTasteRequest true "Access token"
// @Success 200 {object} AnalyzeTasteResponse
// @Failure 403 {object} respond.ErrorResponse
// @Router /llm/analyze-taste [post]
func (h *AnalyzeTasteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to analyze music taste"

	var req AnalyzeTasteRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}
	token := respond.AccessToken(r, req.AccessToken)
	if token == "" {
		respond.Missing(w, "Access token is required")
		return
	}

	ctx := r.Context()
	session := h.spotify.Session(ctx, token)

	// A profile lookup first tells an expired session apart from a missing
	// scope on the top-items calls.
	userID, err := session.CurrentUserID(ctx)
	if err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}
	l := h.log.With("user_id", userID)

	tracks, err := session.TopTracks(ctx, historyRange, historyTracks)
	if err != nil {
		respond.Error(w, l, err, failed)
		return
	}
	artists, err := session.TopArtists(ctx, historyRange, historyArtists)
	if err != nil {
		respond.Error(w, l, err, failed)
		return
	}

	data := tastebud.NewListeningData(tracks, artists, enrich(ctx, l, session, tracks))
	l.Infow("analyzing music taste", "tracks", len(tracks), "artists", len(artists))

	respond.OK(w, AnalyzeTasteResponse{
		Analysis: h.narrative.Generate(ctx, narrative.TasteAnalysis, data),
	})
}

// --- Mood Playlist Handler ---

type MoodPlaylistHandler struct {
	log       *zap.SugaredLogger
	spotify   *spotify.Provider
	narrative *narrative.Generator
}

func (*MoodPlaylistHandler) Pattern() string { return "/llm/generate-mood-playlist" }
func (*MoodPlaylistHandler) Method() string  { return http.MethodPost }

func NewMoodPlaylistHandler(log *zap.SugaredLogger, spotify *spotify.Provider, narrative *narrative.Generator) *MoodPlaylistHandler {
	return &MoodPlaylistHandler{log: log, spotify: spotify, narrative: narrative}
}

type MoodPlaylistRequest struct {
	AccessToken string `json:"access_token"`
	Mood        string `json:"mood"`
}

type MoodPlaylistResponse struct {
	Recommendations string                    `json:"recommendations"`
	AvailableTracks []tastebud.AvailableTrack `json:"available_tracks"`
}

// Generate mood playlist
// @Summary Recommend a playlist for a mood
// @Accept json
// @Produce json
// @Param body body MoodPlaylistRequest true "Access token and mood"
// @Success 200 {object} MoodPlaylistResponse
// @Router /llm/generate-mood-playlist [post]
func (h *MoodPlaylistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to generate mood playlist"

	var req MoodPlaylistRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}
	token := respond.AccessToken(r, req.AccessToken)
	if token == "" || req.Mood == "" {
		respond.Missing(w, "Access token and mood are required")
		return
	}

	ctx := r.Context()
	session := h.spotify.Session(ctx, token)

	var (
		tracks  []tastebud.TrackSummary
		artists []tastebud.ArtistSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tracks, err = session.TopTracks(gctx, historyRange, historyTracks)
		return err
	})
	g.Go(func() error {
		var err error
		artists, err = session.TopArtists(gctx, historyRange, historyArtists)
		return err
	})
	if err := g.Wait(); err != nil {
		respond.Error(w, h.log, err, failed)
		return
	}

	data := tastebud.NewListeningData(tracks, artists, enrich(ctx, h.log, session, tracks))
	data.Mood = req.Mood
	h.log.Infow("generating mood playlist", "mood", req.Mood, "tracks", len(tracks))

	respond.OK(w, MoodPlaylistResponse{
		Recommendations: h.narrative.Generate(ctx, narrative.MoodPlaylist, data),
		AvailableTracks: lo.Map(tracks, func(t tastebud.TrackSummary, _ int) tastebud.AvailableTrack {
			return tastebud.AvailableTrack{
				ID:         t.ID,
				Name:       t.Name,
				Artist:     t.Artist,
				Popularity: t.Popularity,
				URI:        t.URI,
			}
		}),
	})
}

// --- Search Tracks Handler ---

type SearchTracksHandler struct {
	log     *zap.SugaredLogger
	spotify *spotify.Provider
}

func (*SearchTracksHandler) Pattern() string { return "/llm/search-tracks" }
func (*SearchTracksHandler) Method() string  { return http.MethodGet }

func NewSearchTracksHandler(log *zap.SugaredLogger, spotify *spotify.Provider) *SearchTracksHandler {
	return &SearchTracksHandler{log: log, spotify: spotify}
}

type SearchTracksResponse struct {
	Tracks []tastebud.SearchTrack `json:"tracks"`
}

// Search tracks
// @Summary Search tracks suggested by a recommendation
// @Produce json
// @Param access_token query string true "Access token"
// @Param query query string true "Search query"
// @Success 200 {object} SearchTracksResponse
// @Router /llm/search-tracks [get]
func (h *SearchTracksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := respond.AccessToken(r, "")
	query := r.URL.Query().Get("query")
	if token == "" || query == "" {
		respond.Missing(w, "Access token and query are required")
		return
	}

	tracks, err := h.spotify.Session(r.Context(), token).SearchTracks(r.Context(), query, searchLimit)
	if err != nil {
		respond.Error(w, h.log, err, "Failed to search tracks")
		return
	}
	respond.OK(w, SearchTracksResponse{Tracks: tracks})
}
