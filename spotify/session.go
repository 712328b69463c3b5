package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mager/tastebud/tastebud"
	"github.com/samber/lo"
	spot "github.com/zmb3/spotify/v2"
)

// Session is the Web API client for one inbound request. It carries the
// caller's access token and nothing else.
type Session struct {
	client     *spot.Client
	http       *http.Client
	apiURL     string
	batchPause time.Duration
}

// TimeRanges lists the accepted top-items windows.
var TimeRanges = []string{"short_term", "medium_term", "long_term"}

func (s *Session) TopTracks(ctx context.Context, timeRange string, limit int) ([]tastebud.TrackSummary, error) {
	page, err := s.client.CurrentUsersTopTracks(ctx, spot.Timerange(spot.Range(timeRange)), spot.Limit(limit))
	if err != nil {
		return nil, classify(err)
	}
	return lo.Map(page.Tracks, func(t spot.FullTrack, _ int) tastebud.TrackSummary {
		return trackSummary(t)
	}), nil
}

func (s *Session) TopArtists(ctx context.Context, timeRange string, limit int) ([]tastebud.ArtistSummary, error) {
	page, err := s.client.CurrentUsersTopArtists(ctx, spot.Timerange(spot.Range(timeRange)), spot.Limit(limit))
	if err != nil {
		return nil, classify(err)
	}
	return lo.Map(page.Artists, func(a spot.FullArtist, _ int) tastebud.ArtistSummary {
		return artistSummary(a)
	}), nil
}

func (s *Session) RecentlyPlayed(ctx context.Context, limit int) ([]tastebud.RecentTrack, error) {
	items, err := s.client.PlayerRecentlyPlayedOpt(ctx, &spot.RecentlyPlayedOptions{Limit: spot.Numeric(limit)})
	if err != nil {
		return nil, classify(err)
	}
	return lo.Map(items, func(item spot.RecentlyPlayedItem, _ int) tastebud.RecentTrack {
		return recentTrack(item)
	}), nil
}

// AudioFeatures fetches features for ids in consecutive batches of
// BatchSize, one call per batch, pausing between calls. The result keeps
// input order; unknown ids yield nil entries. The first failing batch fails
// the whole fetch.
func (s *Session) AudioFeatures(ctx context.Context, ids []string) ([]*spot.AudioFeatures, error) {
	features := make([]*spot.AudioFeatures, 0, len(ids))
	err := inBatches(ctx, ids, s.batchPause, func(ctx context.Context, batch []string) error {
		got, err := s.client.GetAudioFeatures(ctx, lo.Map(batch, func(id string, _ int) spot.ID {
			return spot.ID(id)
		})...)
		if err != nil {
			return err
		}
		features = append(features, got...)
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return features, nil
}

// Profile returns the current user's profile exactly as the Web API sent it.
func (s *Session) Profile(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := s.getJSON(ctx, "me", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *Session) CurrentUserID(ctx context.Context) (string, error) {
	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return "", classify(err)
	}
	return user.ID, nil
}

func (s *Session) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (tastebud.Playlist, error) {
	pl, err := s.client.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return tastebud.Playlist{}, classify(err)
	}
	return tastebud.Playlist{
		ID:          string(pl.ID),
		ExternalURL: pl.ExternalURLs["spotify"],
	}, nil
}

// AddTracks appends tracks to a playlist in batches of BatchSize. Batches
// run in order and the first failure aborts the rest; earlier batches are
// not rolled back.
func (s *Session) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	ids := make([]spot.ID, 0, len(uris))
	for _, uri := range uris {
		id, err := ParseTrackID(uri)
		if err != nil {
			return &tastebud.Error{Kind: tastebud.MissingInput, Message: err.Error()}
		}
		ids = append(ids, id)
	}

	batches := (len(ids) + BatchSize - 1) / BatchSize
	n := 0
	err := inBatches(ctx, ids, s.batchPause, func(ctx context.Context, batch []spot.ID) error {
		n++
		if _, err := s.client.AddTracksToPlaylist(ctx, spot.ID(playlistID), batch...); err != nil {
			return fmt.Errorf("add tracks batch %d of %d: %w", n, batches, err)
		}
		return nil
	})
	return classify(err)
}

func (s *Session) SearchTracks(ctx context.Context, query string, limit int) ([]tastebud.SearchTrack, error) {
	res, err := s.client.Search(ctx, query, spot.SearchTypeTrack, spot.Limit(limit))
	if err != nil {
		return nil, classify(err)
	}
	if res.Tracks == nil {
		return []tastebud.SearchTrack{}, nil
	}
	return lo.Map(res.Tracks.Tracks, func(t spot.FullTrack, _ int) tastebud.SearchTrack {
		return tastebud.SearchTrack{
			ID:     string(t.ID),
			Name:   t.Name,
			Artist: ConcatArtists(t.Artists),
			Album:  t.Album.Name,
			URI:    string(t.URI),
			Image:  firstImage(t.Album.Images),
		}
	}), nil
}

// getJSON performs an authenticated GET for endpoints whose payload is
// passed through or not covered by the typed client.
func (s *Session) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+path, nil)
	if err != nil {
		return classify(err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classify(decodeAPIError(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return classify(fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}

// decodeAPIError reads the Web API error envelope. The HTTP status wins over
// the one in the body.
func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var envelope struct {
		Error spot.Error `json:"error"`
	}
	_ = json.Unmarshal(body, &envelope)

	e := envelope.Error
	e.Status = resp.StatusCode
	if e.Message == "" {
		e.Message = fmt.Sprintf("unexpected HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return e
}
