package tastebud

import (
	"time"

	"github.com/samber/lo"
)

// TokenPair is the credential set handed back to the caller. The server
// never keeps it.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`
}

type TrackSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Popularity  int    `json:"popularity"`
	Image       string `json:"image,omitempty"`
	PreviewURL  string `json:"preview_url,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
	URI         string `json:"uri"`
}

type ArtistSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Genres      []string `json:"genres"`
	Popularity  int      `json:"popularity"`
	Image       string   `json:"image,omitempty"`
	ExternalURL string   `json:"external_url,omitempty"`
}

type RecentTrack struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album"`
	PlayedAt    time.Time `json:"played_at"`
	Image       string    `json:"image,omitempty"`
	PreviewURL  string    `json:"preview_url,omitempty"`
	ExternalURL string    `json:"external_url,omitempty"`
}

type SearchTrack struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	URI    string `json:"uri"`
	Image  string `json:"image,omitempty"`
}

// AvailableTrack is a top track the client can turn into a playlist entry.
type AvailableTrack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Popularity int    `json:"popularity"`
	URI        string `json:"uri"`
}

// Playlist is the result of a playlist creation.
type Playlist struct {
	ID          string `json:"playlist_id"`
	ExternalURL string `json:"external_url"`
}

// AudioFeatures is the subset of per-track audio analysis used to enrich
// listening data. It is keyed by track ID.
type AudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float32 `json:"danceability"`
	Energy           float32 `json:"energy"`
	Valence          float32 `json:"valence"`
	Acousticness     float32 `json:"acousticness"`
	Instrumentalness float32 `json:"instrumentalness"`
	Tempo            float32 `json:"tempo"`
}

// RankedTrack is a top track as presented to the narrative generator.
// Feature fields are nil when no audio features were available.
type RankedTrack struct {
	Rank             int      `json:"rank"`
	Name             string   `json:"name"`
	Artist           string   `json:"artist"`
	Popularity       int      `json:"popularity"`
	Danceability     *float32 `json:"danceability"`
	Energy           *float32 `json:"energy"`
	Valence          *float32 `json:"valence"`
	Acousticness     *float32 `json:"acousticness"`
	Instrumentalness *float32 `json:"instrumentalness"`
	Tempo            *float32 `json:"tempo"`
}

type RankedArtist struct {
	Rank       int      `json:"rank"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
}

// ListeningData is the prompt-shaped summary of a user's listening history.
type ListeningData struct {
	Tracks  []RankedTrack  `json:"tracks"`
	Artists []RankedArtist `json:"artists"`
	Mood    string         `json:"mood,omitempty"`
}

// NewListeningData ranks tracks and artists in the given order and attaches
// audio features to tracks by ID. Zero feature values are treated as missing.
func NewListeningData(tracks []TrackSummary, artists []ArtistSummary, features []AudioFeatures) ListeningData {
	byID := lo.KeyBy(features, func(f AudioFeatures) string { return f.ID })

	data := ListeningData{
		Tracks:  make([]RankedTrack, 0, len(tracks)),
		Artists: make([]RankedArtist, 0, len(artists)),
	}
	for i, t := range tracks {
		rt := RankedTrack{
			Rank:       i + 1,
			Name:       t.Name,
			Artist:     t.Artist,
			Popularity: t.Popularity,
		}
		if f, ok := byID[t.ID]; ok {
			rt.Danceability = nonZero(f.Danceability)
			rt.Energy = nonZero(f.Energy)
			rt.Valence = nonZero(f.Valence)
			rt.Acousticness = nonZero(f.Acousticness)
			rt.Instrumentalness = nonZero(f.Instrumentalness)
			rt.Tempo = nonZero(f.Tempo)
		}
		data.Tracks = append(data.Tracks, rt)
	}
	for i, a := range artists {
		genres := a.Genres
		if genres == nil {
			genres = []string{}
		}
		data.Artists = append(data.Artists, RankedArtist{
			Rank:       i + 1,
			Name:       a.Name,
			Genres:     genres,
			Popularity: a.Popularity,
		})
	}
	return data
}

func nonZero(v float32) *float32 {
	if v == 0 {
		return nil
	}
	return &v
}
