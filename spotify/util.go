package spotify

import (
	"fmt"
	"strings"

	"github.com/mager/tastebud/tastebud"
	spot "github.com/zmb3/spotify/v2"
)

// ConcatArtists returns a comma-separated list of artist names
func ConcatArtists(artists []spot.SimpleArtist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// ParseTrackID accepts a track URI ("spotify:track:<id>") or a bare ID.
func ParseTrackID(uri string) (spot.ID, error) {
	parts := strings.Split(uri, ":")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return spot.ID(parts[0]), nil
	case len(parts) == 3 && parts[0] == "spotify" && parts[1] == "track" && parts[2] != "":
		return spot.ID(parts[2]), nil
	}
	return "", fmt.Errorf("invalid track URI %q", uri)
}

func firstImage(images []spot.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func trackSummary(t spot.FullTrack) tastebud.TrackSummary {
	return tastebud.TrackSummary{
		ID:          string(t.ID),
		Name:        t.Name,
		Artist:      ConcatArtists(t.Artists),
		Album:       t.Album.Name,
		Popularity:  int(t.Popularity),
		Image:       firstImage(t.Album.Images),
		PreviewURL:  t.PreviewURL,
		ExternalURL: t.ExternalURLs["spotify"],
		URI:         string(t.URI),
	}
}

func recentTrack(item spot.RecentlyPlayedItem) tastebud.RecentTrack {
	t := item.Track
	return tastebud.RecentTrack{
		ID:          string(t.ID),
		Name:        t.Name,
		Artist:      ConcatArtists(t.Artists),
		Album:       t.Album.Name,
		PlayedAt:    item.PlayedAt,
		Image:       firstImage(t.Album.Images),
		PreviewURL:  t.PreviewURL,
		ExternalURL: t.ExternalURLs["spotify"],
	}
}

func artistSummary(a spot.FullArtist) tastebud.ArtistSummary {
	genres := a.Genres
	if genres == nil {
		genres = []string{}
	}
	return tastebud.ArtistSummary{
		ID:          string(a.ID),
		Name:        a.Name,
		Genres:      genres,
		Popularity:  int(a.Popularity),
		Image:       firstImage(a.Images),
		ExternalURL: a.ExternalURLs["spotify"],
	}
}

// FeatureSummaries drops nil entries and keeps the fields used for
// narrative enrichment.
func FeatureSummaries(features []*spot.AudioFeatures) []tastebud.AudioFeatures {
	out := make([]tastebud.AudioFeatures, 0, len(features))
	for _, f := range features {
		if f == nil {
			continue
		}
		out = append(out, tastebud.AudioFeatures{
			ID:               string(f.ID),
			Danceability:     f.Danceability,
			Energy:           f.Energy,
			Valence:          f.Valence,
			Acousticness:     f.Acousticness,
			Instrumentalness: f.Instrumentalness,
			Tempo:            f.Tempo,
		})
	}
	return out
}

// TrackIDs returns the IDs of the given tracks in order.
func TrackIDs(tracks []tastebud.TrackSummary) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}
