package narrative

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mager/tastebud/tastebud"
	"github.com/samber/lo"
)

// uniqueGenres lists the artists' genres in order of first appearance.
func uniqueGenres(artists []tastebud.RankedArtist) []string {
	return lo.Uniq(lo.FlatMap(artists, func(a tastebud.RankedArtist, _ int) []string {
		return a.Genres
	}))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func tasteAnalysis(data tastebud.ListeningData, now time.Time) string {
	genres := uniqueGenres(data.Artists)
	genreAt := func(i int, def string) string {
		if i < len(genres) {
			return genres[i]
		}
		return def
	}

	topGenres := "Various genres"
	if len(genres) > 0 {
		topGenres = strings.Join(genres[:min(len(genres), 5)], ", ")
	}

	topArtist, topTrack, topTrackArtist := "Unknown", "Unknown", "Unknown"
	if len(data.Artists) > 0 {
		topArtist = orDefault(data.Artists[0].Name, "Unknown")
	}
	if len(data.Tracks) > 0 {
		topTrack = orDefault(data.Tracks[0].Name, "Unknown")
		topTrackArtist = orDefault(data.Tracks[0].Artist, "Unknown")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Music Taste Analysis\n\n")
	fmt.Fprintf(&b, "## Music Personality\nYou're a diverse listener with an appreciation for %s.\n\n", topGenres)
	fmt.Fprintf(&b, "## Main Genres\nBased on your top artists, you enjoy:\n")
	fmt.Fprintf(&b, "- %s: 35%%\n", genreAt(0, "Pop"))
	fmt.Fprintf(&b, "- %s: 25%%\n", genreAt(1, "Rock"))
	fmt.Fprintf(&b, "- %s: 20%%\n", genreAt(2, "Hip Hop"))
	fmt.Fprintf(&b, "- Other genres: 20%%\n\n")
	fmt.Fprintf(&b, "## Mood Analysis\nYour music selection suggests you enjoy music that's emotionally varied and engaging.\n\n")
	fmt.Fprintf(&b, "## Hidden Gems\nYou have some interesting tracks in your collection that aren't mainstream hits.\n\n")
	fmt.Fprintf(&b, "## Music Receipt\n")
	fmt.Fprintf(&b, "===============================\n")
	fmt.Fprintf(&b, "SPOTIFY MUSIC TASTE RECEIPT\n")
	fmt.Fprintf(&b, "===============================\n")
	fmt.Fprintf(&b, "Date: %s\n", now.Format("1/2/2006"))
	fmt.Fprintf(&b, "Time: %s\n", now.Format("3:04:05 PM"))
	fmt.Fprintf(&b, "-------------------------------\n")
	fmt.Fprintf(&b, "Items:\n")
	fmt.Fprintf(&b, "Favorite Artist: %s\n", topArtist)
	fmt.Fprintf(&b, "Top Track: %s by %s\n", topTrack, topTrackArtist)
	fmt.Fprintf(&b, "Music Variety: %d different artists\n", len(data.Artists))
	fmt.Fprintf(&b, "Unique Genres: %d\n", len(genres))
	fmt.Fprintf(&b, "-------------------------------\n")
	fmt.Fprintf(&b, "Total Emotional Value: Priceless\n")
	fmt.Fprintf(&b, "===============================\n")
	return b.String()
}

// moodPicks are the track positions the local mood playlist draws from.
var moodPicks = []int{0, 2, 5, 7, 10}

func moodPlaylist(data tastebud.ListeningData) string {
	mood := data.Mood
	title := mood
	if mood != "" {
		r, size := utf8.DecodeRuneInString(mood)
		title = string(unicode.ToUpper(r)) + mood[size:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s Playlist\n\n", title)
	fmt.Fprintf(&b, "## Playlist Name: \"%s Vibes\"\n\n", strings.ToUpper(mood))
	fmt.Fprintf(&b, "## Description:\nA personalized playlist crafted to match your %s mood, based on your listening history.\n\n", mood)
	fmt.Fprintf(&b, "## Track Recommendations:\n")
	for i, pick := range moodPicks {
		name, artist := "Unknown track", "Unknown artist"
		if pick < len(data.Tracks) {
			name = orDefault(data.Tracks[pick].Name, name)
			artist = orDefault(data.Tracks[pick].Artist, artist)
		}
		fmt.Fprintf(&b, "%d. \"%s\" by %s\n", i+1, name, artist)
	}
	return b.String()
}
