package narrative

import (
	"encoding/json"
	"strings"
	"text/template"

	"github.com/mager/tastebud/tastebud"
)

const (
	promptTracks  = 20
	promptArtists = 10
)

var funcs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.MarshalIndent(v, "", "  ")
		return string(b), err
	},
}

var tastePrompt = template.Must(template.New("taste").Funcs(funcs).Parse(
	`Analyze this Spotify listening data and provide insights about the user's music taste.
Be creative, thoughtful and personalized in your analysis. Structure your response like a receipt with
sections for main genres, mood tendencies, listening patterns, and any interesting observations.

Top Tracks:
{{ json .Tracks }}

Top Artists:
{{ json .Artists }}

Provide your analysis in the following format:
1. Music Personality: A one-line description of their overall music personality
2. Main Genres: List the top genres they listen to with percentages
3. Mood Analysis: Describe the emotional tendency of their music
4. Hidden Gems: Mention any less-popular artists or tracks that stand out
5. Music Receipt: Format the insights like a store receipt with total "emotional value"
`))

var moodPrompt = template.Must(template.New("mood").Funcs(funcs).Parse(
	`Based on this user's listening history and their desired mood/vibe of "{{ .Mood }}",
recommend tracks for a personalized playlist. The recommendations should match both their music taste
and the requested mood.

Top Tracks:
{{ json .Tracks }}

Top Artists:
{{ json .Artists }}

For the mood "{{ .Mood }}", provide:
1. A creative name for the playlist
2. A short description of the playlist's vibe
3. A list of 10-15 specific track recommendations (either from their top tracks or similar tracks)
  - Include artist name and track title for each
  - Briefly explain why each track fits the mood
`))

// renderPrompt fills the kind's template with at most 20 tracks and 10
// artists.
func renderPrompt(kind Kind, data tastebud.ListeningData) (string, error) {
	data.Tracks = data.Tracks[:min(len(data.Tracks), promptTracks)]
	data.Artists = data.Artists[:min(len(data.Artists), promptArtists)]

	tmpl := tastePrompt
	if kind == MoodPlaylist {
		tmpl = moodPrompt
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
