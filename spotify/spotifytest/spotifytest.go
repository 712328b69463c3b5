// Package spotifytest runs a fake Spotify accounts service and Web API for
// handler tests.
package spotifytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mager/tastebud/config"
	"github.com/mager/tastebud/logger"
	"github.com/mager/tastebud/spotify"
)

// Config returns a configuration pointing every Spotify URL at srv.
func Config(srv *httptest.Server) config.Config {
	return config.Config{
		SpotifyID:          "client-id",
		SpotifySecret:      "client-secret",
		SpotifyRedirectURL: "http://localhost:3000/callback",
		SpotifyAPIURL:      srv.URL + "/v1/",
		SpotifyAccountsURL: srv.URL,
		CodeCapacity:       100,
	}
}

// New starts a server for mux, where Web API routes live under /v1/ and the
// token endpoint at /api/token, and returns a Provider wired to it.
func New(t *testing.T, mux *http.ServeMux) *spotify.Provider {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	log, _ := logger.NewTestLogger()
	return spotify.New(Config(srv), log, srv.Client())
}

func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Error writes a Web API error envelope.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]any{
		"error": map[string]any{"status": status, "message": msg},
	})
}

// Track builds a minimal Web API track object.
func Track(id, name, artist string, popularity int) map[string]any {
	return map[string]any{
		"id":         id,
		"name":       name,
		"uri":        "spotify:track:" + id,
		"popularity": popularity,
		"artists":    []map[string]string{{"name": artist}},
		"album":      map[string]any{"name": name + " LP", "images": []map[string]any{}},
	}
}

// Artist builds a minimal Web API artist object.
func Artist(id, name string, genres ...string) map[string]any {
	return map[string]any{
		"id":         id,
		"name":       name,
		"genres":     genres,
		"popularity": 50,
		"images":     []map[string]any{},
	}
}

// Items wraps objects in a paging envelope.
func Items(items ...map[string]any) map[string]any {
	return map[string]any{"items": items}
}
