package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mager/tastebud/config"
	"github.com/mager/tastebud/logger"
	"github.com/mager/tastebud/tastebud"
)

func newTestProvider(t *testing.T, mux *http.ServeMux) *Provider {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	log, _ := logger.NewTestLogger()
	return New(config.Config{
		SpotifyID:          "client-id",
		SpotifySecret:      "client-secret",
		SpotifyRedirectURL: "http://localhost:3000/callback",
		SpotifyAPIURL:      srv.URL + "/v1/",
		SpotifyAccountsURL: srv.URL,
	}, log, srv.Client())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func apiError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"status": status, "message": msg},
	})
}

func TestAuthURL(t *testing.T) {
	p := newTestProvider(t, http.NewServeMux())

	u, err := url.Parse(p.AuthURL("state-1"))
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()

	if !strings.HasSuffix(u.Path, "/authorize") {
		t.Errorf("path = %q, want /authorize", u.Path)
	}
	if q.Get("state") != "state-1" {
		t.Errorf("state = %q", q.Get("state"))
	}
	if q.Get("show_dialog") != "true" {
		t.Errorf("show_dialog = %q, want true", q.Get("show_dialog"))
	}
	if !strings.Contains(q.Get("scope"), "user-top-read") {
		t.Errorf("scope %q is missing user-top-read", q.Get("scope"))
	}
	if q.Get("redirect_uri") != "http://localhost:3000/callback" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
}

func TestExchangeCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.Form.Get("grant_type") != "authorization_code" || r.Form.Get("code") != "good-code" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":             "invalid_grant",
				"error_description": "Invalid authorization code",
			})
			return
		}
		if id, secret, ok := r.BasicAuth(); !ok || id != "client-id" || secret != "client-secret" {
			t.Errorf("client credentials not sent in header")
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "access-1",
			"token_type":    "Bearer",
			"refresh_token": "refresh-1",
			"expires_in":    3600,
		})
	})
	p := newTestProvider(t, mux)

	pair, err := p.ExchangeCode(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}
	want := tastebud.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresIn: 3600}
	if pair != want {
		t.Errorf("ExchangeCode() = %+v, want %+v", pair, want)
	}

	_, err = p.ExchangeCode(context.Background(), "used-code")
	if tastebud.KindOf(err) != tastebud.InvalidGrant {
		t.Fatalf("kind = %v, want invalid_grant (err %v)", tastebud.KindOf(err), err)
	}
	if msg := tastebud.UpstreamMessage(err); msg != "Invalid authorization code" {
		t.Errorf("message = %q", msg)
	}
}

func TestExchangeCodeUpstreamDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	p := newTestProvider(t, mux)

	_, err := p.ExchangeCode(context.Background(), "code")
	if tastebud.KindOf(err) != tastebud.UpstreamUnavailable {
		t.Fatalf("kind = %v, want upstream_unavailable (err %v)", tastebud.KindOf(err), err)
	}
}

func TestRefresh(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("grant_type") != "refresh_token" || r.Form.Get("refresh_token") != "refresh-1" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "access-2",
			"token_type":   "Bearer",
			"expires_in":   1800,
		})
	})
	p := newTestProvider(t, mux)

	pair, err := p.Refresh(context.Background(), "refresh-1")
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if pair.AccessToken != "access-2" || pair.ExpiresIn != 1800 || pair.RefreshToken != "" {
		t.Errorf("Refresh() = %+v", pair)
	}

	if _, err := p.Refresh(context.Background(), "revoked"); tastebud.KindOf(err) != tastebud.InvalidGrant {
		t.Errorf("kind = %v, want invalid_grant", tastebud.KindOf(err))
	}
	if _, err := p.Refresh(context.Background(), ""); tastebud.KindOf(err) != tastebud.MissingInput {
		t.Errorf("kind = %v, want missing_input", tastebud.KindOf(err))
	}
}

func TestReachable(t *testing.T) {
	var method atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		method.Store(r.Method)
		w.WriteHeader(http.StatusNotFound)
	})
	p := newTestProvider(t, mux)

	if !p.Reachable(context.Background()) {
		t.Error("Reachable() = false, want true for any HTTP answer")
	}
	if got := method.Load(); got != http.MethodHead {
		t.Errorf("method = %v, want HEAD", got)
	}

	srv := httptest.NewServer(mux)
	srv.Close()
	log, _ := logger.NewTestLogger()
	down := New(config.Config{SpotifyAccountsURL: srv.URL, SpotifyAPIURL: srv.URL}, log, nil)
	if down.Reachable(context.Background()) {
		t.Error("Reachable() = true for a closed server")
	}
}

func TestValidate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer live" {
			apiError(w, http.StatusUnauthorized, "The access token expired")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": "u1"})
	})
	p := newTestProvider(t, mux)

	if !p.Validate(context.Background(), "live") {
		t.Error("live token should validate")
	}
	if p.Validate(context.Background(), "expired") {
		t.Error("expired token should not validate")
	}
	if p.Validate(context.Background(), "") {
		t.Error("empty token should not validate")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		writeJSON(w, http.StatusOK, map[string]string{"id": "user-" + token})
	})
	p := newTestProvider(t, mux)
	ctx := context.Background()

	a := p.Session(ctx, "a")
	b := p.Session(ctx, "b")

	idB, err := b.CurrentUserID(ctx)
	if err != nil {
		t.Fatal(err)
	}
	idA, err := a.CurrentUserID(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if idA != "user-a" || idB != "user-b" {
		t.Errorf("got %q and %q, want user-a and user-b", idA, idB)
	}
}

func TestTopTracks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me/top/tracks", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("time_range"); got != "short_term" {
			t.Errorf("time_range = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "2" {
			t.Errorf("limit = %q", got)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{
				{
					"id": "t1", "name": "First", "popularity": 80, "uri": "spotify:track:t1",
					"preview_url":   "https://p/t1",
					"external_urls": map[string]string{"spotify": "https://open.spotify.com/track/t1"},
					"artists":       []map[string]string{{"name": "A"}, {"name": "B"}},
					"album": map[string]any{
						"name":   "Album",
						"images": []map[string]any{{"url": "https://i/1", "height": 640, "width": 640}},
					},
				},
				{"id": "t2", "name": "Second", "popularity": 10, "artists": []map[string]string{}},
			},
		})
	})
	p := newTestProvider(t, mux)

	tracks, err := p.Session(context.Background(), "tok").TopTracks(context.Background(), "short_term", 2)
	if err != nil {
		t.Fatalf("TopTracks() error = %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("len = %d, want 2", len(tracks))
	}
	want := tastebud.TrackSummary{
		ID: "t1", Name: "First", Artist: "A, B", Album: "Album", Popularity: 80,
		Image: "https://i/1", PreviewURL: "https://p/t1",
		ExternalURL: "https://open.spotify.com/track/t1", URI: "spotify:track:t1",
	}
	if tracks[0] != want {
		t.Errorf("tracks[0] = %+v, want %+v", tracks[0], want)
	}
	if tracks[1].ID != "t2" || tracks[1].Image != "" {
		t.Errorf("tracks[1] = %+v", tracks[1])
	}
}

func TestTopArtistsForbidden(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me/top/artists", func(w http.ResponseWriter, r *http.Request) {
		apiError(w, http.StatusForbidden, "Insufficient client scope")
	})
	p := newTestProvider(t, mux)

	_, err := p.Session(context.Background(), "tok").TopArtists(context.Background(), "medium_term", 20)
	if tastebud.KindOf(err) != tastebud.Forbidden {
		t.Fatalf("kind = %v, want forbidden (err %v)", tastebud.KindOf(err), err)
	}
	if msg := tastebud.UpstreamMessage(err); msg != "Insufficient client scope" {
		t.Errorf("message = %q", msg)
	}
}

func TestUpstreamFailuresWithoutErrorBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		call   func(context.Context, *Session) error
		kind   tastebud.Kind
	}{
		{
			name:   "html bad gateway",
			status: http.StatusBadGateway,
			body:   "<html><body>502 Bad Gateway</body></html>",
			call: func(ctx context.Context, s *Session) error {
				_, err := s.TopTracks(ctx, "medium_term", 20)
				return err
			},
			kind: tastebud.UpstreamUnavailable,
		},
		{
			name:   "empty service unavailable",
			status: http.StatusServiceUnavailable,
			call: func(ctx context.Context, s *Session) error {
				_, err := s.TopArtists(ctx, "medium_term", 20)
				return err
			},
			kind: tastebud.UpstreamUnavailable,
		},
		{
			name:   "empty unauthorized",
			status: http.StatusUnauthorized,
			call: func(ctx context.Context, s *Session) error {
				_, err := s.CurrentUserID(ctx)
				return err
			},
			kind: tastebud.InvalidGrant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/v1/", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			p := newTestProvider(t, mux)

			err := tt.call(context.Background(), p.Session(context.Background(), "tok"))
			if tastebud.KindOf(err) != tt.kind {
				t.Fatalf("kind = %v, want %v (err %v)", tastebud.KindOf(err), tt.kind, err)
			}
			var te *tastebud.Error
			if !errors.As(err, &te) || te.Status != tt.status {
				t.Errorf("upstream status = %v, want %d", te, tt.status)
			}
			if msg := tastebud.UpstreamMessage(err); strings.Contains(msg, "<html>") {
				t.Errorf("message leaks upstream body: %q", msg)
			}
		})
	}
}

func TestRecentlyPlayed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me/player/recently-played", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[{"played_at":"2024-05-01T10:00:00Z","track":{"id":"r1","name":"Recent",
			"artists":[{"name":"X"}],"album":{"name":"Alb","images":[{"url":"https://i/r1"}]},
			"preview_url":"https://p/r1","external_urls":{"spotify":"https://open.spotify.com/track/r1"}}}]}`)
	})
	p := newTestProvider(t, mux)

	tracks, err := p.Session(context.Background(), "tok").RecentlyPlayed(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentlyPlayed() error = %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("len = %d, want 1", len(tracks))
	}
	got := tracks[0]
	if got.ID != "r1" || got.Artist != "X" || got.Album != "Alb" || got.Image != "https://i/r1" {
		t.Errorf("track = %+v", got)
	}
	if got.PlayedAt.Year() != 2024 {
		t.Errorf("PlayedAt = %v", got.PlayedAt)
	}
	if got.PreviewURL != "https://p/r1" || got.ExternalURL != "https://open.spotify.com/track/r1" {
		t.Errorf("urls = %q %q", got.PreviewURL, got.ExternalURL)
	}
}

func audioFeaturesHandler(calls *atomic.Int32, failOn int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == failOn {
			apiError(w, http.StatusInternalServerError, "boom")
			return
		}
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		features := make([]map[string]any, len(ids))
		for i, id := range ids {
			features[i] = map[string]any{"id": id, "energy": 0.5}
		}
		writeJSON(w, http.StatusOK, map[string]any{"audio_features": features})
	}
}

func TestAudioFeaturesBatches(t *testing.T) {
	for _, n := range []int{0, 1, 100, 101, 250} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			var calls atomic.Int32
			mux := http.NewServeMux()
			mux.HandleFunc("/v1/audio-features", audioFeaturesHandler(&calls, -1))
			p := newTestProvider(t, mux)

			ids := make([]string, n)
			for i := range ids {
				ids[i] = fmt.Sprintf("id%03d", i)
			}

			features, err := p.Session(context.Background(), "tok").AudioFeatures(context.Background(), ids)
			if err != nil {
				t.Fatalf("AudioFeatures() error = %v", err)
			}

			wantCalls := (n + BatchSize - 1) / BatchSize
			if int(calls.Load()) != wantCalls {
				t.Errorf("calls = %d, want %d", calls.Load(), wantCalls)
			}
			if len(features) != n {
				t.Fatalf("len = %d, want %d", len(features), n)
			}
			for i, f := range features {
				if string(f.ID) != ids[i] {
					t.Fatalf("features[%d].ID = %q, want %q", i, f.ID, ids[i])
				}
			}
		})
	}
}

func TestAudioFeaturesBatchFailure(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audio-features", audioFeaturesHandler(&calls, 2))
	p := newTestProvider(t, mux)

	ids := make([]string, 300)
	for i := range ids {
		ids[i] = fmt.Sprint(i)
	}

	_, err := p.Session(context.Background(), "tok").AudioFeatures(context.Background(), ids)
	if tastebud.KindOf(err) != tastebud.UpstreamUnavailable {
		t.Fatalf("kind = %v, want upstream_unavailable (err %v)", tastebud.KindOf(err), err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestProfilePassthrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"u1","display_name":"User","product":"premium","custom":{"x":1}}`)
	})
	p := newTestProvider(t, mux)

	raw, err := p.Session(context.Background(), "tok").Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got["product"] != "premium" || got["custom"] == nil {
		t.Errorf("profile = %v", got)
	}
}

func TestProfileUnauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me", func(w http.ResponseWriter, r *http.Request) {
		apiError(w, http.StatusUnauthorized, "Invalid access token")
	})
	p := newTestProvider(t, mux)

	_, err := p.Session(context.Background(), "tok").Profile(context.Background())
	var te *tastebud.Error
	if tastebud.KindOf(err) != tastebud.InvalidGrant {
		t.Fatalf("kind = %v, want invalid_grant", tastebud.KindOf(err))
	}
	if !errors.As(err, &te) || te.HTTPStatus() != http.StatusUnauthorized {
		t.Errorf("status = %v, want 401", te)
	}
}

func TestCreatePlaylist(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/users/u1/playlists", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "Test" || body["public"] != true {
			t.Errorf("body = %v", body)
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":            "p1",
			"name":          "Test",
			"external_urls": map[string]string{"spotify": "https://open.spotify.com/playlist/p1"},
		})
	})
	p := newTestProvider(t, mux)

	pl, err := p.Session(context.Background(), "tok").CreatePlaylist(context.Background(), "u1", "Test", "", true)
	if err != nil {
		t.Fatalf("CreatePlaylist() error = %v", err)
	}
	want := tastebud.Playlist{ID: "p1", ExternalURL: "https://open.spotify.com/playlist/p1"}
	if pl != want {
		t.Errorf("CreatePlaylist() = %+v, want %+v", pl, want)
	}
}

func TestAddTracks(t *testing.T) {
	var calls atomic.Int32
	var added atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playlists/p1/tracks", func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		var body struct {
			URIs []string `json:"uris"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.URIs) > BatchSize {
			t.Errorf("batch of %d exceeds %d", len(body.URIs), BatchSize)
		}
		if n == 1 && body.URIs[0] != "spotify:track:t0" {
			t.Errorf("first uri = %q", body.URIs[0])
		}
		added.Add(int32(len(body.URIs)))
		writeJSON(w, http.StatusCreated, map[string]string{"snapshot_id": "s"})
	})
	p := newTestProvider(t, mux)

	uris := make([]string, 205)
	for i := range uris {
		uris[i] = fmt.Sprintf("spotify:track:t%d", i)
	}
	if err := p.Session(context.Background(), "tok").AddTracks(context.Background(), "p1", uris); err != nil {
		t.Fatalf("AddTracks() error = %v", err)
	}
	if calls.Load() != 3 || added.Load() != 205 {
		t.Errorf("calls = %d, added = %d; want 3 and 205", calls.Load(), added.Load())
	}
}

func TestAddTracksAbortsOnFailure(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playlists/p1/tracks", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			apiError(w, http.StatusForbidden, "You cannot add tracks to a playlist you don't own.")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"snapshot_id": "s"})
	})
	p := newTestProvider(t, mux)

	uris := make([]string, 300)
	for i := range uris {
		uris[i] = fmt.Sprintf("spotify:track:t%d", i)
	}
	err := p.Session(context.Background(), "tok").AddTracks(context.Background(), "p1", uris)
	if tastebud.KindOf(err) != tastebud.Forbidden {
		t.Fatalf("kind = %v, want forbidden (err %v)", tastebud.KindOf(err), err)
	}
	if !strings.Contains(err.Error(), "batch 2 of 3") {
		t.Errorf("error %q does not name the failing batch", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestAddTracksInvalidURI(t *testing.T) {
	p := newTestProvider(t, http.NewServeMux())

	err := p.Session(context.Background(), "tok").AddTracks(context.Background(), "p1", []string{"spotify:album:x"})
	if tastebud.KindOf(err) != tastebud.MissingInput {
		t.Fatalf("kind = %v, want missing_input", tastebud.KindOf(err))
	}
}

func TestSearchTracks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "daft punk" || q.Get("type") != "track" || q.Get("limit") != "5" {
			t.Errorf("query = %v", q)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"tracks": map[string]any{
				"items": []map[string]any{{
					"id": "s1", "name": "One More Time", "uri": "spotify:track:s1",
					"artists": []map[string]string{{"name": "Daft Punk"}},
					"album":   map[string]any{"name": "Discovery", "images": []map[string]any{{"url": "https://i/s1"}}},
				}},
			},
		})
	})
	p := newTestProvider(t, mux)

	tracks, err := p.Session(context.Background(), "tok").SearchTracks(context.Background(), "daft punk", 5)
	if err != nil {
		t.Fatalf("SearchTracks() error = %v", err)
	}
	want := tastebud.SearchTrack{ID: "s1", Name: "One More Time", Artist: "Daft Punk", Album: "Discovery", URI: "spotify:track:s1", Image: "https://i/s1"}
	if len(tracks) != 1 || tracks[0] != want {
		t.Errorf("SearchTracks() = %+v, want [%+v]", tracks, want)
	}
}

func TestParseTrackID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"spotify:track:abc", "abc", false},
		{"abc", "abc", false},
		{"spotify:episode:abc", "", true},
		{"spotify:track:", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTrackID(tt.in)
		if (err != nil) != tt.wantErr || string(got) != tt.want {
			t.Errorf("ParseTrackID(%q) = %q, %v", tt.in, got, err)
		}
	}
}

