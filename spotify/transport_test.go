package spotify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestErrorEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"keeps upstream message", http.StatusTooManyRequests, `{"error":{"status":0,"message":"API rate limit exceeded"}}`, "API rate limit exceeded"},
		{"html body", http.StatusBadGateway, "<html>bad gateway</html>", "Bad Gateway"},
		{"empty body", http.StatusServiceUnavailable, "", "Service Unavailable"},
		{"token style body", http.StatusBadRequest, `{"error":"invalid_request"}`, "Bad Request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			client := &http.Client{Transport: errorEnvelope{base: srv.Client().Transport}}
			resp, err := client.Get(srv.URL)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			var got struct {
				Error struct {
					Status  int    `json:"status"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatalf("body is not an error envelope: %v", err)
			}
			if resp.StatusCode != tt.status || got.Error.Status != tt.status {
				t.Errorf("status = %d / %d, want %d", resp.StatusCode, got.Error.Status, tt.status)
			}
			if got.Error.Message != tt.message {
				t.Errorf("message = %q, want %q", got.Error.Message, tt.message)
			}
		})
	}
}

func TestErrorEnvelopePassesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"u1"}`)
	}))
	defer srv.Close()

	client := &http.Client{Transport: errorEnvelope{}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil || got["id"] != "u1" {
		t.Errorf("body = %v, err = %v", got, err)
	}
}
