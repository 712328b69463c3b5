package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TASTEBUD_SPOTIFY_ID", "id")
	t.Setenv("TASTEBUD_SPOTIFY_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.BatchPause != 500*time.Millisecond {
		t.Errorf("BatchPause = %v, want 500ms", cfg.BatchPause)
	}
	if cfg.CodeTTL != 10*time.Minute {
		t.Errorf("CodeTTL = %v, want 10m", cfg.CodeTTL)
	}
	if cfg.HuggingFaceModel != "mistralai/Mistral-7B-Instruct-v0.2" {
		t.Errorf("HuggingFaceModel = %q", cfg.HuggingFaceModel)
	}
	if cfg.SpotifyAPIURL != "https://api.spotify.com/v1/" {
		t.Errorf("SpotifyAPIURL = %q", cfg.SpotifyAPIURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TASTEBUD_SPOTIFY_ID", "id")
	t.Setenv("TASTEBUD_SPOTIFY_SECRET", "secret")
	t.Setenv("TASTEBUD_HUGGINGFACE_API_KEY", "hf")
	t.Setenv("TASTEBUD_CODE_CAPACITY", "3")
	t.Setenv("TASTEBUD_CLIENT_URL", "http://localhost:3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HuggingFaceAPIKey != "hf" {
		t.Errorf("HuggingFaceAPIKey = %q, want hf", cfg.HuggingFaceAPIKey)
	}
	if cfg.CodeCapacity != 3 {
		t.Errorf("CodeCapacity = %d, want 3", cfg.CodeCapacity)
	}
	if cfg.ClientURL != "http://localhost:3000" {
		t.Errorf("ClientURL = %q", cfg.ClientURL)
	}
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv("TASTEBUD_SPOTIFY_ID", "")
	t.Setenv("TASTEBUD_SPOTIFY_SECRET", "")

	_, err := Load()
	if !errors.Is(err, ErrMissingSpotifyCredentials) {
		t.Fatalf("Load() error = %v, want %v", err, ErrMissingSpotifyCredentials)
	}
}
