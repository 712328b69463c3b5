package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port     string `default:"8080"`
	LogLevel string `split_words:"true" default:"info"`

	SpotifyID          string `split_words:"true"`
	SpotifySecret      string `split_words:"true"`
	SpotifyRedirectURL string `split_words:"true" default:"http://localhost:3000/callback"`
	SpotifyAPIURL      string `envconfig:"SPOTIFY_API_URL" default:"https://api.spotify.com/v1/"`
	SpotifyAccountsURL string `envconfig:"SPOTIFY_ACCOUNTS_URL" default:"https://accounts.spotify.com"`

	// ClientURL is the frontend origin, used for CORS and for redirecting
	// replayed authorization codes.
	ClientURL string `split_words:"true"`

	HuggingFaceAPIKey string `envconfig:"HUGGINGFACE_API_KEY"`
	HuggingFaceModel  string `envconfig:"HUGGINGFACE_MODEL" default:"mistralai/Mistral-7B-Instruct-v0.2"`
	HuggingFaceURL    string `envconfig:"HUGGINGFACE_URL" default:"https://api-inference.huggingface.co"`

	CodeTTL      time.Duration `split_words:"true" default:"10m"`
	CodeCapacity int           `split_words:"true" default:"10000"`
	BatchPause   time.Duration `split_words:"true" default:"500ms"`
}

var ErrMissingSpotifyCredentials = errors.New("TASTEBUD_SPOTIFY_ID and TASTEBUD_SPOTIFY_SECRET are required")

// Load reads TASTEBUD_* variables, after loading a .env file if one exists.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	var cfg Config
	if err := envconfig.Process("tastebud", &cfg); err != nil {
		return Config{}, err
	}
	if cfg.SpotifyID == "" || cfg.SpotifySecret == "" {
		return Config{}, ErrMissingSpotifyCredentials
	}
	return cfg, nil
}

func ProvideConfig() (Config, error) {
	return Load()
}

var Options = ProvideConfig
