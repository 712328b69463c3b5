package spotify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mager/tastebud/config"
	"github.com/mager/tastebud/logger"
	"github.com/mager/tastebud/tastebud"
	spot "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// userScopes covers every endpoint the relay exposes. user-top-read is the
// one the taste analysis cannot do without.
var userScopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopeUserLibraryRead,
}

// Provider talks to the Spotify accounts service and hands out
// request-scoped sessions for the Web API. It holds no user credentials.
type Provider struct {
	log        *zap.SugaredLogger
	oauth      *oauth2.Config
	accounts   string
	apiURL     string
	httpClient *http.Client
	batchPause time.Duration
}

// New builds a Provider. A nil httpClient means http.DefaultClient.
func New(cfg config.Config, log *zap.SugaredLogger, httpClient *http.Client) *Provider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	accounts := strings.TrimRight(cfg.SpotifyAccountsURL, "/")
	apiURL := cfg.SpotifyAPIURL
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}

	return &Provider{
		log: log,
		oauth: &oauth2.Config{
			ClientID:     cfg.SpotifyID,
			ClientSecret: cfg.SpotifySecret,
			RedirectURL:  cfg.SpotifyRedirectURL,
			Scopes:       userScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   accounts + "/authorize",
				TokenURL:  accounts + "/api/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		accounts:   accounts,
		apiURL:     apiURL,
		httpClient: httpClient,
		batchPause: cfg.BatchPause,
	}
}

func ProvideSpotify(cfg config.Config, log *zap.SugaredLogger) *Provider {
	log.Infow("setting up spotify provider", "redirect_url", cfg.SpotifyRedirectURL)
	return New(cfg, log, nil)
}

var Options = ProvideSpotify

const reachTimeout = 3 * time.Second

// Reachable reports whether the accounts service answers at all. Any HTTP
// response counts; only transport failures make it unreachable.
func (p *Provider) Reachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, reachTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.accounts+"/", nil)
	if err != nil {
		p.log.Debugw("accounts service check failed", "error", err)
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.Debugw("accounts service unreachable", "error", err)
		return false
	}
	resp.Body.Close()
	return true
}

// AuthURL returns the consent URL for the given state. The consent dialog is
// always shown so a user who declined a scope can grant it again.
func (p *Provider) AuthURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// ExchangeCode trades a one-time authorization code for a token pair.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (tastebud.TokenPair, error) {
	p.log.Debugw("exchanging authorization code", "code", logger.Redact(code))

	tok, err := p.oauth.Exchange(p.clientContext(ctx), code)
	if err != nil {
		return tastebud.TokenPair{}, classifyTokenError(err)
	}

	return tastebud.TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn(tok),
	}, nil
}

// Refresh trades a refresh token for a new access token. The returned pair
// carries no refresh token.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (tastebud.TokenPair, error) {
	if refreshToken == "" {
		return tastebud.TokenPair{}, tastebud.Missing("Refresh token is required")
	}

	src := p.oauth.TokenSource(p.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return tastebud.TokenPair{}, classifyTokenError(err)
	}

	return tastebud.TokenPair{
		AccessToken: tok.AccessToken,
		ExpiresIn:   expiresIn(tok),
	}, nil
}

// Validate checks the access token with a profile lookup. Any failure,
// expiry included, reports false.
func (p *Provider) Validate(ctx context.Context, accessToken string) bool {
	if accessToken == "" {
		return false
	}
	if _, err := p.Session(ctx, accessToken).client.CurrentUser(ctx); err != nil {
		p.log.Infow("token validation failed", "error", err)
		return false
	}
	return true
}

// Session returns a Web API session bound to accessToken. Sessions are
// cheap and must not be shared between requests.
func (p *Provider) Session(ctx context.Context, accessToken string) *Session {
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
	httpClient := oauth2.NewClient(p.clientContext(ctx), src)
	httpClient.Transport = errorEnvelope{base: httpClient.Transport}

	return &Session{
		client:     spot.New(httpClient, spot.WithBaseURL(p.apiURL)),
		http:       httpClient,
		apiURL:     p.apiURL,
		batchPause: p.batchPause,
	}
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// expiresIn prefers the lifetime the accounts service reported over one
// derived from the parsed expiry.
func expiresIn(tok *oauth2.Token) int {
	if v, ok := tok.Extra("expires_in").(float64); ok && v > 0 {
		return int(v)
	}
	if tok.Expiry.IsZero() {
		return 0
	}
	return int(time.Until(tok.Expiry).Round(time.Second) / time.Second)
}
