package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mager/tastebud/codeguard"
	"github.com/mager/tastebud/config"
	"github.com/mager/tastebud/handler/respond"
	"github.com/mager/tastebud/logger"
	"github.com/mager/tastebud/spotify"
	"go.uber.org/zap"
)

// --- Login Handler ---

// LoginHandler hands out the Spotify consent URL.
type LoginHandler struct {
	log     *zap.SugaredLogger
	spotify *spotify.Provider
}

func (*LoginHandler) Pattern() string { return "/login" }
func (*LoginHandler) Method() string  { return http.MethodGet }

func NewLoginHandler(log *zap.SugaredLogger, spotify *spotify.Provider) *LoginHandler {
	return &LoginHandler{log: log, spotify: spotify}
}

type LoginResponse struct {
	URL string `json:"url"`
}

// Login URL
// @Summary Get the Spotify login URL
// @Produce json
// @Success 200 {object} LoginResponse
// @Router /login [get]
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	h.log.Infow("issuing login url", "state", state)
	respond.OK(w, LoginResponse{URL: h.spotify.AuthURL(state)})
}

// --- Callback Handler ---

// CallbackHandler exchanges a one-time authorization code for tokens. Each
// code is exchanged at most once per process.
type CallbackHandler struct {
	log       *zap.SugaredLogger
	spotify   *spotify.Provider
	guard     *codeguard.Guard
	clientURL string
}

func (*CallbackHandler) Pattern() string { return "/callback" }
func (*CallbackHandler) Method() string  { return http.MethodGet }

func NewCallbackHandler(
	log *zap.SugaredLogger,
	cfg config.Config,
	spotify *spotify.Provider,
	guard *codeguard.Guard,
) *CallbackHandler {
	return &CallbackHandler{
		log:       log,
		spotify:   spotify,
		guard:     guard,
		clientURL: strings.TrimRight(cfg.ClientURL, "/"),
	}
}

// Auth callback
// @Summary Exchange an authorization code for tokens
// @Produce json
// @Param code query string true "Authorization code"
// @Success 200 {object} tastebud.TokenPair
// @Failure 400 {object} respond.ErrorResponse
// @Router /callback [get]
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		respond.Missing(w, "Authorization code is required")
		return
	}

	l := h.log.With("code", logger.Redact(code))

	if !h.guard.Admit(code) {
		l.Infow("preventing duplicate auth code usage")
		if h.clientURL != "" {
			http.Redirect(w, r, h.clientURL+"/login?error=code_already_used", http.StatusFound)
			return
		}
		respond.Missing(w, "code_already_used")
		return
	}

	pair, err := h.spotify.ExchangeCode(r.Context(), code)
	if err != nil {
		respond.Error(w, l, err, "Failed to exchange code for tokens")
		return
	}

	l.Infow("authorization code exchanged")
	respond.OK(w, pair)
}

// --- Refresh Handler ---

type RefreshHandler struct {
	log     *zap.SugaredLogger
	spotify *spotify.Provider
}

func (*RefreshHandler) Pattern() string { return "/refresh" }
func (*RefreshHandler) Method() string  { return http.MethodPost }

func NewRefreshHandler(log *zap.SugaredLogger, spotify *spotify.Provider) *RefreshHandler {
	return &RefreshHandler{log: log, spotify: spotify}
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh token
// @Summary Trade a refresh token for a new access token
// @Accept json
// @Produce json
// @Param body body RefreshRequest true "Refresh token"
// @Success 200 {object} tastebud.TokenPair
// @Router /refresh [post]
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err, "Failed to refresh token")
		return
	}

	pair, err := h.spotify.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respond.Error(w, h.log, err, "Failed to refresh token")
		return
	}
	respond.OK(w, pair)
}

// --- Validate Token Handler ---

type ValidateTokenHandler struct {
	log     *zap.SugaredLogger
	spotify *spotify.Provider
}

func (*ValidateTokenHandler) Pattern() string { return "/validate-token" }
func (*ValidateTokenHandler) Method() string  { return http.MethodGet }

func NewValidateTokenHandler(log *zap.SugaredLogger, spotify *spotify.Provider) *ValidateTokenHandler {
	return &ValidateTokenHandler{log: log, spotify: spotify}
}

type ValidateTokenResponse struct {
	Valid bool `json:"valid"`
}

// Validate token
// @Summary Check whether an access token is still accepted
// @Produce json
// @Param access_token query string false "Access token"
// @Success 200 {object} ValidateTokenResponse
// @Router /validate-token [get]
func (h *ValidateTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := respond.AccessToken(r, "")
	respond.OK(w, ValidateTokenResponse{Valid: h.spotify.Validate(r.Context(), token)})
}
