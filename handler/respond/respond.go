// Package respond writes JSON bodies and translates classified errors into
// the relay's error envelope.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/mager/tastebud/tastebud"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message,omitempty"`
	Details  string `json:"details,omitempty"`
	Solution string `json:"solution,omitempty"`
}

const (
	scopeDetails  = `This likely means the required "user-top-read" permission was not granted.`
	scopeSolution = "Please log out and log in again, making sure to accept ALL permissions requested."
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, v any) {
	JSON(w, http.StatusOK, v)
}

// Error writes err as an ErrorResponse. summary names the failed operation,
// e.g. "Failed to fetch top tracks", and is used for every kind that has no
// dedicated wording.
func Error(w http.ResponseWriter, log *zap.SugaredLogger, err error, summary string) {
	var te *tastebud.Error
	if !errors.As(err, &te) {
		te = &tastebud.Error{Kind: tastebud.Unclassified, Err: err}
	}
	status := te.HTTPStatus()

	var resp ErrorResponse
	switch {
	case te.Kind == tastebud.MissingInput:
		resp.Error = te.Message
	case te.Kind == tastebud.Forbidden:
		resp = ErrorResponse{
			Error:    "Permission denied by Spotify API",
			Details:  scopeDetails,
			Message:  orDefault(te.Message, "No details provided"),
			Solution: scopeSolution,
		}
	case status == http.StatusUnauthorized:
		resp = ErrorResponse{
			Error:    "Authentication failed",
			Details:  "Your Spotify session has expired",
			Solution: "Please log in again",
		}
	default:
		resp = ErrorResponse{
			Error:   summary,
			Message: orDefault(tastebud.UpstreamMessage(err), "Unknown error"),
		}
	}

	if status >= http.StatusInternalServerError {
		log.Errorw(summary, "kind", te.Kind, "error", err)
	} else {
		log.Infow(summary, "kind", te.Kind, "status", status, "error", err)
	}
	JSON(w, status, resp)
}

// Missing writes a 400 for an absent or malformed input.
func Missing(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
}

// Decode reads a JSON request body into v. An empty body leaves v untouched.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return &tastebud.Error{Kind: tastebud.MissingInput, Message: "Request body must be valid JSON", Err: err}
}

// AccessToken picks the caller's token from the decoded body, the query
// string or an Authorization: Bearer header, in that order.
func AccessToken(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if t := r.URL.Query().Get("access_token"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
