package tastebud

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for translation at the request boundary.
type Kind int

const (
	Unclassified Kind = iota
	// MissingInput means the caller omitted or malformed a required field.
	MissingInput
	// InvalidGrant means the upstream gateway rejected a code, token or
	// session.
	InvalidGrant
	// Forbidden means a required permission scope was not granted.
	Forbidden
	// UpstreamUnavailable covers network failures and 5xx/429 answers from
	// the upstream gateway or the text-generation service.
	UpstreamUnavailable
)

func (k Kind) String() string {
	switch k {
	case MissingInput:
		return "missing_input"
	case InvalidGrant:
		return "invalid_grant"
	case Forbidden:
		return "forbidden"
	case UpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "unclassified"
	}
}

// Error is a classified failure. Status is the upstream HTTP status when one
// was received.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error to the status returned to the caller.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case MissingInput:
		return http.StatusBadRequest
	case InvalidGrant:
		if e.Status == http.StatusUnauthorized {
			return http.StatusUnauthorized
		}
		return http.StatusBadRequest
	case Forbidden:
		return http.StatusForbidden
	case UpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Missing builds a MissingInput error with a caller-facing message.
func Missing(msg string) error {
	return &Error{Kind: MissingInput, Message: msg}
}

// KindOf reports the Kind of err, Unclassified when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unclassified
}

// UpstreamMessage returns the upstream message carried by err, or its
// string form.
func UpstreamMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
