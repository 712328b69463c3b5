package spotify

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/mager/tastebud/tastebud"
	spot "github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// classify turns a Web API or transport error into a *tastebud.Error.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var te *tastebud.Error
	if errors.As(err, &te) {
		return err
	}

	if status, msg, ok := apiStatus(err); ok {
		e := &tastebud.Error{Status: status, Message: msg, Err: err}
		switch {
		case status == http.StatusUnauthorized:
			e.Kind = tastebud.InvalidGrant
		case status == http.StatusForbidden:
			e.Kind = tastebud.Forbidden
		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			e.Kind = tastebud.UpstreamUnavailable
		default:
			e.Kind = tastebud.Unclassified
		}
		return e
	}

	if isTransport(err) {
		return &tastebud.Error{Kind: tastebud.UpstreamUnavailable, Err: err}
	}
	return &tastebud.Error{Kind: tastebud.Unclassified, Err: err}
}

// classifyTokenError classifies accounts service failures. Any 4xx is a
// rejected grant.
func classifyTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		msg := re.ErrorDescription
		if msg == "" {
			msg = re.ErrorCode
		}
		if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
			return &tastebud.Error{Kind: tastebud.UpstreamUnavailable, Status: status, Message: msg, Err: err}
		}
		return &tastebud.Error{Kind: tastebud.InvalidGrant, Status: status, Message: msg, Err: err}
	}

	if isTransport(err) {
		return &tastebud.Error{Kind: tastebud.UpstreamUnavailable, Err: err}
	}
	return &tastebud.Error{Kind: tastebud.Unclassified, Err: err}
}

// apiStatus extracts the HTTP status from a Web API error. A zero status is
// treated as unknown rather than as a client error.
func apiStatus(err error) (int, string, bool) {
	var v spot.Error
	if errors.As(err, &v) && v.Status != 0 {
		return v.Status, v.Message, true
	}
	var p *spot.Error
	if errors.As(err, &p) && p != nil && p.Status != 0 {
		return p.Status, p.Message, true
	}
	return 0, "", false
}

func isTransport(err error) bool {
	var ue *url.Error
	var ne net.Error
	return errors.As(err, &ue) ||
		errors.As(err, &ne) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
