package spotify

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"
)

// errorEnvelope rewrites every failed Web API response into
// {"error":{"status":N,"message":...}} carrying the real HTTP status, so the
// typed client always surfaces a spot.Error. Gateway HTML and empty bodies
// are replaced by the status text.
type errorEnvelope struct {
	base http.RoundTripper
}

func (t errorEnvelope) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()

	msg := ""
	if gjson.ValidBytes(raw) {
		msg = gjson.GetBytes(raw, "error.message").String()
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	body, err := json.Marshal(map[string]any{
		"error": map[string]any{"status": resp.StatusCode, "message": msg},
	})
	if err != nil {
		return nil, err
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header = resp.Header.Clone()
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	resp.Header.Set("Content-Type", "application/json")
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
	return resp, nil
}
