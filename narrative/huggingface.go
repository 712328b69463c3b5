package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mager/tastebud/tastebud"
	"github.com/tidwall/gjson"
)

// ErrEmptyGeneration is returned when the service answers without text.
var ErrEmptyGeneration = errors.New("empty generation")

// HuggingFace is a client for the Hugging Face inference API.
type HuggingFace struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
}

func NewHuggingFace(baseURL, model, apiKey string, httpClient *http.Client) *HuggingFace {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HuggingFace{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		http:    httpClient,
	}
}

type generateParams struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	ReturnFullText bool    `json:"return_full_text"`
	Temperature    float64 `json:"temperature"`
}

type generateRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters generateParams `json:"parameters"`
}

// Generate sends one instruction prompt and returns the generated text.
func (h *HuggingFace) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Inputs: "<s>[INST] " + prompt + " [/INST]</s>",
		Parameters: generateParams{
			MaxNewTokens:   1000,
			ReturnFullText: false,
			Temperature:    0.7,
		},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s", h.baseURL, h.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.http.Do(req)
	if err != nil {
		return "", &tastebud.Error{Kind: tastebud.UpstreamUnavailable, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &tastebud.Error{Kind: tastebud.UpstreamUnavailable, Err: err}
	}

	res := gjson.ParseBytes(raw)
	if msg := res.Get("error"); msg.Exists() {
		return "", &tastebud.Error{Kind: tastebud.UpstreamUnavailable, Status: resp.StatusCode, Message: msg.String()}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &tastebud.Error{
			Kind:    tastebud.UpstreamUnavailable,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("unexpected HTTP %d", resp.StatusCode),
		}
	}

	text := res.Get("0.generated_text").String()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyGeneration
	}
	return text, nil
}
