// Package voice is the gateway to the synchronous text-to-speech provider.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"videoai-studio-backend/internal/apperr"
)

type Client struct {
	baseURL    string
	apiKey     string
	voiceID    string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, voiceID string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		voiceID:    voiceID,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type synthesizePayload struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

// Synthesize converts narration text to audio. The provider responds with
// raw audio bytes, not a job handle; there is nothing to poll.
func (c *Client) Synthesize(ctx context.Context, narration string) ([]byte, string, error) {
	if strings.TrimSpace(narration) == "" {
		return nil, "", &apperr.ValidationError{Field: "narration", Message: "narration is required"}
	}

	body, err := json.Marshal(synthesizePayload{Text: narration})
	if err != nil {
		return nil, "", &apperr.ProviderError{Provider: "voice", Message: err.Error()}
	}

	url := c.baseURL + "/text-to-speech/" + c.voiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", &apperr.ProviderError{Provider: "voice", Message: err.Error()}
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &apperr.ProviderError{Provider: "voice", Message: err.Error()}
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &apperr.ProviderError{Provider: "voice", Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", &apperr.ProviderError{
			Provider:   "voice",
			HTTPStatus: resp.StatusCode,
			Message:    string(audio),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/wav"
	}
	return audio, contentType, nil
}
