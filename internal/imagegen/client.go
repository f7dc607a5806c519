// Package imagegen is the gateway to the asynchronous image generation
// queue. Submission returns a job handle; the shared poller resolves it.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"videoai-studio-backend/internal/apperr"
	"videoai-studio-backend/internal/logging"
	"videoai-studio-backend/internal/provider"
)

// MaxPromptLength is the provider-imposed cap. Longer prompts are silently
// truncated, but the truncation is always logged.
const MaxPromptLength = 2000

type Client struct {
	baseURL    string
	apiKey     string
	poller     *provider.Poller
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, pollInterval, pollTimeout time.Duration) *Client {
	headers := map[string]string{"Authorization": "Key " + apiKey}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		poller:     provider.NewPoller("imagegen", pollInterval, pollTimeout, headers),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type SubmitRequest struct {
	Prompt     string
	SceneTitle string
	NumImages  int
	ImageSize  string
}

type submitPayload struct {
	Prompt    string `json:"prompt"`
	NumImages int    `json:"num_images"`
	ImageSize string `json:"image_size,omitempty"`
}

// resultPayload is the queue's completed-job response.
type resultPayload struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

// NormalizePrompt collapses whitespace and enforces the provider's length
// cap. Returns the usable prompt and whether it was truncated.
func NormalizePrompt(raw string) (string, bool) {
	p := strings.Join(strings.Fields(raw), " ")
	runes := []rune(p)
	if len(runes) > MaxPromptLength {
		return string(runes[:MaxPromptLength]), true
	}
	return p, false
}

// Submit enqueues one generation job and returns its handle. An empty prompt
// after normalization is an input error, not a provider error.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (provider.JobHandle, error) {
	prompt, truncated := NormalizePrompt(req.Prompt)
	if prompt == "" {
		return provider.JobHandle{}, &apperr.ValidationError{Field: "prompt", Message: "prompt is empty after normalization"}
	}
	if truncated {
		logging.Log.WithFields(map[string]interface{}{
			"provider":    "imagegen",
			"scene_title": req.SceneTitle,
			"max_length":  MaxPromptLength,
		}).Warn("image prompt truncated to provider limit")
	}

	numImages := req.NumImages
	if numImages <= 0 {
		numImages = 1
	}

	payload := submitPayload{
		Prompt:    prompt,
		NumImages: numImages,
		ImageSize: req.ImageSize,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return provider.JobHandle{}, &apperr.ProviderError{Provider: "imagegen", Message: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return provider.JobHandle{}, &apperr.ProviderError{Provider: "imagegen", Message: err.Error()}
	}
	httpReq.Header.Set("Authorization", "Key "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return provider.JobHandle{}, &apperr.ProviderError{Provider: "imagegen", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.JobHandle{}, &apperr.ProviderError{Provider: "imagegen", Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return provider.JobHandle{}, &apperr.ProviderError{
			Provider:   "imagegen",
			HTTPStatus: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	var handle provider.JobHandle
	if err := json.Unmarshal(respBody, &handle); err != nil {
		return provider.JobHandle{}, &apperr.ProviderError{Provider: "imagegen", Message: fmt.Sprintf("malformed submit response: %v", err)}
	}
	if handle.StatusURL == "" || handle.ResponseURL == "" {
		return provider.JobHandle{}, &apperr.ProviderError{Provider: "imagegen", Message: "submit response missing status/response URLs"}
	}
	return handle, nil
}

// Await resolves a handle into its terminal result payload.
func (c *Client) Await(ctx context.Context, handle provider.JobHandle) ([]byte, error) {
	return c.poller.Await(ctx, handle)
}

// ParseResult extracts the generated image URLs from a completed job's
// result payload.
func ParseResult(body []byte) ([]string, error) {
	var result resultPayload
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &apperr.ProviderError{Provider: "imagegen", Message: fmt.Sprintf("malformed result payload: %v", err)}
	}
	urls := make([]string, 0, len(result.Images))
	for _, img := range result.Images {
		if img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	if len(urls) == 0 {
		return nil, &apperr.ProviderError{Provider: "imagegen", Message: "result contained no images"}
	}
	return urls, nil
}
