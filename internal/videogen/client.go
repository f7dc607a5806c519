// Package videogen is the gateway to the image-to-video provider. The
// provider requires a self-contained payload, so the source image is
// downloaded and re-encoded as an inline data URI before submission.
package videogen

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
	"videoai-studio-backend/internal/mediaref"
	"videoai-studio-backend/internal/provider"
)

// allowedDurations is the provider's fixed set of clip lengths in seconds.
var allowedDurations = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 12, 15, 20, 30}

type Client struct {
	baseURL    string
	apiKey     string
	poller     *provider.Poller
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, pollInterval, pollTimeout time.Duration) *Client {
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		poller:     provider.NewPoller("videogen", pollInterval, pollTimeout, headers),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type SubmitRequest struct {
	ImageURL        string
	Prompt          string
	Duration        *int
	PromptOptimizer *bool
}

type submitPayload struct {
	FirstFrameImage string `json:"first_frame_image"`
	Prompt          string `json:"prompt"`
	Duration        *int   `json:"duration,omitempty"`
	PromptOptimizer *bool  `json:"prompt_optimizer,omitempty"`
}

// SnapDuration maps an arbitrary requested duration onto the provider's
// allowed set: clamp into [1,30], then take the nearest allowed value
// (the smaller one on ties).
func SnapDuration(v float64) int {
	if v < 1 {
		v = 1
	}
	if v > 30 {
		v = 30
	}
	best := allowedDurations[0]
	bestDist := dist(v, best)
	for _, d := range allowedDurations[1:] {
		if dd := dist(v, d); dd < bestDist {
			best = d
			bestDist = dd
		}
	}
	return best
}

func dist(v float64, d int) float64 {
	diff := v - float64(d)
	if diff < 0 {
		return -diff
	}
	return diff
}

// ParseDuration interprets the raw JSON value a client sent for
// videoDuration. Numeric values (including numeric strings) are snapped to
// the allowed set; null and blank strings count as absent; anything else is
// dropped with a logged warning.
func ParseDuration(raw json.RawMessage) *int {
	// json.Unmarshal treats "null" as a no-op on a float64 target, which
	// would silently read as 0 and snap to a 1-second clip.
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		d := SnapDuration(num)
		return &d
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		var parsed float64
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &parsed); err == nil {
			d := SnapDuration(parsed)
			return &d
		}
	}
	logging.Log.WithField("videoDuration", string(raw)).Warn("dropping non-numeric video duration")
	return nil
}

// Submit downloads the source image, inlines it, and enqueues the video
// job. A fetch failure on the source image is a hard error; it is never
// retried here.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (provider.JobHandle, error) {
	if strings.TrimSpace(req.ImageURL) == "" {
		return provider.JobHandle{}, &apperr.ValidationError{Field: "imageUrl", Message: "source image URL is required"}
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return provider.JobHandle{}, &apperr.ValidationError{Field: "prompt", Message: "motion prompt is required"}
	}

	imageData, contentType, err := c.fetchImage(ctx, req.ImageURL)
	if err != nil {
		return provider.JobHandle{}, err
	}

	payload := submitPayload{
		FirstFrameImage: mediaref.DataURI(contentType, imageData),
		Prompt:          req.Prompt,
		Duration:        req.Duration,
		PromptOptimizer: req.PromptOptimizer,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return provider.JobHandle{}, &apperr.ProviderError{Provider: "videogen", Message: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/video_generation", bytes.NewReader(body))
	if err != nil {
		return provider.JobHandle{}, &apperr.ProviderError{Provider: "videogen", Message: err.Error()}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return provider.JobHandle{}, &apperr.ProviderError{Provider: "videogen", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.JobHandle{}, &apperr.ProviderError{Provider: "videogen", Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return provider.JobHandle{}, &apperr.ProviderError{
			Provider:   "videogen",
			HTTPStatus: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	var handle provider.JobHandle
	if err := json.Unmarshal(respBody, &handle); err != nil {
		return provider.JobHandle{}, &apperr.ProviderError{Provider: "videogen", Message: fmt.Sprintf("malformed submit response: %v", err)}
	}
	if handle.StatusURL == "" || handle.ResponseURL == "" {
		return provider.JobHandle{}, &apperr.ProviderError{Provider: "videogen", Message: "submit response missing status/response URLs"}
	}
	return handle, nil
}

// Await resolves a handle into its terminal result payload.
func (c *Client) Await(ctx context.Context, handle provider.JobHandle) ([]byte, error) {
	return c.poller.Await(ctx, handle)
}

// ParseResult extracts the generated video from a completed job's result
// payload, whichever of the known shapes the provider used.
func ParseResult(body []byte) (mediaref.Ref, error) {
	var result struct {
		Video struct {
			URL string `json:"url"`
		} `json:"video"`
		VideoURL    string `json:"video_url"`
		URL         string `json:"url"`
		VideoBase64 string `json:"video_base64"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return mediaref.Ref{}, &apperr.ProviderError{Provider: "videogen", Message: fmt.Sprintf("malformed result payload: %v", err)}
	}

	for _, candidate := range []string{result.Video.URL, result.VideoURL, result.URL, result.VideoBase64} {
		if candidate == "" {
			continue
		}
		ref, err := mediaref.Parse(candidate)
		if err != nil {
			return mediaref.Ref{}, &apperr.ProviderError{Provider: "videogen", Message: err.Error()}
		}
		return ref, nil
	}
	return mediaref.Ref{}, &apperr.ProviderError{Provider: "videogen", Message: "result contained no video reference"}
}

func (c *Client) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", &apperr.ProviderError{Provider: "videogen", Message: err.Error()}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &apperr.ProviderError{Provider: "videogen", Message: fmt.Sprintf("fetch source image: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &apperr.ProviderError{
			Provider:   "videogen",
			HTTPStatus: resp.StatusCode,
			Message:    "fetch source image failed",
		}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &apperr.ProviderError{Provider: "videogen", Message: err.Error()}
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}
	return data, contentType, nil
}
