// Package provider holds the pieces shared by every asynchronous generation
// provider: the job handle issued on submission and the poller that resolves
// a handle into a terminal result.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"videoai-studio-backend/internal/apperr"
	"videoai-studio-backend/internal/logging"
)

// JobHandle is a provider-issued pair of status/result URLs representing an
// in-flight asynchronous generation task.
type JobHandle struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

// statusPayload is the minimal shape every queue provider reports. Log lines
// are carried into the error on failure so the caller can diagnose without a
// second round trip.
type statusPayload struct {
	Status string `json:"status"`
	Logs   []struct {
		Message string `json:"message"`
	} `json:"logs"`
}

// Poller resolves a JobHandle by polling the status URL until the job
// reaches a terminal state, then fetching the result payload. It does not
// retry transport errors; a transient failure surfaces to the caller.
type Poller struct {
	Provider   string
	Interval   time.Duration
	Timeout    time.Duration
	Headers    map[string]string
	HTTPClient *http.Client
}

// NewPoller builds a poller with the provider's auth headers.
func NewPoller(providerName string, interval, timeout time.Duration, headers map[string]string) *Poller {
	return &Poller{
		Provider:   providerName,
		Interval:   interval,
		Timeout:    timeout,
		Headers:    headers,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Await polls handle's status URL every Interval until a terminal state or
// Timeout, then returns the raw result payload. Status comparison is
// case-insensitive and tolerant of per-provider synonyms.
func (p *Poller) Await(ctx context.Context, handle JobHandle) ([]byte, error) {
	start := time.Now()

	for time.Since(start) < p.Timeout {
		if err := ctx.Err(); err != nil {
			return nil, &apperr.TimeoutError{Provider: p.Provider, Elapsed: time.Since(start)}
		}

		status, err := p.fetchStatus(ctx, handle.StatusURL)
		if err != nil {
			return nil, err
		}

		switch {
		case IsCompleted(status.Status):
			return p.fetchResult(ctx, handle.ResponseURL)
		case IsFailed(status.Status):
			logs := make([]string, 0, len(status.Logs))
			for _, l := range status.Logs {
				logs = append(logs, l.Message)
			}
			return nil, &apperr.ProviderError{
				Provider: p.Provider,
				Message:  fmt.Sprintf("job %s ended in state %q", handle.RequestID, status.Status),
				Logs:     logs,
			}
		}

		logging.Log.WithFields(map[string]interface{}{
			"provider":   p.Provider,
			"request_id": handle.RequestID,
			"status":     status.Status,
			"elapsed_ms": time.Since(start).Milliseconds(),
		}).Debug("job still pending")

		select {
		case <-ctx.Done():
			return nil, &apperr.TimeoutError{Provider: p.Provider, Elapsed: time.Since(start)}
		case <-time.After(p.Interval):
		}
	}

	return nil, &apperr.TimeoutError{Provider: p.Provider, Elapsed: time.Since(start)}
}

// IsCompleted reports whether a provider status string names the successful
// terminal class.
func IsCompleted(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "COMPLETED", "FINISHED", "SUCCESS":
		return true
	}
	return false
}

// IsFailed reports whether a provider status string names the failed
// terminal class.
func IsFailed(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "FAILED", "ERROR", "CANCELLED", "CANCELED":
		return true
	}
	return false
}

func (p *Poller) fetchStatus(ctx context.Context, statusURL string) (*statusPayload, error) {
	body, err := p.get(ctx, statusURL)
	if err != nil {
		return nil, err
	}
	var status statusPayload
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, &apperr.ProviderError{Provider: p.Provider, Message: fmt.Sprintf("malformed status payload: %v", err)}
	}
	return &status, nil
}

func (p *Poller) fetchResult(ctx context.Context, responseURL string) ([]byte, error) {
	return p.get(ctx, responseURL)
}

func (p *Poller) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &apperr.ProviderError{Provider: p.Provider, Message: err.Error()}
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, &apperr.ProviderError{Provider: p.Provider, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.ProviderError{Provider: p.Provider, Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apperr.ProviderError{
			Provider:   p.Provider,
			HTTPStatus: resp.StatusCode,
			Message:    truncateBody(body),
		}
	}
	return body, nil
}

func truncateBody(body []byte) string {
	const max = 300
	s := string(body)
	if len(s) > max {
		return s[:max]
	}
	return s
}
