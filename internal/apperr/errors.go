// Package apperr defines the error taxonomy shared by the gateways, the
// pipeline and the HTTP layer. Every error carries enough context to pick an
// HTTP status and a machine-discriminable code without string matching.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	ReasonNoActiveSubscription = "no_active_subscription"
	ReasonQuotaExceeded        = "quota_exceeded"
)

// ValidationError: bad or missing input, detected before any external call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// AuthError: missing or invalid bearer token.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// QuotaError blocks a billable operation before the gateway is invoked.
type QuotaError struct {
	Reason   string // ReasonNoActiveSubscription or ReasonQuotaExceeded
	Used     int
	Quota    int
	PlanName string
}

func (e *QuotaError) Error() string {
	if e.Reason == ReasonQuotaExceeded {
		return fmt.Sprintf("video generation quota exceeded (%d/%d)", e.Used, e.Quota)
	}
	return "no active subscription"
}

// ProviderError: upstream non-2xx or malformed payload. HTTPStatus is the
// upstream status when one was received, zero otherwise.
type ProviderError struct {
	Provider   string
	HTTPStatus int
	Message    string
	Logs       []string
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Message)
	if e.HTTPStatus != 0 {
		msg = fmt.Sprintf("%s: status %d: %s", e.Provider, e.HTTPStatus, e.Message)
	}
	if len(e.Logs) > 0 {
		msg += " [" + strings.Join(e.Logs, "; ") + "]"
	}
	return msg
}

// TimeoutError: a poll loop exceeded its deadline.
type TimeoutError struct {
	Provider string
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: job did not finish within %s", e.Provider, e.Elapsed.Round(time.Millisecond))
}

// StorageError: durable upload or persist failure after generation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// StatusCode maps an error to its HTTP response status. Upstream 402/429 from
// a provider pass through so the client can distinguish rate limiting from
// exhausted credits.
func StatusCode(err error) int {
	var (
		vErr *ValidationError
		aErr *AuthError
		qErr *QuotaError
		pErr *ProviderError
		tErr *TimeoutError
		sErr *StorageError
	)
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.As(err, &aErr):
		return http.StatusUnauthorized
	case errors.As(err, &qErr):
		if qErr.Reason == ReasonQuotaExceeded {
			return http.StatusTooManyRequests
		}
		return http.StatusForbidden
	case errors.As(err, &pErr):
		switch pErr.HTTPStatus {
		case http.StatusTooManyRequests:
			return http.StatusTooManyRequests
		case http.StatusPaymentRequired:
			return http.StatusPaymentRequired
		}
		return http.StatusInternalServerError
	case errors.As(err, &tErr), errors.As(err, &sErr):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// Code is the machine-discriminable value placed in the "error" field.
func Code(err error) string {
	var (
		vErr *ValidationError
		aErr *AuthError
		qErr *QuotaError
		pErr *ProviderError
		tErr *TimeoutError
		sErr *StorageError
	)
	switch {
	case errors.As(err, &vErr):
		return "invalid_request"
	case errors.As(err, &aErr):
		return "unauthorized"
	case errors.As(err, &qErr):
		return qErr.Reason
	case errors.As(err, &pErr):
		switch pErr.HTTPStatus {
		case http.StatusTooManyRequests:
			return "rate_limited"
		case http.StatusPaymentRequired:
			return "credits_exhausted"
		}
		return "provider_error"
	case errors.As(err, &tErr):
		return "timeout"
	case errors.As(err, &sErr):
		return "storage_error"
	}
	return "internal_error"
}
