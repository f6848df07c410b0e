// Package insight sends composed prompts to a hosted text-generation
// service and classifies its failures.
package insight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finsum-dev/finsum/internal/prompt"
)

// Client sends one payload and returns the model's text.
type Client interface {
	Send(ctx context.Context, p prompt.Payload) (string, error)
}

var (
	ErrRateLimited        = errors.New("rate limited")
	ErrAuth               = errors.New("authentication failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("request timed out")
	ErrBadRequest         = errors.New("request rejected")
	ErrEmptyResponse      = errors.New("empty response")
)

// APIError is a classified failure from a provider. Kind is one of the
// sentinel errors above and is what errors.Is matches against.
type APIError struct {
	Kind       error
	Provider   string
	Status     int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %v (status %d): %s", e.Provider, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %v: %s", e.Provider, e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.Kind }

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrServiceUnavailable)
}

// KindForStatus maps an HTTP status code to an error kind.
func KindForStatus(status int) error {
	switch {
	case status == 401 || status == 403:
		return ErrAuth
	case status == 429:
		return ErrRateLimited
	case status == 408:
		return ErrTimeout
	case status == 529 || status >= 500:
		return ErrServiceUnavailable
	default:
		return ErrBadRequest
	}
}
