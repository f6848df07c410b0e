package insight

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"github.com/finsum-dev/finsum/internal/prompt"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	DefaultMaxDelay   = 30 * time.Second
	DefaultTimeout    = 60 * time.Second
)

// Retrier wraps a Client with a per-attempt timeout and bounded
// exponential backoff on retryable errors.
type Retrier struct {
	Client     Client
	MaxRetries int           // retries after the first attempt
	BaseDelay  time.Duration // first backoff, doubled each retry
	MaxDelay   time.Duration
	Timeout    time.Duration // per attempt; 0 disables

	// Sleep waits for d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier returns a Retrier with default policy.
func NewRetrier(c Client) *Retrier {
	return &Retrier{
		Client:     c,
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
		Timeout:    DefaultTimeout,
		Sleep:      sleepContext,
	}
}

// Send calls the wrapped client until it succeeds, fails with a
// non-retryable error, runs out of retries, or ctx is done.
func (r *Retrier) Send(ctx context.Context, p prompt.Payload) (string, error) {
	logger := log.FromContext(ctx)
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	bo := backoff.WithContext(r.policy(), ctx)
	for attempt := 1; ; attempt++ {
		text, err := r.attempt(ctx, p)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !Retryable(err) {
			return "", err
		}
		next := bo.NextBackOff()
		if next == backoff.Stop {
			return "", err
		}

		wait := next
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > wait {
			wait = apiErr.RetryAfter
		}
		if r.MaxDelay > 0 && wait > r.MaxDelay {
			wait = r.MaxDelay
		}
		logger.Warn("retrying insight request", "attempt", attempt, "max_retries", r.MaxRetries, "wait", wait, "err", err)
		if err := sleep(ctx, wait); err != nil {
			return "", err
		}
	}
}

// policy is a deterministic doubling backoff bounded by MaxRetries.
func (r *Retrier) policy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	if r.MaxDelay > 0 {
		b.MaxInterval = r.MaxDelay
	} else {
		b.MaxInterval = 24 * time.Hour
	}
	b.Reset()
	return backoff.WithMaxRetries(b, uint64(max(r.MaxRetries, 0)))
}

func (r *Retrier) attempt(ctx context.Context, p prompt.Payload) (string, error) {
	if r.Timeout <= 0 {
		return r.Client.Send(ctx, p)
	}
	actx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	text, err := r.Client.Send(actx, p)
	if err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		return "", &APIError{Kind: ErrTimeout, Provider: "insight", Message: err.Error()}
	}
	return text, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
