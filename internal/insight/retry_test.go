package insight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsum-dev/finsum/internal/prompt"
)

type fakeClient struct {
	errs  []error // returned in order; nil means success
	calls int
	text  string
}

func (f *fakeClient) Send(ctx context.Context, _ prompt.Payload) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	return f.text, nil
}

func newTestRetrier(c Client) (*Retrier, *[]time.Duration) {
	var waits []time.Duration
	r := NewRetrier(c)
	r.Sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return r, &waits
}

func rateLimited(after time.Duration) error {
	return &APIError{Kind: ErrRateLimited, Provider: "fake", Status: 429, RetryAfter: after}
}

func TestRetrier_SucceedsFirstTry(t *testing.T) {
	fc := &fakeClient{text: "ok"}
	r, waits := newTestRetrier(fc)

	text, err := r.Send(context.Background(), prompt.Payload{})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 1, fc.calls)
	assert.Empty(t, *waits)
}

func TestRetrier_BacksOffThenSucceeds(t *testing.T) {
	fc := &fakeClient{errs: []error{rateLimited(0), rateLimited(0)}, text: "ok"}
	r, waits := newTestRetrier(fc)

	text, err := r.Send(context.Background(), prompt.Payload{})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, fc.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestRetrier_GivesUpAfterMaxRetries(t *testing.T) {
	unavailable := &APIError{Kind: ErrServiceUnavailable, Provider: "fake", Status: 503}
	fc := &fakeClient{errs: []error{unavailable, unavailable, unavailable, unavailable, unavailable}}
	r, waits := newTestRetrier(fc)

	_, err := r.Send(context.Background(), prompt.Payload{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Equal(t, 4, fc.calls)
	assert.Len(t, *waits, 3)
}

func TestRetrier_AuthNotRetried(t *testing.T) {
	fc := &fakeClient{errs: []error{&APIError{Kind: ErrAuth, Provider: "fake", Status: 401}}}
	r, waits := newTestRetrier(fc)

	_, err := r.Send(context.Background(), prompt.Payload{})
	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, 1, fc.calls)
	assert.Empty(t, *waits)
}

func TestRetrier_RetryAfterWinsAndIsCapped(t *testing.T) {
	fc := &fakeClient{errs: []error{rateLimited(5 * time.Second), rateLimited(time.Hour)}, text: "ok"}
	r, waits := newTestRetrier(fc)

	_, err := r.Send(context.Background(), prompt.Payload{})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Second, DefaultMaxDelay}, *waits)
}

func TestRetrier_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fc := &fakeClient{errs: []error{rateLimited(0), rateLimited(0)}}
	r := NewRetrier(fc)
	r.Sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := r.Send(ctx, prompt.Payload{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, fc.calls)
}

type slowClient struct{}

func (slowClient) Send(ctx context.Context, _ prompt.Payload) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRetrier_PerAttemptTimeout(t *testing.T) {
	r, waits := newTestRetrier(slowClient{})
	r.Timeout = 10 * time.Millisecond
	r.MaxRetries = 1

	_, err := r.Send(context.Background(), prompt.Payload{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Len(t, *waits, 1)
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{401, ErrAuth},
		{403, ErrAuth},
		{429, ErrRateLimited},
		{408, ErrTimeout},
		{500, ErrServiceUnavailable},
		{503, ErrServiceUnavailable},
		{529, ErrServiceUnavailable},
		{400, ErrBadRequest},
		{404, ErrBadRequest},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindForStatus(tt.status), "status %d", tt.status)
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(rateLimited(0)))
	assert.True(t, Retryable(&APIError{Kind: ErrTimeout}))
	assert.False(t, Retryable(&APIError{Kind: ErrBadRequest}))
	assert.False(t, Retryable(errors.New("boom")))
}

func TestRetrier_ZeroRetries(t *testing.T) {
	fc := &fakeClient{errs: []error{rateLimited(0), rateLimited(0)}}
	r, waits := newTestRetrier(fc)
	r.MaxRetries = 0

	_, err := r.Send(context.Background(), prompt.Payload{})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, fc.calls)
	assert.Empty(t, *waits)
}

func TestRetrier_DelayDoublesUpToMax(t *testing.T) {
	unavailable := &APIError{Kind: ErrServiceUnavailable, Provider: "fake", Status: 503}
	fc := &fakeClient{errs: []error{unavailable, unavailable, unavailable, unavailable, unavailable}, text: "ok"}
	r, waits := newTestRetrier(fc)
	r.MaxRetries = 5
	r.MaxDelay = 5 * time.Second

	_, err := r.Send(context.Background(), prompt.Payload{})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}, *waits)
}
