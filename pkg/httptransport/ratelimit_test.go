package httptransport

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimit_UnderLimit(t *testing.T) {
	cfg := RateLimitConfig{
		Max:    5,
		Window: time.Minute,
	}
	rt := Wrap(statusTransport(http.StatusOK), RateLimit(cfg))

	for i := range 5 {
		resp, err := roundTrip(t, rt, newRequest(t, context.Background(), "http://api.test/"))
		require.NoError(t, err, "request %d should pass", i+1)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	cfg := RateLimitConfig{
		Max:    2,
		Window: time.Minute,
	}
	calls := 0
	counting := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return statusTransport(http.StatusOK)(req)
	})
	rt := Wrap(counting, RateLimit(cfg))

	// Exhaust the limit.
	for range 2 {
		_, err := roundTrip(t, rt, newRequest(t, context.Background(), "http://api.test/"))
		require.NoError(t, err)
	}

	// Next request should be rejected locally.
	_, err := roundTrip(t, rt, newRequest(t, context.Background(), "http://api.test/"))
	require.ErrorIs(t, err, ErrRateLimited)

	var rle *RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, "api.test", rle.Key)
	assert.Positive(t, int64(rle.RetryAfter))
	assert.LessOrEqual(t, rle.RetryAfter, time.Minute)
	assert.Equal(t, 2, calls)
}

func TestRateLimit_DifferentHosts(t *testing.T) {
	cfg := RateLimitConfig{
		Max:    1,
		Window: time.Minute,
	}
	rt := Wrap(statusTransport(http.StatusOK), RateLimit(cfg))

	_, err := roundTrip(t, rt, newRequest(t, context.Background(), "http://a.test/"))
	require.NoError(t, err)
	_, err = roundTrip(t, rt, newRequest(t, context.Background(), "http://b.test/"))
	require.NoError(t, err)
	_, err = roundTrip(t, rt, newRequest(t, context.Background(), "http://a.test/"))
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestRateLimit_Disabled(t *testing.T) {
	rt := Wrap(statusTransport(http.StatusOK), RateLimit(RateLimitConfig{}))

	for range 50 {
		_, err := roundTrip(t, rt, newRequest(t, context.Background(), "http://api.test/"))
		require.NoError(t, err)
	}
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	cfg := RateLimitConfig{
		Max:     1,
		Window:  time.Minute,
		KeyFunc: func(r *http.Request) string { return r.URL.Path },
	}
	rt := Wrap(statusTransport(http.StatusOK), RateLimit(cfg))

	_, err := roundTrip(t, rt, newRequest(t, context.Background(), "http://api.test/a"))
	require.NoError(t, err)
	_, err = roundTrip(t, rt, newRequest(t, context.Background(), "http://api.test/b"))
	require.NoError(t, err)
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 4, Window: time.Minute})
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for range 4 {
		_, _, ok := rl.allow("k", start)
		require.True(t, ok)
	}
	_, _, ok := rl.allow("k", start.Add(30*time.Second))
	assert.False(t, ok, "still within the first window")

	// Half way into the next window the previous count weighs 50%.
	remaining, _, ok := rl.allow("k", start.Add(90*time.Second))
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.allow("k", start)

	rl.cleanup(start.Add(time.Minute))
	assert.Len(t, rl.entries, 1)
	rl.cleanup(start.Add(2 * time.Minute))
	assert.Empty(t, rl.entries)
}

func TestRateLimitWithCleanup_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rt := Wrap(statusTransport(http.StatusOK), RateLimitWithCleanup(ctx, RateLimitConfig{Max: 1, Window: time.Millisecond}))

	_, err := roundTrip(t, rt, newRequest(t, context.Background(), "http://api.test/"))
	require.NoError(t, err)
	cancel()
}
