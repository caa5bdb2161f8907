package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/tradedesk/internal/infra/rpc/routing"
)

var fastRetry = routing.RetryConfig{
	MaxRetries:      3,
	InitialDelay:    time.Millisecond,
	MaxDelay:        5 * time.Millisecond,
	BackoffMultiple: 2,
}

type payload struct {
	Value string `json:"value"`
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (*Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New("test", srv.URL, append([]Option{WithRetry(fastRetry)}, opts...)...)
	require.NoError(t, err)
	return c, &hits
}

func TestGet_Success(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/defi/token_overview", r.URL.Path)
		assert.Equal(t, "So111", r.URL.Query().Get("address"))
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}, WithHeader("X-API-KEY", "secret"))

	out, err := Get[payload](context.Background(), c, "/defi/token_overview", url.Values{"address": {"So111"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Value)
	assert.Equal(t, int32(1), hits.Load())
}

func TestGet_ServerErrorExhaustsBudget(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := Get[payload](context.Background(), c, "/pools", nil)
	require.Error(t, err)
	assert.Equal(t, int32(4), hits.Load())

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindServer, apiErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "/pools", apiErr.Endpoint)
	assert.Contains(t, err.Error(), "500")
}

func TestGet_ClientErrorNotRetried(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := Get[payload](context.Background(), c, "/missing", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, IsNotFound(err))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestGet_RateLimitExhaustion(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := Get[payload](context.Background(), c, "/trending", nil)
	require.Error(t, err)
	assert.Equal(t, int32(4), hits.Load())
	assert.True(t, IsRateLimited(err))
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestGet_RecoversAfterTransientFailures(t *testing.T) {
	var n atomic.Int32
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"value":"third"}`))
	})

	out, err := Get[payload](context.Background(), c, "/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "third", out.Value)
	assert.Equal(t, int32(3), hits.Load())
}

func TestGet_BackoffFollowsAttemptIndex(t *testing.T) {
	cfg := routing.RetryConfig{
		MaxRetries:      3,
		InitialDelay:    40 * time.Millisecond,
		MaxDelay:        100 * time.Millisecond,
		BackoffMultiple: 2,
	}
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithRetry(cfg))

	var waits []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	_, err := Get[payload](context.Background(), c, "/x", nil)
	require.Error(t, err)
	assert.Equal(t, int32(4), hits.Load())
	assert.Equal(t, []time.Duration{cfg.Delay(0), cfg.Delay(1), cfg.Delay(2)}, waits)
	assert.Equal(t, []time.Duration{40 * time.Millisecond, 80 * time.Millisecond, 100 * time.Millisecond}, waits)
}

func TestGet_WaitsBetweenAttempts(t *testing.T) {
	var stamps []time.Time
	var mu sync.Mutex
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}, WithRetry(routing.RetryConfig{
		MaxRetries:      2,
		InitialDelay:    30 * time.Millisecond,
		MaxDelay:        time.Second,
		BackoffMultiple: 2,
	}))

	_, err := Get[payload](context.Background(), c, "/x", nil)
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 30*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 60*time.Millisecond)
}

func TestGet_ParseErrorIsTerminal(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := Get[payload](context.Background(), c, "/x", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindParse, apiErr.Kind)
}

func TestGet_TransportErrorRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := New("test", base, WithRetry(fastRetry))
	require.NoError(t, err)

	_, err = Get[payload](context.Background(), c, "/x", nil)
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindTransport, apiErr.Kind)
	assert.True(t, IsRetryable(err))
}

func TestGet_ContextCanceledDuringBackoff(t *testing.T) {
	slow := routing.RetryConfig{
		MaxRetries:      3,
		InitialDelay:    time.Second,
		MaxDelay:        time.Second,
		BackoffMultiple: 1,
	}
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithRetry(slow))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Get[payload](ctx, c, "/x", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, int32(1), hits.Load())
	assert.False(t, IsRetryable(err))
}

func TestNew_RejectsInvalidRetry(t *testing.T) {
	_, err := New("test", "http://localhost", WithRetry(routing.RetryConfig{
		MaxRetries:      1,
		InitialDelay:    0,
		MaxDelay:        time.Second,
		BackoffMultiple: 2,
	}))
	assert.Error(t, err)
}
