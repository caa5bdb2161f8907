package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/vietddude/tradedesk/internal/core/domain"
	"github.com/vietddude/tradedesk/internal/infra/rpc/provider"
	"github.com/vietddude/tradedesk/internal/metrics"
)

// ErrAllEndpointsFailed matches any error returned after a sweep exhausted the endpoint list.
var ErrAllEndpointsFailed = errors.New("all RPC endpoints failed")

// ErrNoEndpoints is returned when a failover client is built without endpoints.
var ErrNoEndpoints = errors.New("at least one RPC endpoint is required")

// ExhaustedError is the terminal error of a sweep that reached the last endpoint.
type ExhaustedError struct {
	Op       string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: all RPC endpoints failed after %d attempt(s): %v", e.Op, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

func (e *ExhaustedError) Is(target error) bool { return target == ErrAllEndpointsFailed }

// FailoverClient runs operations against an ordered list of providers.
//
// The client stays pinned to whichever endpoint last succeeded. A failure
// moves the pin to the next endpoint and retries there; failing on the last
// endpoint resets the pin to the primary and returns an ExhaustedError.
// Sweeps are serialised per client, so the pin only ever moves under one sweep.
type FailoverClient struct {
	providers []provider.Provider
	sweep     *semaphore.Weighted

	mu      sync.RWMutex
	current int

	log        *slog.Logger
	onFailover func(from, to domain.Endpoint, err error)
}

// FailoverOption configures a FailoverClient.
type FailoverOption func(*FailoverClient)

// WithLogger sets the logger used for failover events.
func WithLogger(l *slog.Logger) FailoverOption {
	return func(c *FailoverClient) {
		if l != nil {
			c.log = l
		}
	}
}

// WithFailoverCallback registers a hook invoked each time the pin advances.
func WithFailoverCallback(fn func(from, to domain.Endpoint, err error)) FailoverOption {
	return func(c *FailoverClient) {
		c.onFailover = fn
	}
}

// NewFailoverClient creates a client over providers in priority order.
func NewFailoverClient(providers []provider.Provider, opts ...FailoverOption) (*FailoverClient, error) {
	if len(providers) == 0 {
		return nil, ErrNoEndpoints
	}
	c := &FailoverClient{
		providers: append([]provider.Provider(nil), providers...),
		sweep:     semaphore.NewWeighted(1),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "rpc_failover")
	return c, nil
}

// Do runs fn against the pinned provider, failing over as described on FailoverClient.
// A single call visits each endpoint at most once, walking forward from the pin.
// If ctx is done the context error is returned and the pin is left untouched.
func (c *FailoverClient) Do(
	ctx context.Context,
	op string,
	fn func(ctx context.Context, p provider.Provider) error,
) error {
	if err := c.sweep.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer c.sweep.Release(1)

	attempts := 0
	for {
		idx := c.index()
		p := c.providers[idx]
		ep := p.Endpoint()

		start := time.Now()
		err := fn(ctx, p)
		attempts++
		metrics.RPCCallsTotal.WithLabelValues(ep.Name, op).Inc()
		metrics.RPCLatency.WithLabelValues(ep.Name, op).Observe(time.Since(start).Seconds())

		if err == nil {
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			metrics.RPCErrorsTotal.WithLabelValues(ep.Name, string(ErrorTypeCanceled)).Inc()
			return fmt.Errorf("%s on %s: %w", op, ep.Name, ctxErr)
		}

		metrics.RPCErrorsTotal.WithLabelValues(ep.Name, string(ClassifyError(err))).Inc()

		if idx == len(c.providers)-1 {
			c.setIndex(0)
			metrics.RPCSweepsExhaustedTotal.WithLabelValues(op).Inc()
			c.log.Error("All RPC endpoints failed, resetting to primary",
				"op", op,
				"attempts", attempts,
				"error", err,
			)
			return &ExhaustedError{Op: op, Attempts: attempts, Last: err}
		}

		next := c.providers[idx+1].Endpoint()
		c.setIndex(idx + 1)
		metrics.RPCFailoversTotal.WithLabelValues(ep.Name, next.Name).Inc()
		c.log.Warn("RPC endpoint failed, failing over",
			"op", op,
			"from", ep.Name,
			"to", next.Name,
			"error", err,
		)
		if c.onFailover != nil {
			c.onFailover(ep, next, err)
		}
	}
}

// Call performs a JSON-RPC method through the sweep and returns the raw result.
func (c *FailoverClient) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.Do(ctx, method, func(ctx context.Context, p provider.Provider) error {
		res, err := p.Call(ctx, method, params)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	return result, err
}

// CurrentEndpoint returns the endpoint the client is pinned to.
func (c *FailoverClient) CurrentEndpoint() domain.Endpoint {
	return c.providers[c.index()].Endpoint()
}

// CurrentIndex returns the position of the pinned endpoint.
func (c *FailoverClient) CurrentIndex() int {
	return c.index()
}

// Endpoints returns a copy of the endpoint list in priority order.
func (c *FailoverClient) Endpoints() []domain.Endpoint {
	out := make([]domain.Endpoint, len(c.providers))
	for i, p := range c.providers {
		out[i] = p.Endpoint()
	}
	return out
}

// Providers returns a copy of the provider list in priority order.
func (c *FailoverClient) Providers() []provider.Provider {
	return append([]provider.Provider(nil), c.providers...)
}

// Close releases every provider.
func (c *FailoverClient) Close() error {
	var errs []error
	for _, p := range c.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *FailoverClient) index() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *FailoverClient) setIndex(i int) {
	c.mu.Lock()
	c.current = i
	c.mu.Unlock()
}
