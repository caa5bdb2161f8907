// Package rpc provides a failover JSON-RPC client for Solana endpoints.
//
// The client keeps an ordered list of endpoints and stays pinned to the one
// that last answered. A failed call moves to the next endpoint and retries
// there; when the last endpoint fails the pin returns to the primary and the
// caller gets an error wrapping the final failure.
//
// # Quick Start
//
//	import "github.com/vietddude/tradedesk/internal/infra/rpc"
//
//	client, err := rpc.NewClient([]domain.Endpoint{
//	    {Name: "primary", URL: primaryURL},
//	    {Name: "backup", URL: backupURL},
//	}, 10*time.Second, rpc.WithLogger(logger))
//
//	result, err := client.Call(ctx, "getSlot", nil)
//
// # Package Structure
//
//   - provider/ - HTTP JSON-RPC transport and per-endpoint monitoring
//   - routing/  - failover sweep, retry settings and error classification
//
// Most types are re-exported at the root level for convenience.
package rpc

import (
	"time"

	"github.com/vietddude/tradedesk/internal/core/domain"
	"github.com/vietddude/tradedesk/internal/infra/rpc/provider"
	"github.com/vietddude/tradedesk/internal/infra/rpc/routing"
)

// =============================================================================
// Re-exported types from provider package
// =============================================================================

// Provider is the core interface for RPC endpoints.
type Provider = provider.Provider

// HTTPProvider implements Provider for JSON-RPC over HTTP.
type HTTPProvider = provider.HTTPProvider

// ProviderMonitor tracks provider health and rate limiting.
type ProviderMonitor = provider.ProviderMonitor

// ProviderStatus represents the health state of a provider.
type ProviderStatus = provider.ProviderStatus

// MonitorStats holds monitoring statistics for a provider.
type MonitorStats = provider.MonitorStats

// HealthStatus represents the health state of a provider.
type HealthStatus = provider.HealthStatus

// RPCError is a JSON-RPC error object returned by an endpoint.
type RPCError = provider.RPCError

// Provider status constants
const (
	StatusHealthy   = provider.StatusHealthy
	StatusDegraded  = provider.StatusDegraded
	StatusThrottled = provider.StatusThrottled
	StatusBlocked   = provider.StatusBlocked
)

// NewHTTPProvider creates a new HTTP-based RPC provider.
func NewHTTPProvider(endpoint domain.Endpoint, timeout time.Duration) *HTTPProvider {
	return provider.NewHTTPProvider(endpoint, timeout)
}

// =============================================================================
// Re-exported types from routing package
// =============================================================================

// Client runs calls against an ordered endpoint list with sticky failover.
type Client = routing.FailoverClient

// Option configures a Client.
type Option = routing.FailoverOption

// ExhaustedError is returned when every endpoint from the pin onward failed.
type ExhaustedError = routing.ExhaustedError

// RetryConfig defines retry behavior.
type RetryConfig = routing.RetryConfig

// DefaultRetryConfig provides sensible retry defaults.
var DefaultRetryConfig = routing.DefaultRetryConfig

var (
	ErrAllEndpointsFailed = routing.ErrAllEndpointsFailed
	ErrNoEndpoints        = routing.ErrNoEndpoints
)

var (
	WithLogger           = routing.WithLogger
	WithFailoverCallback = routing.WithFailoverCallback
)

// NewClient builds one HTTP provider per endpoint, in order, and wraps them
// in a failover client. The first endpoint is the primary.
func NewClient(endpoints []domain.Endpoint, timeout time.Duration, opts ...Option) (*Client, error) {
	providers := make([]Provider, 0, len(endpoints))
	for _, ep := range endpoints {
		providers = append(providers, provider.NewHTTPProvider(ep, timeout))
	}
	return routing.NewFailoverClient(providers, opts...)
}
