// Package provider implements RPC endpoints.
//
// This package contains:
//   - Provider interface: one addressable JSON-RPC endpoint
//   - HTTPProvider: JSON-RPC 2.0 over HTTP
//   - ProviderMonitor: latency and throttle tracking
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vietddude/tradedesk/internal/core/domain"
)

// Provider is a single RPC endpoint.
type Provider interface {
	// Endpoint returns the address this provider talks to
	Endpoint() domain.Endpoint

	// GetName returns the endpoint name (e.g., "helius", "public")
	GetName() string

	// Call makes a single JSON-RPC request and returns the raw result
	Call(ctx context.Context, method string, params []any) (json.RawMessage, error)

	// Close cleans up resources
	Close() error
}

// StatsReporter is implemented by providers that keep monitoring stats.
type StatsReporter interface {
	Stats() MonitorStats
}

// RPCError is an error object returned inside a JSON-RPC response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// HTTPStatusError is a non-200 reply from the endpoint.
type HTTPStatusError struct {
	StatusCode int
	Body       string
	RetryAfter string
}

func (e *HTTPStatusError) Error() string {
	switch e.StatusCode {
	case 429:
		return fmt.Sprintf("rate limited (429), retry after: %s", e.RetryAfter)
	case 403:
		return "ip blocked (403)"
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// HealthStatus is a point-in-time view of a provider.
type HealthStatus struct {
	Endpoint      domain.Endpoint `json:"endpoint"`
	Status        ProviderStatus  `json:"status"`
	Latency       time.Duration   `json:"latency"`
	ErrorRate     float64         `json:"error_rate"`
	LastSuccessAt time.Time       `json:"last_success_at"`
	LastFailureAt time.Time       `json:"last_failure_at"`
}
