// Package health provides system health monitoring and status reporting.
package health

import (
	"time"

	"github.com/vietddude/tradedesk/internal/infra/rpc/provider"
)

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// EndpointHealth contains health metrics for one RPC endpoint.
type EndpointHealth struct {
	Name      string                  `json:"name"`
	Current   bool                    `json:"current"`
	Status    provider.ProviderStatus `json:"status"`
	LatencyMs int64                   `json:"latency_ms"`
	ErrorRate float64                 `json:"error_rate"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus    SystemStatus      `json:"system_status"`
	Slot            uint64            `json:"slot,omitempty"`
	CurrentEndpoint string            `json:"current_endpoint"`
	Endpoints       []EndpointHealth  `json:"endpoints"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	Error           string            `json:"error,omitempty"`
	CheckedAt       time.Time         `json:"checked_at"`
}
