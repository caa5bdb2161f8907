package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCCallsTotal tracks RPC attempts per endpoint and method
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradedesk_rpc_calls_total",
			Help: "Total number of RPC attempts",
		},
		[]string{"endpoint", "method"},
	)

	// RPCErrorsTotal tracks failed RPC attempts per endpoint
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradedesk_rpc_errors_total",
			Help: "Total number of failed RPC attempts",
		},
		[]string{"endpoint", "error_type"},
	)

	// RPCLatency tracks RPC attempt latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tradedesk_rpc_latency_seconds",
			Help:    "RPC attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// RPCFailoversTotal counts pin moves from one endpoint to the next
	RPCFailoversTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradedesk_rpc_failovers_total",
			Help: "Total number of endpoint failovers",
		},
		[]string{"from", "to"},
	)

	// RPCSweepsExhaustedTotal counts calls where every remaining endpoint failed
	RPCSweepsExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradedesk_rpc_sweeps_exhausted_total",
			Help: "Total number of calls that exhausted the endpoint list",
		},
		[]string{"method"},
	)

	// APIRequestsTotal tracks data-provider HTTP attempts by outcome
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradedesk_api_requests_total",
			Help: "Total number of data-provider HTTP attempts",
		},
		[]string{"provider", "path", "outcome"},
	)

	// APIRetriesTotal tracks data-provider retries by reason
	APIRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradedesk_api_retries_total",
			Help: "Total number of data-provider retries",
		},
		[]string{"provider", "reason"},
	)

	// APILatency tracks data-provider attempt latency
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tradedesk_api_latency_seconds",
			Help:    "Data-provider attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "path"},
	)

	// CacheLookupsTotal tracks response cache hits and misses
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradedesk_cache_lookups_total",
			Help: "Total number of response cache lookups",
		},
		[]string{"kind", "result"},
	)

	// RiskAssessmentsTotal tracks produced assessments by level
	RiskAssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradedesk_risk_assessments_total",
			Help: "Total number of risk assessments",
		},
		[]string{"level"},
	)

	// ChainSlot tracks the latest observed slot
	ChainSlot = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradedesk_chain_slot",
			Help: "Latest slot observed from the RPC endpoints",
		},
	)

	// HTTPRequestsTotal counts server requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradedesk_http_requests_total",
			Help: "Total HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes server latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tradedesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

var (
	// DBConnectionPoolUsage tracks database connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradedesk_db_connection_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
