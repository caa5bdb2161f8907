package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vietddude/tradedesk/internal/core/domain"
	"github.com/vietddude/tradedesk/internal/infra/rpc/provider"
	"github.com/vietddude/tradedesk/internal/metrics"
)

const (
	checkInterval = 10 * time.Second
	checkTimeout  = 5 * time.Second
)

// SlotFetcher fetches the chain head through the failover client.
type SlotFetcher interface {
	GetCurrentSlot(ctx context.Context) (uint64, error)
	GetCurrentEndpoint() domain.Endpoint
}

// HealthReporter is implemented by providers that track their own health.
type HealthReporter interface {
	Health() provider.HealthStatus
}

// Check pings a dependency such as the database or cache.
type Check func(ctx context.Context) error

// Monitor aggregates health status from the RPC layer and dependencies.
type Monitor struct {
	fetcher   SlotFetcher
	providers []HealthReporter
	checks    map[string]Check

	group      singleflight.Group
	lastCheck  time.Time
	lastReport *HealthReport
	now        func() time.Time
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor.
func NewMonitor(fetcher SlotFetcher, providers []HealthReporter) *Monitor {
	return &Monitor{
		fetcher:   fetcher,
		providers: providers,
		checks:    make(map[string]Check),
		now:       time.Now,
	}
}

// AddCheck registers a named dependency check.
func (m *Monitor) AddCheck(name string, c Check) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = c
	m.lastReport = nil
}

// CheckHealth returns a report, reusing the previous one for up to ten seconds.
// Concurrent callers share one probe, which ignores caller cancellation. A
// caller whose context ends first gets an uncached critical report.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	if m.lastReport != nil && m.now().Sub(m.lastCheck) < checkInterval {
		report := *m.lastReport
		m.mu.Unlock()
		return report
	}
	m.mu.Unlock()

	ch := m.group.DoChan("check", func() (any, error) {
		report := m.probe(context.WithoutCancel(ctx))
		m.mu.Lock()
		m.lastCheck = m.now()
		m.lastReport = &report
		m.mu.Unlock()
		return report, nil
	})

	select {
	case res := <-ch:
		return res.Val.(HealthReport)
	case <-ctx.Done():
		return HealthReport{
			SystemStatus: StatusCritical,
			Error:        ctx.Err().Error(),
			CheckedAt:    m.now().UTC(),
		}
	}
}

func (m *Monitor) probe(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	m.mu.Lock()
	checks := make(map[string]Check, len(m.checks))
	for name, c := range m.checks {
		checks[name] = c
	}
	m.mu.Unlock()

	report := HealthReport{
		SystemStatus: StatusHealthy,
		CheckedAt:    m.now().UTC(),
	}

	slot, err := m.fetcher.GetCurrentSlot(ctx)
	if err != nil {
		report.SystemStatus = StatusCritical
		report.Error = err.Error()
	} else {
		report.Slot = slot
		metrics.ChainSlot.Set(float64(slot))
	}

	current := m.fetcher.GetCurrentEndpoint()
	report.CurrentEndpoint = current.Name

	for i, p := range m.providers {
		h := p.Health()
		eh := EndpointHealth{
			Name:      h.Endpoint.Name,
			Current:   h.Endpoint == current,
			Status:    h.Status,
			LatencyMs: h.Latency.Milliseconds(),
			ErrorRate: h.ErrorRate,
		}
		report.Endpoints = append(report.Endpoints, eh)

		// Serving from a fallback or a sick endpoint is degradation
		if eh.Current && i > 0 {
			report.SystemStatus = worst(report.SystemStatus, StatusDegraded)
		}
		if eh.Status != provider.StatusHealthy {
			report.SystemStatus = worst(report.SystemStatus, StatusDegraded)
		}
	}

	if len(checks) > 0 {
		report.Dependencies = make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				report.Dependencies[name] = err.Error()
				report.SystemStatus = worst(report.SystemStatus, StatusDegraded)
				continue
			}
			report.Dependencies[name] = "ok"
		}
	}
	return report
}

func worst(a, b SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{StatusHealthy: 0, StatusDegraded: 1, StatusCritical: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
