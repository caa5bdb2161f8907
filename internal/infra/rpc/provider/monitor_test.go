package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonitor_AccumulatesStats(t *testing.T) {
	m := NewProviderMonitor()

	m.RecordRequest(100 * time.Millisecond)
	for i := 0; i < 9; i++ {
		m.RecordRequest(50 * time.Millisecond)
	}
	m.RecordFailure()

	stats := m.GetStats()
	assert.Equal(t, 10, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 55*time.Millisecond, stats.AverageLatency)
	assert.InDelta(t, 1.0/11.0, stats.ErrorRate, 1e-9)
	assert.Equal(t, StatusHealthy, stats.Status)
}

func TestMonitor_ThrottleWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewProviderMonitor()
	m.now = func() time.Time { return now }

	m.RecordThrottle(429, "30")
	assert.Equal(t, StatusThrottled, m.CheckProviderStatus())
	assert.Equal(t, 30*time.Second, m.GetRetryAfter())

	now = now.Add(31 * time.Second)
	assert.Equal(t, StatusHealthy, m.CheckProviderStatus())
	assert.Zero(t, m.GetRetryAfter())

	m.RecordThrottle(403, "")
	assert.Equal(t, StatusBlocked, m.CheckProviderStatus())
}

func TestMonitor_DegradedOnErrorRate(t *testing.T) {
	m := NewProviderMonitor()
	for i := 0; i < 6; i++ {
		m.RecordRequest(10 * time.Millisecond)
	}
	for i := 0; i < 4; i++ {
		m.RecordFailure()
	}
	assert.Equal(t, StatusDegraded, m.CheckProviderStatus())
}

func TestMonitor_DetectThrottlePattern(t *testing.T) {
	m := NewProviderMonitor()
	assert.True(t, m.DetectThrottlePattern("Too Many Requests for this key"))
	assert.True(t, m.DetectThrottlePattern("rate limit exceeded"))
	assert.False(t, m.DetectThrottlePattern("account not found"))
}
