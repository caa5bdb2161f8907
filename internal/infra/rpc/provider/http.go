package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/vietddude/tradedesk/internal/core/domain"
)

const maxErrorBody = 512

// HTTPProvider implements Provider for JSON-RPC 2.0 over HTTP.
type HTTPProvider struct {
	endpoint   domain.Endpoint
	httpClient *http.Client
	nextID     atomic.Uint64

	Monitor *ProviderMonitor
}

// NewHTTPProvider creates a new HTTP-based RPC provider.
func NewHTTPProvider(endpoint domain.Endpoint, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Monitor: NewProviderMonitor(),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Call makes a single JSON-RPC call.
func (p *HTTPProvider) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	start := time.Now()

	if status := p.Monitor.CheckProviderStatus(); status == StatusBlocked {
		return nil, fmt.Errorf("provider %s blocked, retry after: %v", p.endpoint.Name, p.Monitor.GetRetryAfter())
	}

	jsonData, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      p.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint.URL, bytes.NewReader(jsonData))
	if err != nil {
		p.Monitor.RecordFailure()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.Monitor.RecordFailure()
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		retryAfter := resp.Header.Get("Retry-After")
		p.Monitor.RecordThrottle(resp.StatusCode, retryAfter)
		p.Monitor.RecordFailure()
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, RetryAfter: retryAfter}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.Monitor.RecordFailure()
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		p.Monitor.RecordFailure()
		if p.Monitor.DetectThrottlePattern(string(body)) {
			p.Monitor.RecordThrottle(http.StatusTooManyRequests, "")
		}
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: truncate(body)}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		p.Monitor.RecordFailure()
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if rpcResp.Error != nil {
		p.Monitor.RecordFailure()
		if p.Monitor.DetectThrottlePattern(rpcResp.Error.Message) {
			p.Monitor.RecordThrottle(http.StatusTooManyRequests, "")
		}
		return nil, rpcResp.Error
	}

	p.Monitor.RecordRequest(time.Since(start))
	return rpcResp.Result, nil
}

// Endpoint returns the provider's endpoint.
func (p *HTTPProvider) Endpoint() domain.Endpoint {
	return p.endpoint
}

// GetName returns the provider's name.
func (p *HTTPProvider) GetName() string {
	return p.endpoint.Name
}

// Stats returns the monitor's current stats.
func (p *HTTPProvider) Stats() MonitorStats {
	return p.Monitor.GetStats()
}

// Health returns the provider's health status.
func (p *HTTPProvider) Health() HealthStatus {
	stats := p.Monitor.GetStats()
	return HealthStatus{
		Endpoint:      p.endpoint,
		Status:        stats.Status,
		Latency:       stats.AverageLatency,
		ErrorRate:     stats.ErrorRate,
		LastSuccessAt: stats.LastSuccessAt,
		LastFailureAt: stats.LastFailureAt,
	}
}

// Close cleans up resources.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody])
	}
	return string(b)
}
