package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/tradedesk/internal/core/domain"
)

func newTestProvider(t *testing.T, h http.HandlerFunc) *HTTPProvider {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewHTTPProvider(domain.Endpoint{Name: "mock", URL: server.URL}, 5*time.Second)
}

func TestHTTPProvider_Call(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req["jsonrpc"])
		assert.Equal(t, "getTokenSupply", req["method"])
		assert.Equal(t, []any{"Mint111"}, req["params"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req["id"],
			"result":  map[string]any{"value": map[string]any{"amount": "1000", "decimals": 2}},
		})
	})

	result, err := p.Call(context.Background(), "getTokenSupply", []any{"Mint111"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":{"amount":"1000","decimals":2}}`, string(result))
	assert.Equal(t, 1, p.Stats().SuccessCount)
}

func TestHTTPProvider_OmitsEmptyParams(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_, has := req["params"]
		assert.False(t, has)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":123}`))
	})

	result, err := p.Call(context.Background(), "getSlot", nil)
	require.NoError(t, err)
	assert.Equal(t, "123", string(result))
}

func TestHTTPProvider_RPCError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid param"}}`))
	})

	_, err := p.Call(context.Background(), "getAccountInfo", []any{"bad"})
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32602, rpcErr.Code)
	assert.Contains(t, err.Error(), "-32602")
	assert.Equal(t, 1, p.Stats().FailureCount)
}

func TestHTTPProvider_RateLimited(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := p.Call(context.Background(), "getSlot", nil)
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, StatusThrottled, p.Monitor.CheckProviderStatus())
}

func TestHTTPProvider_BlockedShortCircuits(t *testing.T) {
	hits := 0
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := p.Call(context.Background(), "getSlot", nil)
	require.Error(t, err)
	_, err = p.Call(context.Background(), "getSlot", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
	assert.Equal(t, 1, hits)
}

func TestHTTPProvider_ServerError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := p.Call(context.Background(), "getSlot", nil)
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "upstream down")
}

func TestHTTPProvider_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	p := NewHTTPProvider(domain.Endpoint{Name: "closed", URL: url}, time.Second)
	_, err := p.Call(context.Background(), "getSlot", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc call")
}
