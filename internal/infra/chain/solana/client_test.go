package solana

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/tradedesk/internal/core/domain"
	"github.com/vietddude/tradedesk/internal/infra/rpc"
)

type fakeRPC struct {
	results map[string]string
	calls   []string
	params  map[string][]any
}

func (f *fakeRPC) Call(_ context.Context, method string, params []any) (json.RawMessage, error) {
	f.calls = append(f.calls, method)
	if f.params == nil {
		f.params = make(map[string][]any)
	}
	f.params[method] = params
	res, ok := f.results[method]
	if !ok {
		return nil, errors.New("unexpected method " + method)
	}
	return json.RawMessage(res), nil
}

func (f *fakeRPC) CurrentEndpoint() domain.Endpoint { return domain.Endpoint{Name: "fake"} }

func (f *fakeRPC) Endpoints() []domain.Endpoint {
	return []domain.Endpoint{{Name: "fake"}, {Name: "backup"}}
}

func TestGetCurrentSlot(t *testing.T) {
	f := &fakeRPC{results: map[string]string{"getSlot": "312345678"}}
	slot, err := NewClient(f).GetCurrentSlot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(312345678), slot)
}

func TestGetAccountInfo_Missing(t *testing.T) {
	f := &fakeRPC{results: map[string]string{
		"getAccountInfo": `{"context":{"slot":1},"value":null}`,
	}}
	info, err := NewClient(f).GetAccountInfo(context.Background(), "Missing111")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestGetAccountInfo(t *testing.T) {
	f := &fakeRPC{results: map[string]string{
		"getAccountInfo": `{"context":{"slot":1},"value":{"lamports":2039280,"owner":"` + TokenProgramID + `","executable":false,"rentEpoch":361,"space":165,"data":["","base64"]}}`,
	}}
	info, err := NewClient(f).GetAccountInfo(context.Background(), "Acc111")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, uint64(2039280), info.Lamports)
	assert.Equal(t, TokenProgramID, info.Owner)
	assert.Equal(t, uint64(165), info.Space)
}

func TestGetTokenAccountsByOwner(t *testing.T) {
	f := &fakeRPC{results: map[string]string{
		"getTokenAccountsByOwner": `{"context":{"slot":1},"value":[
			{"pubkey":"TA1","account":{"data":{"parsed":{"info":{"mint":"M1","owner":"O1","tokenAmount":{"amount":"1500000","decimals":6,"uiAmountString":"1.5"}}}}}},
			{"pubkey":"TA2","account":{"data":{"parsed":{"info":{"mint":"M2","owner":"O1","tokenAmount":{"amount":"bad","decimals":6}}}}}}
		]}`,
	}}
	c := NewClient(f)
	accounts, err := c.GetTokenAccountsByOwner(context.Background(), "O1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "TA1", accounts[0].Pubkey)
	assert.Equal(t, "M1", accounts[0].Mint)
	assert.True(t, decimal.NewFromInt(1500000).Equal(accounts[0].Amount))
	assert.Equal(t, uint8(6), accounts[0].Decimals)

	filter := f.params["getTokenAccountsByOwner"][1].(map[string]any)
	assert.Equal(t, TokenProgramID, filter["programId"])
}

func TestGetTokenSupply(t *testing.T) {
	f := &fakeRPC{results: map[string]string{
		"getTokenSupply": `{"context":{"slot":1},"value":{"amount":"1000000000000","decimals":6,"uiAmountString":"1000000"}}`,
	}}
	supply, err := NewClient(f).GetTokenSupply(context.Background(), "M1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1_000_000_000_000).Equal(supply.Raw))
	assert.True(t, decimal.NewFromInt(1_000_000).Equal(supply.Amount))
	assert.Equal(t, uint8(6), supply.Decimals)
}

func TestGetTokenLargestAccounts(t *testing.T) {
	f := &fakeRPC{results: map[string]string{
		"getTokenLargestAccounts": `{"context":{"slot":1},"value":[
			{"address":"A1","amount":"700","decimals":0,"uiAmountString":"700"},
			{"address":"A2","amount":"200","decimals":0,"uiAmountString":"200"}
		]}`,
	}}
	dist, err := NewClient(f).GetTokenLargestAccounts(context.Background(), "M1")
	require.NoError(t, err)
	require.Len(t, dist.Holders, 2)
	assert.Equal(t, "A1", dist.Holders[0].TokenAccount)

	pct, ok := dist.TopShare(10, decimal.NewFromInt(1000))
	require.True(t, ok)
	assert.InDelta(t, 90.0, pct, 1e-9)
}

func TestGetLatestActivity(t *testing.T) {
	f := &fakeRPC{results: map[string]string{
		"getSignaturesForAddress": `[{"signature":"sig1","slot":99,"blockTime":1767225600}]`,
	}}
	act, err := NewClient(f).GetLatestActivity(context.Background(), "Creator111")
	require.NoError(t, err)
	require.NotNil(t, act)
	assert.Equal(t, "sig1", act.Signature)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), act.BlockTime)

	cfg := f.params["getSignaturesForAddress"][1].(map[string]any)
	assert.Equal(t, 1, cfg["limit"])
}

func TestGetLatestActivity_NoHistory(t *testing.T) {
	f := &fakeRPC{results: map[string]string{"getSignaturesForAddress": `[]`}}
	act, err := NewClient(f).GetLatestActivity(context.Background(), "Fresh111")
	require.NoError(t, err)
	assert.Nil(t, act)
}

func TestGetAllEndpoints_ReturnsCopy(t *testing.T) {
	c := NewClient(&fakeRPC{})
	eps := c.GetAllEndpoints()
	eps[0].Name = "mutated"
	assert.Equal(t, "fake", c.GetAllEndpoints()[0].Name)
}

func rpcServer(t *testing.T, fail bool, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if fail {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		var req struct {
			ID uint64 `json:"id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": 77})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetCurrentSlot_AllEndpointsFail(t *testing.T) {
	var hits atomic.Int32
	eps := []domain.Endpoint{
		{Name: "a", URL: rpcServer(t, true, &hits).URL},
		{Name: "b", URL: rpcServer(t, true, &hits).URL},
		{Name: "c", URL: rpcServer(t, true, &hits).URL},
	}
	transport, err := rpc.NewClient(eps, time.Second)
	require.NoError(t, err)
	c := NewClient(transport)

	_, err = c.GetCurrentSlot(context.Background())
	require.Error(t, err)
	assert.Regexp(t, `(?i)all.*endpoints.*failed`, err.Error())
	assert.Equal(t, "a", c.GetCurrentEndpoint().Name)
	assert.Equal(t, int32(3), hits.Load())
}

func TestGetCurrentSlot_RetainsWorkingEndpoint(t *testing.T) {
	var aHits, bHits atomic.Int32
	eps := []domain.Endpoint{
		{Name: "a", URL: rpcServer(t, true, &aHits).URL},
		{Name: "b", URL: rpcServer(t, false, &bHits).URL},
	}
	transport, err := rpc.NewClient(eps, time.Second)
	require.NoError(t, err)
	c := NewClient(transport)

	slot, err := c.GetCurrentSlot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(77), slot)
	assert.Equal(t, "b", c.GetCurrentEndpoint().Name)

	_, err = c.GetCurrentSlot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), aHits.Load())
	assert.Equal(t, int32(2), bHits.Load())
}
