package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vietddude/tradedesk/internal/core/domain"
	"github.com/vietddude/tradedesk/internal/infra/chain"
)

const (
	// TokenProgramID is the SPL token program.
	TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

	defaultCommitment = "confirmed"
)

// RPC is the transport the client needs. rpc.Client satisfies it.
type RPC interface {
	Call(ctx context.Context, method string, params []any) (json.RawMessage, error)
	CurrentEndpoint() domain.Endpoint
	Endpoints() []domain.Endpoint
}

var _ chain.Reader = (*Client)(nil)

// Client issues typed Solana JSON-RPC reads through a failover transport.
type Client struct {
	rpc        RPC
	commitment string
	log        *slog.Logger
}

// NewClient wraps rpc. The caller owns rpc and closes it.
func NewClient(rpc RPC) *Client {
	return &Client{
		rpc:        rpc,
		commitment: defaultCommitment,
		log:        slog.Default().With("component", "solana"),
	}
}

type contextValue[T any] struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value T `json:"value"`
}

type uiTokenAmount struct {
	Amount         string `json:"amount"`
	Decimals       uint8  `json:"decimals"`
	UIAmountString string `json:"uiAmountString"`
}

// GetCurrentSlot returns the chain head slot.
func (c *Client) GetCurrentSlot(ctx context.Context) (uint64, error) {
	raw, err := c.rpc.Call(ctx, "getSlot", []any{c.config(nil)})
	if err != nil {
		return 0, err
	}
	var slot uint64
	if err := json.Unmarshal(raw, &slot); err != nil {
		return 0, fmt.Errorf("decode getSlot: %w", err)
	}
	return slot, nil
}

// GetAccountInfo returns the account at address, or nil when it does not exist.
func (c *Client) GetAccountInfo(ctx context.Context, address string) (*domain.AccountInfo, error) {
	raw, err := c.rpc.Call(ctx, "getAccountInfo", []any{
		address,
		c.config(map[string]any{"encoding": "base64"}),
	})
	if err != nil {
		return nil, err
	}
	var res contextValue[*domain.AccountInfo]
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode getAccountInfo: %w", err)
	}
	return res.Value, nil
}

// GetTokenAccountsByOwner returns every SPL token account owned by owner.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner string) ([]domain.TokenAccount, error) {
	raw, err := c.rpc.Call(ctx, "getTokenAccountsByOwner", []any{
		owner,
		map[string]any{"programId": TokenProgramID},
		c.config(map[string]any{"encoding": "jsonParsed"}),
	})
	if err != nil {
		return nil, err
	}

	var res contextValue[[]struct {
		Pubkey  string `json:"pubkey"`
		Account struct {
			Data struct {
				Parsed struct {
					Info struct {
						Mint        string        `json:"mint"`
						Owner       string        `json:"owner"`
						TokenAmount uiTokenAmount `json:"tokenAmount"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"account"`
	}]
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode getTokenAccountsByOwner: %w", err)
	}

	accounts := make([]domain.TokenAccount, 0, len(res.Value))
	for _, v := range res.Value {
		info := v.Account.Data.Parsed.Info
		amount, err := decimal.NewFromString(info.TokenAmount.Amount)
		if err != nil {
			c.log.Debug("Skipping token account with bad amount", "pubkey", v.Pubkey, "error", err)
			continue
		}
		accounts = append(accounts, domain.TokenAccount{
			Pubkey:   v.Pubkey,
			Mint:     info.Mint,
			Owner:    info.Owner,
			Amount:   amount,
			Decimals: info.TokenAmount.Decimals,
		})
	}
	return accounts, nil
}

// GetTokenSupply returns the total supply of mint.
func (c *Client) GetTokenSupply(ctx context.Context, mint string) (*domain.SupplyInfo, error) {
	raw, err := c.rpc.Call(ctx, "getTokenSupply", []any{mint, c.config(nil)})
	if err != nil {
		return nil, err
	}
	var res contextValue[uiTokenAmount]
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode getTokenSupply: %w", err)
	}
	supplyRaw, err := decimal.NewFromString(res.Value.Amount)
	if err != nil {
		return nil, fmt.Errorf("decode getTokenSupply amount %q: %w", res.Value.Amount, err)
	}
	return &domain.SupplyInfo{
		Raw:      supplyRaw,
		Decimals: res.Value.Decimals,
		Amount:   supplyRaw.Shift(-int32(res.Value.Decimals)),
	}, nil
}

// GetTokenLargestAccounts returns the largest token accounts of mint, largest first.
// Owner is not resolved; Holder.TokenAccount carries the account address.
func (c *Client) GetTokenLargestAccounts(ctx context.Context, mint string) (*domain.HolderDistribution, error) {
	raw, err := c.rpc.Call(ctx, "getTokenLargestAccounts", []any{mint, c.config(nil)})
	if err != nil {
		return nil, err
	}
	var res contextValue[[]struct {
		Address string `json:"address"`
		uiTokenAmount
	}]
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode getTokenLargestAccounts: %w", err)
	}

	dist := &domain.HolderDistribution{Mint: mint, Holders: make([]domain.Holder, 0, len(res.Value))}
	for _, v := range res.Value {
		amount, err := decimal.NewFromString(v.Amount)
		if err != nil {
			continue
		}
		dist.Holders = append(dist.Holders, domain.Holder{TokenAccount: v.Address, Amount: amount})
	}
	return dist, nil
}

// GetLatestActivity returns the newest signature involving address, or nil
// when the address has no history.
func (c *Client) GetLatestActivity(ctx context.Context, address string) (*domain.Activity, error) {
	raw, err := c.rpc.Call(ctx, "getSignaturesForAddress", []any{
		address,
		c.config(map[string]any{"limit": 1}),
	})
	if err != nil {
		return nil, err
	}
	var sigs []struct {
		Signature string `json:"signature"`
		Slot      uint64 `json:"slot"`
		BlockTime *int64 `json:"blockTime"`
	}
	if err := json.Unmarshal(raw, &sigs); err != nil {
		return nil, fmt.Errorf("decode getSignaturesForAddress: %w", err)
	}
	if len(sigs) == 0 {
		return nil, nil
	}

	act := &domain.Activity{Signature: sigs[0].Signature, Slot: sigs[0].Slot}
	if sigs[0].BlockTime != nil {
		act.BlockTime = time.Unix(*sigs[0].BlockTime, 0).UTC()
	}
	return act, nil
}

// GetCurrentEndpoint returns the endpoint the transport is pinned to.
func (c *Client) GetCurrentEndpoint() domain.Endpoint {
	return c.rpc.CurrentEndpoint()
}

// GetAllEndpoints returns a copy of the configured endpoints in priority order.
func (c *Client) GetAllEndpoints() []domain.Endpoint {
	return append([]domain.Endpoint(nil), c.rpc.Endpoints()...)
}

func (c *Client) config(extra map[string]any) map[string]any {
	cfg := map[string]any{"commitment": c.commitment}
	for k, v := range extra {
		cfg[k] = v
	}
	return cfg
}
