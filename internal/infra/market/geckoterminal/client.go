// Package geckoterminal reads DEX pool data from the GeckoTerminal API.
package geckoterminal

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/vietddude/tradedesk/internal/core/domain"
	"github.com/vietddude/tradedesk/internal/infra/httpapi"
)

const (
	DefaultBaseURL = "https://api.geckoterminal.com/api/v2"
	DefaultNetwork = "solana"
)

// Client is a typed GeckoTerminal client bound to one network.
type Client struct {
	api     *httpapi.Client
	network string
}

// New builds a client for network.
func New(baseURL, network string, opts ...httpapi.Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if network == "" {
		network = DefaultNetwork
	}
	all := append([]httpapi.Option{
		httpapi.WithHeader("Accept", "application/json;version=20230302"),
	}, opts...)
	api, err := httpapi.New("geckoterminal", baseURL, all...)
	if err != nil {
		return nil, err
	}
	return &Client{api: api, network: network}, nil
}

type relation struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type poolResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Address               string            `json:"address"`
		Name                  string            `json:"name"`
		BaseTokenPriceUSD     *string           `json:"base_token_price_usd"`
		ReserveInUSD          *string           `json:"reserve_in_usd"`
		FDVUSD                *string           `json:"fdv_usd"`
		PoolCreatedAt         string            `json:"pool_created_at"`
		VolumeUSD             map[string]string `json:"volume_usd"`
		PriceChangePercentage map[string]string `json:"price_change_percentage"`
	} `json:"attributes"`
	Relationships struct {
		BaseToken  relation `json:"base_token"`
		QuoteToken relation `json:"quote_token"`
		Dex        relation `json:"dex"`
	} `json:"relationships"`
}

func (r poolResource) toDomain() domain.LiquidityPool {
	a := r.Attributes
	p := domain.LiquidityPool{
		Address:       a.Address,
		Name:          a.Name,
		Dex:           r.Relationships.Dex.Data.ID,
		BaseTokenID:   r.Relationships.BaseToken.Data.ID,
		QuoteTokenID:  r.Relationships.QuoteToken.Data.ID,
		BasePriceUSD:  number(a.BaseTokenPriceUSD),
		ReserveUSD:    number(a.ReserveInUSD),
		FDVUSD:        number(a.FDVUSD),
		Volume24hUSD:  numberAt(a.VolumeUSD, "h24"),
		PriceChange24: numberAt(a.PriceChangePercentage, "h24"),
	}
	if ts, err := time.Parse(time.RFC3339, a.PoolCreatedAt); err == nil {
		p.CreatedAt = ts.UTC()
	}
	return p
}

// number parses an optional decimal string; absent or malformed values are 0.
func number(s *string) float64 {
	if s == nil {
		return 0
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return 0
	}
	return f
}

func numberAt(m map[string]string, key string) float64 {
	v, ok := m[key]
	if !ok {
		return 0
	}
	return number(&v)
}

type single struct {
	Data poolResource `json:"data"`
}

type list struct {
	Data []poolResource `json:"data"`
}

func (c *Client) pools(ctx context.Context, path string, q url.Values) ([]domain.LiquidityPool, error) {
	res, err := httpapi.Get[list](ctx, c.api, path, q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LiquidityPool, 0, len(res.Data))
	for _, r := range res.Data {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func pageQuery(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

// Pool returns the pool at address.
func (c *Client) Pool(ctx context.Context, address string) (*domain.LiquidityPool, error) {
	path := "/networks/" + url.PathEscape(c.network) + "/pools/" + url.PathEscape(address)
	res, err := httpapi.Get[single](ctx, c.api, path, nil)
	if err != nil {
		return nil, err
	}
	p := res.Data.toDomain()
	return &p, nil
}

// NewPools returns recently created pools. Pages start at 1.
func (c *Client) NewPools(ctx context.Context, page int) ([]domain.LiquidityPool, error) {
	return c.pools(ctx, "/networks/"+url.PathEscape(c.network)+"/new_pools", pageQuery(page))
}

// TrendingPools returns trending pools. Pages start at 1.
func (c *Client) TrendingPools(ctx context.Context, page int) ([]domain.LiquidityPool, error) {
	return c.pools(ctx, "/networks/"+url.PathEscape(c.network)+"/trending_pools", pageQuery(page))
}

// TokenPools returns the top pools trading token.
func (c *Client) TokenPools(ctx context.Context, token string) ([]domain.LiquidityPool, error) {
	path := "/networks/" + url.PathEscape(c.network) + "/tokens/" + url.PathEscape(token) + "/pools"
	return c.pools(ctx, path, nil)
}
