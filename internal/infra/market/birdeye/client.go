// Package birdeye reads token market data from the Birdeye public API.
package birdeye

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vietddude/tradedesk/internal/core/domain"
	"github.com/vietddude/tradedesk/internal/infra/httpapi"
)

const (
	DefaultBaseURL = "https://public-api.birdeye.so"
	DefaultChain   = "solana"
)

// Client is a typed Birdeye client. Credentials are fixed at construction.
type Client struct {
	api *httpapi.Client
}

// New builds a client. opts are applied after the auth headers.
func New(baseURL, apiKey, chain string, opts ...httpapi.Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if chain == "" {
		chain = DefaultChain
	}
	all := append([]httpapi.Option{
		httpapi.WithHeader("X-API-KEY", apiKey),
		httpapi.WithHeader("x-chain", chain),
	}, opts...)
	api, err := httpapi.New("birdeye", baseURL, all...)
	if err != nil {
		return nil, err
	}
	return &Client{api: api}, nil
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func get[T any](ctx context.Context, c *Client, path string, q url.Values) (T, error) {
	env, err := httpapi.Get[envelope[T]](ctx, c.api, path, q)
	if err != nil {
		var zero T
		return zero, err
	}
	if !env.Success {
		var zero T
		msg := env.Message
		if msg == "" {
			msg = "request unsuccessful"
		}
		return zero, &httpapi.Error{Kind: httpapi.KindParse, Message: msg, Endpoint: path}
	}
	return env.Data, nil
}

type overviewData struct {
	Address               string  `json:"address"`
	Symbol                string  `json:"symbol"`
	Name                  string  `json:"name"`
	Decimals              int     `json:"decimals"`
	LogoURI               string  `json:"logoURI"`
	Price                 float64 `json:"price"`
	PriceChange24hPercent float64 `json:"priceChange24hPercent"`
	Liquidity             float64 `json:"liquidity"`
	MarketCap             float64 `json:"marketCap"`
	MC                    float64 `json:"mc"`
	V24hUSD               float64 `json:"v24hUSD"`
	Holder                int     `json:"holder"`
	Supply                float64 `json:"supply"`
}

// TokenOverview returns the market summary of address.
func (c *Client) TokenOverview(ctx context.Context, address string) (*domain.TokenOverview, error) {
	d, err := get[overviewData](ctx, c, "/defi/token_overview", url.Values{"address": {address}})
	if err != nil {
		return nil, err
	}
	mcap := d.MarketCap
	if mcap == 0 {
		mcap = d.MC
	}
	return &domain.TokenOverview{
		Address:           d.Address,
		Symbol:            d.Symbol,
		Name:              d.Name,
		Decimals:          d.Decimals,
		LogoURI:           d.LogoURI,
		PriceUSD:          d.Price,
		PriceChange24hPct: d.PriceChange24hPercent,
		LiquidityUSD:      d.Liquidity,
		MarketCapUSD:      mcap,
		Volume24hUSD:      d.V24hUSD,
		Holders:           d.Holder,
		Supply:            d.Supply,
	}, nil
}

type holderData struct {
	Items []struct {
		Owner        string `json:"owner"`
		TokenAccount string `json:"token_account"`
		Amount       string `json:"amount"`
	} `json:"items"`
}

// HolderDistribution returns the top limit holders of address, largest first.
// Amounts are in base units.
func (c *Client) HolderDistribution(ctx context.Context, address string, limit int) (*domain.HolderDistribution, error) {
	q := url.Values{
		"address": {address},
		"offset":  {"0"},
		"limit":   {strconv.Itoa(limit)},
	}
	d, err := get[holderData](ctx, c, "/defi/v3/token/holder", q)
	if err != nil {
		return nil, err
	}
	dist := &domain.HolderDistribution{Mint: address, Holders: make([]domain.Holder, 0, len(d.Items))}
	for _, it := range d.Items {
		amount, err := decimal.NewFromString(it.Amount)
		if err != nil {
			return nil, &httpapi.Error{
				Kind:     httpapi.KindParse,
				Message:  fmt.Sprintf("holder %s amount %q", it.Owner, it.Amount),
				Endpoint: "/defi/v3/token/holder",
				Err:      err,
			}
		}
		dist.Holders = append(dist.Holders, domain.Holder{
			Owner:        it.Owner,
			TokenAccount: it.TokenAccount,
			Amount:       amount,
		})
	}
	return dist, nil
}

type newListingData struct {
	Items []struct {
		Address          string  `json:"address"`
		Symbol           string  `json:"symbol"`
		Name             string  `json:"name"`
		Decimals         int     `json:"decimals"`
		Source           string  `json:"source"`
		Liquidity        float64 `json:"liquidity"`
		LiquidityAddedAt string  `json:"liquidityAddedAt"`
	} `json:"items"`
}

// NewPairs returns the most recent listings.
func (c *Client) NewPairs(ctx context.Context, limit int) ([]domain.NewPair, error) {
	d, err := get[newListingData](ctx, c, "/defi/v2/tokens/new_listing", url.Values{
		"limit": {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}
	pairs := make([]domain.NewPair, 0, len(d.Items))
	for _, it := range d.Items {
		p := domain.NewPair{
			Address:      it.Address,
			Symbol:       it.Symbol,
			Name:         it.Name,
			Decimals:     it.Decimals,
			Source:       it.Source,
			LiquidityUSD: it.Liquidity,
		}
		if ts, err := parseListingTime(it.LiquidityAddedAt); err == nil {
			p.ListedAt = ts
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

func parseListingTime(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", v)
}

type trendingData struct {
	Tokens []struct {
		Rank                  int     `json:"rank"`
		Address               string  `json:"address"`
		Symbol                string  `json:"symbol"`
		Name                  string  `json:"name"`
		Price                 float64 `json:"price"`
		Price24hChangePercent float64 `json:"price24hChangePercent"`
		Liquidity             float64 `json:"liquidity"`
		Volume24hUSD          float64 `json:"volume24hUSD"`
	} `json:"tokens"`
}

// TrendingTokens returns the trending list ranked ascending.
func (c *Client) TrendingTokens(ctx context.Context, offset, limit int) ([]domain.TrendingToken, error) {
	d, err := get[trendingData](ctx, c, "/defi/token_trending", url.Values{
		"sort_by":   {"rank"},
		"sort_type": {"asc"},
		"offset":    {strconv.Itoa(offset)},
		"limit":     {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.TrendingToken, 0, len(d.Tokens))
	for _, t := range d.Tokens {
		out = append(out, domain.TrendingToken{
			Rank:              t.Rank,
			Address:           t.Address,
			Symbol:            t.Symbol,
			Name:              t.Name,
			PriceUSD:          t.Price,
			PriceChange24hPct: t.Price24hChangePercent,
			LiquidityUSD:      t.Liquidity,
			Volume24hUSD:      t.Volume24hUSD,
		})
	}
	return out, nil
}

type securityData struct {
	CreatorAddress     string   `json:"creatorAddress"`
	OwnerAddress       string   `json:"ownerAddress"`
	Top10HolderPercent *float64 `json:"top10HolderPercent"`
	MutableMetadata    bool     `json:"mutableMetadata"`
}

// TokenSecurity returns ownership facts for address. The upstream reports
// top-10 concentration as a fraction; it is returned here as a percentage.
func (c *Client) TokenSecurity(ctx context.Context, address string) (*domain.TokenSecurity, error) {
	d, err := get[securityData](ctx, c, "/defi/token_security", url.Values{"address": {address}})
	if err != nil {
		return nil, err
	}
	sec := &domain.TokenSecurity{
		Address:        address,
		CreatorAddress: d.CreatorAddress,
		OwnerAddress:   d.OwnerAddress,
		Mutable:        d.MutableMetadata,
	}
	if d.Top10HolderPercent != nil {
		pct := *d.Top10HolderPercent * 100
		sec.Top10HolderPercent = &pct
	}
	return sec, nil
}
