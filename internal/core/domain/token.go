package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenOverview is the market summary of a token.
type TokenOverview struct {
	Address           string  `json:"address"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Decimals          int     `json:"decimals"`
	LogoURI           string  `json:"logo_uri,omitempty"`
	PriceUSD          float64 `json:"price_usd"`
	PriceChange24hPct float64 `json:"price_change_24h_pct"`
	LiquidityUSD      float64 `json:"liquidity_usd"`
	MarketCapUSD      float64 `json:"market_cap_usd"`
	Volume24hUSD      float64 `json:"volume_24h_usd"`
	Holders           int     `json:"holders"`
	Supply            float64 `json:"supply"`
}

// Holder is one entry of a token's holder list.
type Holder struct {
	Owner        string          `json:"owner"`
	TokenAccount string          `json:"token_account"`
	Amount       decimal.Decimal `json:"amount"`
}

// HolderDistribution lists the largest holders of a token, largest first.
type HolderDistribution struct {
	Mint    string   `json:"mint"`
	Holders []Holder `json:"holders"`
}

// TopShare returns the percentage of supply held by the first n holders.
// ok is false when supply is not positive.
func (d HolderDistribution) TopShare(n int, supply decimal.Decimal) (pct float64, ok bool) {
	if !supply.IsPositive() {
		return 0, false
	}
	sum := decimal.Zero
	for i, h := range d.Holders {
		if i >= n {
			break
		}
		sum = sum.Add(h.Amount)
	}
	pct, _ = sum.Div(supply).Mul(decimal.NewFromInt(100)).Float64()
	return pct, true
}

// TokenSecurity carries ownership facts about a token mint.
type TokenSecurity struct {
	Address        string `json:"address"`
	CreatorAddress string `json:"creator_address"`
	OwnerAddress   string `json:"owner_address,omitempty"`
	// Top10HolderPercent is in [0,100]; nil when the provider did not report it.
	Top10HolderPercent *float64 `json:"top10_holder_percent,omitempty"`
	Mutable            bool     `json:"mutable"`
}

// NewPair is a freshly listed token/pair.
type NewPair struct {
	Address      string    `json:"address"`
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	Decimals     int       `json:"decimals"`
	Source       string    `json:"source"`
	LiquidityUSD float64   `json:"liquidity_usd"`
	ListedAt     time.Time `json:"listed_at"`
}

// TrendingToken is one ranked entry of the trending list.
type TrendingToken struct {
	Rank              int     `json:"rank"`
	Address           string  `json:"address"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	PriceUSD          float64 `json:"price_usd"`
	PriceChange24hPct float64 `json:"price_change_24h_pct"`
	LiquidityUSD      float64 `json:"liquidity_usd"`
	Volume24hUSD      float64 `json:"volume_24h_usd"`
}

// LiquidityPool is a DEX pool as reported by the pool indexer.
type LiquidityPool struct {
	Address       string    `json:"address"`
	Name          string    `json:"name"`
	Dex           string    `json:"dex"`
	BaseTokenID   string    `json:"base_token_id"`
	QuoteTokenID  string    `json:"quote_token_id"`
	BasePriceUSD  float64   `json:"base_price_usd"`
	ReserveUSD    float64   `json:"reserve_usd"`
	FDVUSD        float64   `json:"fdv_usd"`
	Volume24hUSD  float64   `json:"volume_24h_usd"`
	PriceChange24 float64   `json:"price_change_24h_pct"`
	CreatedAt     time.Time `json:"created_at"`
}
