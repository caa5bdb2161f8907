package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// AccountInfo is the on-chain state of a single account.
type AccountInfo struct {
	Lamports   uint64          `json:"lamports"`
	Owner      string          `json:"owner"`
	Executable bool            `json:"executable"`
	RentEpoch  uint64          `json:"rentEpoch"`
	Space      uint64          `json:"space"`
	Data       json.RawMessage `json:"data"`
}

// TokenAccount is an SPL token account held by an owner.
type TokenAccount struct {
	Pubkey   string          `json:"pubkey"`
	Mint     string          `json:"mint"`
	Owner    string          `json:"owner"`
	Amount   decimal.Decimal `json:"amount"`
	Decimals uint8           `json:"decimals"`
}

// SupplyInfo describes the total supply of a token mint.
type SupplyInfo struct {
	// Raw is the supply in base units.
	Raw      decimal.Decimal `json:"raw"`
	Decimals uint8           `json:"decimals"`
	// Amount is Raw shifted by Decimals.
	Amount decimal.Decimal `json:"amount"`
}

// Activity is the most recent signature recorded for an address.
type Activity struct {
	Signature string    `json:"signature"`
	Slot      uint64    `json:"slot"`
	BlockTime time.Time `json:"block_time"`
}
