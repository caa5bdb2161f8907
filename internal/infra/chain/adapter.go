package chain

import (
	"context"

	"github.com/vietddude/tradedesk/internal/core/domain"
)

// Reader defines the chain reads the analytics layer depends on.
// solana.Client is the only implementation.
type Reader interface {
	// GetCurrentSlot returns the chain head position
	GetCurrentSlot(ctx context.Context) (uint64, error)

	// GetAccountInfo returns account state, or nil when the account does not exist
	GetAccountInfo(ctx context.Context, address string) (*domain.AccountInfo, error)

	// GetTokenAccountsByOwner lists SPL token accounts held by owner
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]domain.TokenAccount, error)

	// GetTokenSupply returns the total supply of a mint
	GetTokenSupply(ctx context.Context, mint string) (*domain.SupplyInfo, error)

	// GetTokenLargestAccounts returns the biggest token accounts of a mint
	GetTokenLargestAccounts(ctx context.Context, mint string) (*domain.HolderDistribution, error)

	// GetLatestActivity returns the newest signature for address, or nil
	GetLatestActivity(ctx context.Context, address string) (*domain.Activity, error)

	// GetCurrentEndpoint returns the endpoint in use
	GetCurrentEndpoint() domain.Endpoint

	// GetAllEndpoints returns a copy of all configured endpoints
	GetAllEndpoints() []domain.Endpoint
}
