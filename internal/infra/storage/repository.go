package storage

import (
	"context"

	"github.com/vietddude/tradedesk/internal/core/domain"
)

// DefaultListLimit caps history queries when the caller passes no limit.
const DefaultListLimit = 50

// AssessmentRepository stores risk assessment history
type AssessmentRepository interface {
	// Save persists a record; ID and CreatedAt must already be set
	Save(ctx context.Context, rec *domain.AssessmentRecord) error

	// ListByMint returns the newest records for mint, newest first
	ListByMint(ctx context.Context, mint string, limit int) ([]*domain.AssessmentRecord, error)
}

// NormalizeLimit maps non-positive limits to DefaultListLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
