package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/tradedesk/internal/core/domain"
)

func record(mint string, at time.Time, score float64) *domain.AssessmentRecord {
	return &domain.AssessmentRecord{
		ID:        uuid.New(),
		Mint:      mint,
		CreatedAt: at,
		Assessment: domain.RiskAssessment{
			Score: score,
			Level: domain.RiskLevelLow,
			Flags: []domain.RiskFlag{{Type: domain.RiskFlagLowLP, Severity: domain.SeverityWarning}},
		},
	}
}

func TestAssessmentRepo_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewAssessmentRepo(NewMemoryStorage())
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, record("M1", base, 1)))
	require.NoError(t, repo.Save(ctx, record("M1", base.Add(2*time.Hour), 3)))
	require.NoError(t, repo.Save(ctx, record("M1", base.Add(time.Hour), 2)))
	require.NoError(t, repo.Save(ctx, record("M2", base, 9)))

	recs, err := repo.ListByMint(ctx, "M1", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 3.0, recs[0].Assessment.Score)
	assert.Equal(t, 2.0, recs[1].Assessment.Score)

	all, err := repo.ListByMint(ctx, "M1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := repo.ListByMint(ctx, "unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAssessmentRepo_SaveCopiesRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewAssessmentRepo(NewMemoryStorage())
	rec := record("M1", time.Now(), 5)
	require.NoError(t, repo.Save(ctx, rec))

	rec.Assessment.Score = 99
	rec.Assessment.Flags[0].Message = "mutated"

	recs, err := repo.ListByMint(ctx, "M1", 1)
	require.NoError(t, err)
	assert.Equal(t, 5.0, recs[0].Assessment.Score)
	assert.Empty(t, recs[0].Assessment.Flags[0].Message)
}

func TestAssessmentRepo_CopiesSignalsAndEmptyFlags(t *testing.T) {
	ctx := context.Background()
	repo := NewAssessmentRepo(NewMemoryStorage())

	lp := 80.0
	rec := record("M1", time.Now(), 0)
	rec.Assessment.Flags = nil
	rec.Signals.LPLockedPercentage = &lp
	require.NoError(t, repo.Save(ctx, rec))

	lp = 1
	recs, err := repo.ListByMint(ctx, "M1", 1)
	require.NoError(t, err)
	require.NotNil(t, recs[0].Signals.LPLockedPercentage)
	assert.Equal(t, 80.0, *recs[0].Signals.LPLockedPercentage)
	assert.Nil(t, recs[0].Signals.Top10HolderPercentage)

	*recs[0].Signals.LPLockedPercentage = 5
	again, err := repo.ListByMint(ctx, "M1", 1)
	require.NoError(t, err)
	assert.Equal(t, 80.0, *again[0].Signals.LPLockedPercentage)

	out, err := json.Marshal(again[0].Assessment)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"flags":[]`)
}
