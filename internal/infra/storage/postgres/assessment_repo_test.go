package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/tradedesk/internal/core/domain"
)

func TestAssessmentRow_ToDomain(t *testing.T) {
	id := uuid.New()
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.FixedZone("x", 3600))
	row := assessmentRow{
		ID:             id,
		Mint:           "M1",
		LPLocked:       sql.NullFloat64{Float64: 30, Valid: true},
		DeployerActive: true,
		Score:          50,
		Level:          "medium",
		Flags:          []byte(`[{"type":"low_lp","severity":"warning","message":"m"},{"type":"deployer_active","severity":"danger","message":"d"}]`),
		CreatedAt:      created,
	}

	rec, err := row.toDomain()
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	require.NotNil(t, rec.Signals.LPLockedPercentage)
	assert.Equal(t, 30.0, *rec.Signals.LPLockedPercentage)
	assert.Nil(t, rec.Signals.Top10HolderPercentage)
	assert.True(t, rec.Signals.DeployerActiveLast24h)
	assert.Equal(t, domain.RiskLevelMedium, rec.Assessment.Level)
	require.Len(t, rec.Assessment.Flags, 2)
	assert.Equal(t, domain.RiskFlagDeployerActive, rec.Assessment.Flags[1].Type)
	assert.Equal(t, time.UTC, rec.CreatedAt.Location())
}

func TestAssessmentRow_EmptyFlags(t *testing.T) {
	rec, err := assessmentRow{ID: uuid.New(), Level: "low", Flags: []byte(`[]`)}.toDomain()
	require.NoError(t, err)
	assert.NotNil(t, rec.Assessment.Flags)
	assert.Empty(t, rec.Assessment.Flags)
}

func TestAssessmentRow_BadFlags(t *testing.T) {
	_, err := assessmentRow{ID: uuid.New(), Flags: []byte(`{`)}.toDomain()
	assert.Error(t, err)
}

func TestFlagTypes(t *testing.T) {
	assert.Equal(t, []string{"low_lp", "high_concentration"}, flagTypes([]domain.RiskFlag{
		{Type: domain.RiskFlagLowLP},
		{Type: domain.RiskFlagHighConcentration},
	}))
	assert.Empty(t, flagTypes(nil))
}

func TestNullFloatRoundTrip(t *testing.T) {
	v := 12.5
	assert.Equal(t, &v, floatPtr(nullFloat(&v)))
	assert.Nil(t, floatPtr(nullFloat(nil)))
}
