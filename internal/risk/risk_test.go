package risk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/tradedesk/internal/core/domain"
)

func pct(v float64) *float64 { return &v }

func flagTypes(a domain.RiskAssessment) []domain.RiskFlagType {
	out := make([]domain.RiskFlagType, 0, len(a.Flags))
	for _, f := range a.Flags {
		out = append(out, f.Type)
	}
	return out
}

func TestAssess_WorkedExample(t *testing.T) {
	a := Assess(pct(30), pct(70), true)

	assert.Equal(t, 70.0, a.Score)
	assert.Equal(t, domain.RiskLevelHigh, a.Level)
	require.Len(t, a.Flags, 3)
	assert.Equal(t, []domain.RiskFlagType{
		domain.RiskFlagLowLP,
		domain.RiskFlagHighConcentration,
		domain.RiskFlagDeployerActive,
	}, flagTypes(a))

	// lp=30 is not below 30, top10=70 is not above 70
	assert.Equal(t, domain.SeverityWarning, a.Flags[0].Severity)
	assert.Equal(t, domain.SeverityWarning, a.Flags[1].Severity)
	assert.Equal(t, domain.SeverityDanger, a.Flags[2].Severity)

	assert.Contains(t, a.Flags[0].Message, "30.00")
	assert.Contains(t, a.Flags[0].Message, "20.00")
	assert.Contains(t, a.Flags[1].Message, "70.00")
	assert.Contains(t, a.Flags[1].Message, "20.00")
}

func TestAssess_Boundaries(t *testing.T) {
	a := Assess(pct(50), pct(50), false)
	assert.Equal(t, 0.0, a.Score)
	assert.Equal(t, domain.RiskLevelLow, a.Level)
	assert.Empty(t, a.Flags)

	a = Assess(pct(0), pct(100), true)
	assert.Equal(t, 130.0, a.Score)
	assert.Equal(t, domain.RiskLevelCritical, a.Level)
	require.Len(t, a.Flags, 3)
	assert.Equal(t, domain.SeverityDanger, a.Flags[0].Severity)
	assert.Equal(t, domain.SeverityDanger, a.Flags[1].Severity)
}

func TestAssess_NoSignals(t *testing.T) {
	a := Assess(nil, nil, false)
	assert.Equal(t, 0.0, a.Score)
	assert.Equal(t, domain.RiskLevelLow, a.Level)
	assert.NotNil(t, a.Flags)
	assert.Empty(t, a.Flags)
}

func TestAssess_PartialData(t *testing.T) {
	a := Assess(nil, pct(80), false)
	assert.Equal(t, 30.0, a.Score)
	assert.Equal(t, domain.RiskLevelLow, a.Level)
	assert.Equal(t, []domain.RiskFlagType{domain.RiskFlagHighConcentration}, flagTypes(a))
	assert.Equal(t, domain.SeverityDanger, a.Flags[0].Severity)
}

func TestAssess_Severity(t *testing.T) {
	tests := []struct {
		name string
		lp   *float64
		top  *float64
		want domain.Severity
	}{
		{"lp just under danger", pct(29.99), nil, domain.SeverityDanger},
		{"lp warning band", pct(45), nil, domain.SeverityWarning},
		{"concentration warning band", nil, pct(60), domain.SeverityWarning},
		{"concentration just over danger", nil, pct(70.01), domain.SeverityDanger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assess(tt.lp, tt.top, false)
			require.Len(t, a.Flags, 1)
			assert.Equal(t, tt.want, a.Flags[0].Severity)
		})
	}
}

func TestLevelFor_Bands(t *testing.T) {
	tests := []struct {
		score float64
		want  domain.RiskLevel
	}{
		{0, domain.RiskLevelLow},
		{30, domain.RiskLevelLow},
		{30.0001, domain.RiskLevelMedium},
		{60, domain.RiskLevelMedium},
		{60.5, domain.RiskLevelHigh},
		{80, domain.RiskLevelHigh},
		{80.0001, domain.RiskLevelCritical},
		{200, domain.RiskLevelCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.score), "score %v", tt.score)
	}
}

func TestLevelFor_TotalOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 10000; i++ {
		score := rng.Float64() * 200

		matches := 0
		var expected domain.RiskLevel
		if score <= 30 {
			matches++
			expected = domain.RiskLevelLow
		}
		if score > 30 && score <= 60 {
			matches++
			expected = domain.RiskLevelMedium
		}
		if score > 60 && score <= 80 {
			matches++
			expected = domain.RiskLevelHigh
		}
		if score > 80 {
			matches++
			expected = domain.RiskLevelCritical
		}

		require.Equal(t, 1, matches, "score %v matched %d bands", score, matches)
		require.Equal(t, expected, LevelFor(score), "score %v", score)
	}
}

func TestAssess_Idempotent(t *testing.T) {
	first := Assess(pct(12.5), pct(91.25), true)
	second := Assess(pct(12.5), pct(91.25), true)
	assert.Equal(t, first, second)

	s := domain.RiskSignals{
		LPLockedPercentage:    pct(12.5),
		Top10HolderPercentage: pct(91.25),
		DeployerActiveLast24h: true,
	}
	assert.Equal(t, first, AssessSignals(s))
}

func TestAssess_ScoreNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		a := Assess(pct(rng.Float64()*100), pct(rng.Float64()*100), rng.Intn(2) == 1)
		require.GreaterOrEqual(t, a.Score, 0.0)
	}
}
