// Package risk scores a token from three on-chain signals.
//
// Assess is pure: no I/O, clock or randomness. Each signal adds a
// non-negative amount to the score and raises at most one flag, so the
// score is never negative and flags always appear in the order
// low_lp, high_concentration, deployer_active.
package risk

import (
	"fmt"

	"github.com/vietddude/tradedesk/internal/core/domain"
)

const (
	// LPLockedThreshold is the locked-liquidity percentage below which risk accrues.
	LPLockedThreshold = 50.0
	// LPLockedDanger marks a low_lp flag as danger when locked liquidity is below it.
	LPLockedDanger = 30.0

	// ConcentrationThreshold is the top-10 share above which risk accrues.
	ConcentrationThreshold = 50.0
	// ConcentrationDanger marks a high_concentration flag as danger above it.
	ConcentrationDanger = 70.0

	// DeployerActiveRisk is added when the deployer moved in the last 24h.
	DeployerActiveRisk = 30.0
)

// Level band upper bounds, inclusive.
const (
	LowMax    = 30.0
	MediumMax = 60.0
	HighMax   = 80.0
)

const deployerActiveMessage = "Deployer wallet was active in the last 24 hours"

// Assess computes the risk score, level and flags for the given signals.
func Assess(lpLockedPercentage, top10HolderPercentage *float64, deployerActiveLast24h bool) domain.RiskAssessment {
	score := 0.0
	flags := make([]domain.RiskFlag, 0, 3)

	if lp := lpLockedPercentage; lp != nil && *lp < LPLockedThreshold {
		r := LPLockedThreshold - *lp
		score += r
		severity := domain.SeverityWarning
		if *lp < LPLockedDanger {
			severity = domain.SeverityDanger
		}
		flags = append(flags, domain.RiskFlag{
			Type:     domain.RiskFlagLowLP,
			Severity: severity,
			Message:  fmt.Sprintf("Only %s%% of liquidity is locked (+%s risk)", formatPct(*lp), formatPct(r)),
		})
	}

	if top := top10HolderPercentage; top != nil && *top > ConcentrationThreshold {
		r := *top - ConcentrationThreshold
		score += r
		severity := domain.SeverityWarning
		if *top > ConcentrationDanger {
			severity = domain.SeverityDanger
		}
		flags = append(flags, domain.RiskFlag{
			Type:     domain.RiskFlagHighConcentration,
			Severity: severity,
			Message:  fmt.Sprintf("Top 10 holders own %s%% of supply (+%s risk)", formatPct(*top), formatPct(r)),
		})
	}

	if deployerActiveLast24h {
		score += DeployerActiveRisk
		flags = append(flags, domain.RiskFlag{
			Type:     domain.RiskFlagDeployerActive,
			Severity: domain.SeverityDanger,
			Message:  deployerActiveMessage,
		})
	}

	return domain.RiskAssessment{
		Score: score,
		Level: LevelFor(score),
		Flags: flags,
	}
}

// AssessSignals is Assess over a RiskSignals value.
func AssessSignals(s domain.RiskSignals) domain.RiskAssessment {
	return Assess(s.LPLockedPercentage, s.Top10HolderPercentage, s.DeployerActiveLast24h)
}

// LevelFor maps a score to its band. Band bounds belong to the lower band.
func LevelFor(score float64) domain.RiskLevel {
	switch {
	case score <= LowMax:
		return domain.RiskLevelLow
	case score <= MediumMax:
		return domain.RiskLevelMedium
	case score <= HighMax:
		return domain.RiskLevelHigh
	default:
		return domain.RiskLevelCritical
	}
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
