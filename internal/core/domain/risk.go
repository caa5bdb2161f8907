package domain

import (
	"time"

	"github.com/google/uuid"
)

type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

type RiskFlagType string

const (
	RiskFlagLowLP             RiskFlagType = "low_lp"
	RiskFlagHighConcentration RiskFlagType = "high_concentration"
	RiskFlagDeployerActive    RiskFlagType = "deployer_active"
)

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// RiskFlag is a labelled warning raised by one risk signal.
type RiskFlag struct {
	Type     RiskFlagType `json:"type"`
	Severity Severity     `json:"severity"`
	Message  string       `json:"message"`
}

// RiskSignals are the inputs to a risk assessment. A nil percentage means
// the signal was not available and contributes no risk.
type RiskSignals struct {
	LPLockedPercentage    *float64 `json:"lp_locked_percentage"`
	Top10HolderPercentage *float64 `json:"top10_holder_percentage"`
	DeployerActiveLast24h bool     `json:"deployer_active_last_24h"`
}

// RiskAssessment is the derived score, level and flags for a set of signals.
type RiskAssessment struct {
	Score float64    `json:"score"`
	Level RiskLevel  `json:"level"`
	Flags []RiskFlag `json:"flags"`
}

// AssessmentRecord is a persisted assessment for a token mint.
type AssessmentRecord struct {
	ID         uuid.UUID      `json:"id"         db:"id"`
	Mint       string         `json:"mint"       db:"mint"`
	Signals    RiskSignals    `json:"signals"`
	Assessment RiskAssessment `json:"assessment"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}
