package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vietddude/tradedesk/internal/core/domain"
	"github.com/vietddude/tradedesk/internal/infra/storage"
)

// AssessmentRepo implements storage.AssessmentRepository using PostgreSQL.
type AssessmentRepo struct {
	db *DB
}

var _ storage.AssessmentRepository = (*AssessmentRepo)(nil)

// NewAssessmentRepo creates a new PostgreSQL assessment repository.
func NewAssessmentRepo(db *DB) *AssessmentRepo {
	return &AssessmentRepo{db: db}
}

type assessmentRow struct {
	ID             uuid.UUID       `db:"id"`
	Mint           string          `db:"mint"`
	LPLocked       sql.NullFloat64 `db:"lp_locked_percentage"`
	Top10          sql.NullFloat64 `db:"top10_holder_percentage"`
	DeployerActive bool            `db:"deployer_active"`
	Score          float64         `db:"score"`
	Level          string          `db:"level"`
	FlagTypes      pq.StringArray  `db:"flag_types"`
	Flags          []byte          `db:"flags"`
	CreatedAt      time.Time       `db:"created_at"`
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func flagTypes(flags []domain.RiskFlag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f.Type)
	}
	return out
}

func (r assessmentRow) toDomain() (*domain.AssessmentRecord, error) {
	var flags []domain.RiskFlag
	if len(r.Flags) > 0 {
		if err := json.Unmarshal(r.Flags, &flags); err != nil {
			return nil, fmt.Errorf("failed to decode flags for %s: %w", r.ID, err)
		}
	}
	if flags == nil {
		flags = []domain.RiskFlag{}
	}
	return &domain.AssessmentRecord{
		ID:   r.ID,
		Mint: r.Mint,
		Signals: domain.RiskSignals{
			LPLockedPercentage:    floatPtr(r.LPLocked),
			Top10HolderPercentage: floatPtr(r.Top10),
			DeployerActiveLast24h: r.DeployerActive,
		},
		Assessment: domain.RiskAssessment{
			Score: r.Score,
			Level: domain.RiskLevel(r.Level),
			Flags: flags,
		},
		CreatedAt: r.CreatedAt.UTC(),
	}, nil
}

// Save inserts an assessment record.
func (r *AssessmentRepo) Save(ctx context.Context, rec *domain.AssessmentRecord) error {
	flags := rec.Assessment.Flags
	if flags == nil {
		flags = []domain.RiskFlag{}
	}
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("failed to encode flags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO risk_assessments (
			id, mint, lp_locked_percentage, top10_holder_percentage, deployer_active,
			score, level, flag_types, flags, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.Mint,
		nullFloat(rec.Signals.LPLockedPercentage),
		nullFloat(rec.Signals.Top10HolderPercentage),
		rec.Signals.DeployerActiveLast24h,
		rec.Assessment.Score, string(rec.Assessment.Level),
		pq.Array(flagTypes(flags)), flagsJSON, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}
	return nil
}

// ListByMint returns the newest assessments for mint.
func (r *AssessmentRepo) ListByMint(
	ctx context.Context,
	mint string,
	limit int,
) ([]*domain.AssessmentRecord, error) {
	var rows []assessmentRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, mint, lp_locked_percentage, top10_holder_percentage, deployer_active,
		       score, level, flag_types, flags, created_at
		FROM risk_assessments
		WHERE mint = $1
		ORDER BY created_at DESC
		LIMIT $2`, mint, storage.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	out := make([]*domain.AssessmentRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
