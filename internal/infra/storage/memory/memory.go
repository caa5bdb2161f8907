package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/tradedesk/internal/core/domain"
	"github.com/vietddude/tradedesk/internal/infra/storage"
)

// MemoryStorage keeps assessment history in process memory.
type MemoryStorage struct {
	assessments map[string][]*domain.AssessmentRecord
	mu          sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		assessments: make(map[string][]*domain.AssessmentRecord),
	}
}

// -----------------------------------------------------------------------------
// Assessment Repository
// -----------------------------------------------------------------------------

type AssessmentRepo struct {
	store *MemoryStorage
}

var _ storage.AssessmentRepository = (*AssessmentRepo)(nil)

func NewAssessmentRepo(store *MemoryStorage) *AssessmentRepo {
	return &AssessmentRepo{store: store}
}

// cloneRecord deep-copies rec so stored history never aliases caller memory.
// Flags is always non-nil so the JSON shape matches the postgres repo.
func cloneRecord(rec *domain.AssessmentRecord) *domain.AssessmentRecord {
	cp := *rec
	cp.Assessment.Flags = make([]domain.RiskFlag, len(rec.Assessment.Flags))
	copy(cp.Assessment.Flags, rec.Assessment.Flags)
	cp.Signals.LPLockedPercentage = cloneFloat(rec.Signals.LPLockedPercentage)
	cp.Signals.Top10HolderPercentage = cloneFloat(rec.Signals.Top10HolderPercentage)
	return &cp
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

func (r *AssessmentRepo) Save(ctx context.Context, rec *domain.AssessmentRecord) error {
	cp := cloneRecord(rec)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.assessments[rec.Mint] = append(r.store.assessments[rec.Mint], cp)
	return nil
}

func (r *AssessmentRepo) ListByMint(
	ctx context.Context,
	mint string,
	limit int,
) ([]*domain.AssessmentRecord, error) {
	limit = storage.NormalizeLimit(limit)

	r.store.mu.RLock()
	recs := append([]*domain.AssessmentRecord(nil), r.store.assessments[mint]...)
	r.store.mu.RUnlock()

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}

	out := make([]*domain.AssessmentRecord, len(recs))
	for i, rec := range recs {
		out[i] = cloneRecord(rec)
	}
	return out, nil
}
