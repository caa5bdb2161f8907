// Package analytics gathers risk signals for a token and scores them.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/tradedesk/internal/core/domain"
	"github.com/vietddude/tradedesk/internal/infra/cache"
	"github.com/vietddude/tradedesk/internal/infra/httpapi"
	"github.com/vietddude/tradedesk/internal/infra/storage"
	"github.com/vietddude/tradedesk/internal/metrics"
	"github.com/vietddude/tradedesk/internal/risk"
)

const (
	topHolders     = 10
	deployerWindow = 24 * time.Hour
	defaultTTL     = 30 * time.Second
)

// ErrInvalidInput is returned for out-of-range caller input.
var ErrInvalidInput = errors.New("invalid input")

// MarketData is the token data source. birdeye.Client satisfies it.
type MarketData interface {
	TokenOverview(ctx context.Context, address string) (*domain.TokenOverview, error)
	HolderDistribution(ctx context.Context, address string, limit int) (*domain.HolderDistribution, error)
	TokenSecurity(ctx context.Context, address string) (*domain.TokenSecurity, error)
}

// ChainData is the on-chain source. solana.Client satisfies it.
type ChainData interface {
	GetTokenSupply(ctx context.Context, mint string) (*domain.SupplyInfo, error)
	GetTokenLargestAccounts(ctx context.Context, mint string) (*domain.HolderDistribution, error)
	GetLatestActivity(ctx context.Context, address string) (*domain.Activity, error)
}

// Overrides are signals supplied by the caller instead of fetched.
type Overrides struct {
	// LPLockedPercentage is in [0,100]; nil leaves the signal absent.
	LPLockedPercentage *float64
}

// Analyzer produces risk assessments and cached token overviews.
type Analyzer struct {
	market MarketData
	chain  ChainData
	repo   storage.AssessmentRepository
	cache  cache.Cache
	ttl    time.Duration
	now    func() time.Time
	log    *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithRepository persists every assessment to repo.
func WithRepository(repo storage.AssessmentRepository) Option {
	return func(a *Analyzer) { a.repo = repo }
}

// WithCache sets the overview cache and its TTL.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(a *Analyzer) {
		a.cache = c
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.log = l }
}

func NewAnalyzer(market MarketData, chain ChainData, opts ...Option) *Analyzer {
	a := &Analyzer{
		market: market,
		chain:  chain,
		cache:  cache.NewMemory(),
		ttl:    defaultTTL,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With("component", "analytics")
	return a
}

// Assess collects signals for mint, scores them and records the result.
// Upstream "not found" answers leave the matching signal absent; any other
// upstream failure fails the assessment.
func (a *Analyzer) Assess(ctx context.Context, mint string, o Overrides) (*domain.AssessmentRecord, error) {
	if mint == "" {
		return nil, fmt.Errorf("%w: mint is required", ErrInvalidInput)
	}
	if lp := o.LPLockedPercentage; lp != nil && (math.IsNaN(*lp) || *lp < 0 || *lp > 100) {
		return nil, fmt.Errorf("%w: lp locked percentage %v outside [0,100]", ErrInvalidInput, *lp)
	}

	var (
		sec      *domain.TokenSecurity
		holders  *domain.HolderDistribution
		supply   *domain.SupplyInfo
		activity *domain.Activity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sec, err = a.market.TokenSecurity(gctx, mint)
		if err = absentOnNotFound(err); err != nil {
			return fmt.Errorf("token security: %w", err)
		}
		if sec == nil || sec.CreatorAddress == "" {
			return nil
		}
		activity, err = a.chain.GetLatestActivity(gctx, sec.CreatorAddress)
		if err != nil {
			return fmt.Errorf("deployer activity: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		holders, err = a.market.HolderDistribution(gctx, mint, topHolders)
		if httpapi.IsNotFound(err) {
			holders, err = a.chain.GetTokenLargestAccounts(gctx, mint)
		}
		if err != nil {
			return fmt.Errorf("holders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		supply, err = a.chain.GetTokenSupply(gctx, mint)
		if err != nil {
			return fmt.Errorf("token supply: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := a.now()
	signals := domain.RiskSignals{
		LPLockedPercentage:    o.LPLockedPercentage,
		Top10HolderPercentage: topConcentration(holders, supply, sec),
		DeployerActiveLast24h: deployerActive(activity, now),
	}

	rec := &domain.AssessmentRecord{
		ID:         uuid.New(),
		Mint:       mint,
		Signals:    signals,
		Assessment: risk.AssessSignals(signals),
		CreatedAt:  now.UTC(),
	}
	metrics.RiskAssessmentsTotal.WithLabelValues(string(rec.Assessment.Level)).Inc()

	if a.repo != nil {
		if err := a.repo.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("save assessment: %w", err)
		}
	}

	a.log.Info("Risk assessed",
		"mint", mint,
		"score", rec.Assessment.Score,
		"level", rec.Assessment.Level,
		"flags", len(rec.Assessment.Flags),
	)
	return rec, nil
}

// History returns stored assessments for mint, newest first.
func (a *Analyzer) History(ctx context.Context, mint string, limit int) ([]*domain.AssessmentRecord, error) {
	if a.repo == nil {
		return []*domain.AssessmentRecord{}, nil
	}
	return a.repo.ListByMint(ctx, mint, limit)
}

// Overview returns the token overview, served from cache while fresh.
// Cache failures fall through to the upstream.
func (a *Analyzer) Overview(ctx context.Context, mint string) (*domain.TokenOverview, error) {
	key := "overview:" + mint
	if raw, ok, err := a.cache.Get(ctx, key); err != nil {
		a.log.Warn("Cache read failed", "key", key, "error", err)
	} else if ok {
		var ov domain.TokenOverview
		if err := json.Unmarshal(raw, &ov); err == nil {
			metrics.CacheLookupsTotal.WithLabelValues("overview", "hit").Inc()
			return &ov, nil
		}
	}
	metrics.CacheLookupsTotal.WithLabelValues("overview", "miss").Inc()

	ov, err := a.market.TokenOverview(ctx, mint)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(ov); err == nil {
		if err := a.cache.Set(ctx, key, raw, a.ttl); err != nil {
			a.log.Warn("Cache write failed", "key", key, "error", err)
		}
	}
	return ov, nil
}

func absentOnNotFound(err error) error {
	if httpapi.IsNotFound(err) {
		return nil
	}
	return err
}

// topConcentration prefers holder amounts over supply and falls back to the
// provider-reported figure. The result is clamped to [0,100].
func topConcentration(h *domain.HolderDistribution, s *domain.SupplyInfo, sec *domain.TokenSecurity) *float64 {
	if h != nil && s != nil && len(h.Holders) > 0 {
		if pct, ok := h.TopShare(topHolders, s.Raw); ok {
			pct = math.Min(math.Max(pct, 0), 100)
			return &pct
		}
	}
	if sec != nil && sec.Top10HolderPercent != nil {
		pct := math.Min(math.Max(*sec.Top10HolderPercent, 0), 100)
		return &pct
	}
	return nil
}

func deployerActive(act *domain.Activity, now time.Time) bool {
	if act == nil || act.BlockTime.IsZero() {
		return false
	}
	return now.Sub(act.BlockTime) <= deployerWindow
}
