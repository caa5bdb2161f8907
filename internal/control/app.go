// Package control wires configuration into running components.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/tradedesk/internal/analytics"
	"github.com/vietddude/tradedesk/internal/core/config"
	"github.com/vietddude/tradedesk/internal/health"
	"github.com/vietddude/tradedesk/internal/infra/cache"
	"github.com/vietddude/tradedesk/internal/infra/chain"
	"github.com/vietddude/tradedesk/internal/infra/chain/solana"
	"github.com/vietddude/tradedesk/internal/infra/httpapi"
	"github.com/vietddude/tradedesk/internal/infra/market/birdeye"
	"github.com/vietddude/tradedesk/internal/infra/market/geckoterminal"
	redisclient "github.com/vietddude/tradedesk/internal/infra/redis"
	"github.com/vietddude/tradedesk/internal/infra/rpc"
	"github.com/vietddude/tradedesk/internal/infra/storage"
	"github.com/vietddude/tradedesk/internal/infra/storage/memory"
	"github.com/vietddude/tradedesk/internal/infra/storage/postgres"
	"github.com/vietddude/tradedesk/internal/server"
)

const (
	healthRefreshInterval = 15 * time.Second
	slotCacheTTL          = 400 * time.Millisecond
)

// App owns every long-lived component of the service.
type App struct {
	cfg      *config.AppConfig
	rpc      *rpc.Client
	chain    *solana.Client
	birdeye  *birdeye.Client
	gecko    *geckoterminal.Client
	analyzer *analytics.Analyzer
	health   *health.Monitor
	server   *server.Server
	db       *postgres.DB
	redis    *redisclient.Client
	log      *slog.Logger
}

// NewApp builds the application from cfg. Postgres is used when a database
// URL is configured, memory otherwise. Redis is optional and falls back to an
// in-process cache when unreachable.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	log := slog.Default()
	a := &App{cfg: cfg, log: log.With("component", "app")}

	// 1. Chain
	rpcClient, err := rpc.NewClient(cfg.Solana.Endpoints, cfg.Solana.Timeout, rpc.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("failed to init rpc client: %w", err)
	}
	a.rpc = rpcClient
	a.chain = solana.NewClient(rpcClient)

	// 2. Market data
	a.birdeye, err = birdeye.New(cfg.Birdeye.BaseURL, cfg.Birdeye.APIKey, cfg.Birdeye.Chain,
		apiOptions(cfg.Birdeye.Retry, cfg.Birdeye.RequestsPerSecond, log)...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to init birdeye client: %w", err)
	}
	a.gecko, err = geckoterminal.New(cfg.GeckoTerminal.BaseURL, cfg.GeckoTerminal.Network,
		apiOptions(cfg.GeckoTerminal.Retry, cfg.GeckoTerminal.RequestsPerSecond, log)...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to init geckoterminal client: %w", err)
	}

	// 3. Storage
	var repo storage.AssessmentRepository
	if cfg.Database.URL != "" {
		a.db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := a.db.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		repo = postgres.NewAssessmentRepo(a.db)
		a.log.Info("Using PostgreSQL storage")
	} else {
		repo = memory.NewAssessmentRepo(memory.NewMemoryStorage())
		a.log.Info("Using Memory storage")
	}

	// 4. Cache
	var c cache.Cache = cache.NewMemory()
	if cfg.Redis.URL != "" {
		a.redis, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			a.log.Warn("Failed to connect to Redis, using in-memory cache", "error", err)
		} else {
			c = a.redis
		}
	}

	// 5. Analytics
	a.analyzer = analytics.NewAnalyzer(a.birdeye, a.chain,
		analytics.WithRepository(repo),
		analytics.WithCache(c, cfg.Redis.TTL),
		analytics.WithLogger(log),
	)

	// 6. Health
	var reporters []health.HealthReporter
	for _, p := range rpcClient.Providers() {
		if r, ok := p.(health.HealthReporter); ok {
			reporters = append(reporters, r)
		}
	}
	a.health = health.NewMonitor(a.chain, reporters)
	if a.db != nil {
		a.health.AddCheck("postgres", a.db.Health)
	}
	if a.redis != nil {
		a.health.AddCheck("redis", a.redis.Health)
	}

	// 7. HTTP
	a.server = server.New(server.Deps{
		Chain:    chain.NewSlotCache(a.chain, slotCacheTTL),
		Tokens:   a.birdeye,
		Pools:    a.gecko,
		Analyzer: a.analyzer,
		Health:   a.health,
	}, cfg.Server.Port, log)

	return a, nil
}

func apiOptions(retry rpc.RetryConfig, rps float64, log *slog.Logger) []httpapi.Option {
	opts := []httpapi.Option{httpapi.WithRetry(retry), httpapi.WithLogger(log)}
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, httpapi.WithRateLimit(rps, burst))
	}
	return opts
}

// Chain returns the typed Solana client.
func (a *App) Chain() *solana.Client { return a.chain }

// Analyzer returns the risk pipeline.
func (a *App) Analyzer() *analytics.Analyzer { return a.analyzer }

// Health returns the health monitor.
func (a *App) Health() *health.Monitor { return a.health }

// Server returns the HTTP server.
func (a *App) Server() *server.Server { return a.server }

// Start starts the HTTP server and background collectors. It does not block.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	go a.runHealthRefresher(ctx)
	return nil
}

// Stop shuts down the HTTP server and releases connections.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping tradedesk...")
	err := a.server.Stop(ctx)
	a.Close()
	return err
}

// Close releases connections without touching the HTTP server.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
	if a.rpc != nil {
		_ = a.rpc.Close()
	}
}

// runHealthRefresher keeps the slot gauge and endpoint status fresh between
// health requests.
func (a *App) runHealthRefresher(ctx context.Context) {
	ticker := time.NewTicker(healthRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := a.health.CheckHealth(ctx)
			a.log.Debug("Health refreshed", "status", report.SystemStatus, "slot", report.Slot, "endpoint", report.CurrentEndpoint)
		}
	}
}
