// Package server exposes the data clients and risk analytics over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/tradedesk/internal/analytics"
	"github.com/vietddude/tradedesk/internal/core/domain"
	"github.com/vietddude/tradedesk/internal/health"
	"github.com/vietddude/tradedesk/internal/infra/httpapi"
	"github.com/vietddude/tradedesk/internal/infra/rpc"
	"github.com/vietddude/tradedesk/internal/metrics"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Chain is the RPC surface used by the slot, endpoint and account routes.
type Chain interface {
	GetCurrentSlot(ctx context.Context) (uint64, error)
	GetAccountInfo(ctx context.Context, address string) (*domain.AccountInfo, error)
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]domain.TokenAccount, error)
	GetCurrentEndpoint() domain.Endpoint
	GetAllEndpoints() []domain.Endpoint
}

// Tokens is the token discovery surface. birdeye.Client satisfies it.
type Tokens interface {
	HolderDistribution(ctx context.Context, address string, limit int) (*domain.HolderDistribution, error)
	NewPairs(ctx context.Context, limit int) ([]domain.NewPair, error)
	TrendingTokens(ctx context.Context, offset, limit int) ([]domain.TrendingToken, error)
}

// Pools is the pool lookup surface. geckoterminal.Client satisfies it.
type Pools interface {
	Pool(ctx context.Context, address string) (*domain.LiquidityPool, error)
	NewPools(ctx context.Context, page int) ([]domain.LiquidityPool, error)
	TrendingPools(ctx context.Context, page int) ([]domain.LiquidityPool, error)
	TokenPools(ctx context.Context, token string) ([]domain.LiquidityPool, error)
}

// Analyzer is the risk surface. analytics.Analyzer satisfies it.
type Analyzer interface {
	Assess(ctx context.Context, mint string, o analytics.Overrides) (*domain.AssessmentRecord, error)
	History(ctx context.Context, mint string, limit int) ([]*domain.AssessmentRecord, error)
	Overview(ctx context.Context, mint string) (*domain.TokenOverview, error)
}

// HealthChecker reports system health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) health.HealthReport
}

// Deps are the collaborators the routes call into.
type Deps struct {
	Chain    Chain
	Tokens   Tokens
	Pools    Pools
	Analyzer Analyzer
	Health   HealthChecker
}

// Server is the HTTP front end.
type Server struct {
	deps    Deps
	router  *gin.Engine
	httpSrv *http.Server
	logger  *slog.Logger
}

// New builds the router. Port is used by Start.
func New(deps Deps, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		deps:   deps,
		router: gin.New(),
		logger: logger.With("component", "server"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Router returns the gin engine, for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("panic recovered", "error", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))
	s.router.Use(s.observe())
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(latency.Seconds())

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", latency.Milliseconds(),
		}
		switch {
		case status >= 500:
			s.logger.Error("request completed", attrs...)
		case status >= 400:
			s.logger.Warn("request completed", attrs...)
		default:
			s.logger.Debug("request completed", attrs...)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/health/detailed", s.handleDetailed)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	v1.GET("/slot", s.handleSlot)
	v1.GET("/endpoints", s.handleEndpoints)
	v1.GET("/accounts/:address", s.handleAccount)
	v1.GET("/accounts/:address/tokens", s.handleTokenAccounts)

	tokens := v1.Group("/tokens/:mint")
	tokens.GET("/overview", s.handleOverview)
	tokens.GET("/holders", s.handleHolders)
	tokens.GET("/pools", s.handleTokenPools)
	tokens.GET("/risk", s.handleRisk)
	tokens.GET("/assessments", s.handleAssessments)

	v1.GET("/trending", s.handleTrending)
	v1.GET("/pairs/new", s.handleNewPairs)

	v1.GET("/pools/new", s.handleNewPools)
	v1.GET("/pools/trending", s.handleTrendingPools)
	v1.GET("/pools/:address", s.handlePool)
}

func (s *Server) handleHealth(c *gin.Context) {
	report := s.deps.Health.CheckHealth(c.Request.Context())
	code := http.StatusOK
	if report.SystemStatus == health.StatusCritical {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": report.SystemStatus})
}

func (s *Server) handleDetailed(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Health.CheckHealth(c.Request.Context()))
}

func (s *Server) handleSlot(c *gin.Context) {
	slot, err := s.deps.Chain.GetCurrentSlot(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"slot":     slot,
		"endpoint": s.deps.Chain.GetCurrentEndpoint().Name,
	})
}

func (s *Server) handleEndpoints(c *gin.Context) {
	current := s.deps.Chain.GetCurrentEndpoint()
	eps := s.deps.Chain.GetAllEndpoints()
	out := make([]gin.H, 0, len(eps))
	for i, ep := range eps {
		out = append(out, gin.H{
			"index":   i,
			"name":    ep.Name,
			"current": ep == current,
		})
	}
	c.JSON(http.StatusOK, gin.H{"endpoints": out})
}

func (s *Server) handleAccount(c *gin.Context) {
	info, err := s.deps.Chain.GetAccountInfo(c.Request.Context(), c.Param("address"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if info == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "account does not exist"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleTokenAccounts(c *gin.Context) {
	accounts, err := s.deps.Chain.GetTokenAccountsByOwner(c.Request.Context(), c.Param("address"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"owner": c.Param("address"), "accounts": accounts})
}

func (s *Server) handleOverview(c *gin.Context) {
	ov, err := s.deps.Analyzer.Overview(c.Request.Context(), c.Param("mint"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

func (s *Server) handleHolders(c *gin.Context) {
	limit, ok := s.intQuery(c, "limit", defaultLimit, 1, maxLimit)
	if !ok {
		return
	}
	dist, err := s.deps.Tokens.HolderDistribution(c.Request.Context(), c.Param("mint"), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dist)
}

func (s *Server) handleTokenPools(c *gin.Context) {
	pools, err := s.deps.Pools.TokenPools(c.Request.Context(), c.Param("mint"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pools": pools})
}

func (s *Server) handleRisk(c *gin.Context) {
	var o analytics.Overrides
	if raw := c.Query("lp_locked"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.badRequest(c, "lp_locked must be a number")
			return
		}
		o.LPLockedPercentage = &v
	}
	rec, err := s.deps.Analyzer.Assess(c.Request.Context(), c.Param("mint"), o)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleAssessments(c *gin.Context) {
	limit, ok := s.intQuery(c, "limit", defaultLimit, 1, maxLimit)
	if !ok {
		return
	}
	recs, err := s.deps.Analyzer.History(c.Request.Context(), c.Param("mint"), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessments": recs})
}

func (s *Server) handleTrending(c *gin.Context) {
	offset, ok := s.intQuery(c, "offset", 0, 0, 10_000)
	if !ok {
		return
	}
	limit, ok := s.intQuery(c, "limit", defaultLimit, 1, maxLimit)
	if !ok {
		return
	}
	tokens, err := s.deps.Tokens.TrendingTokens(c.Request.Context(), offset, limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

func (s *Server) handleNewPairs(c *gin.Context) {
	limit, ok := s.intQuery(c, "limit", defaultLimit, 1, maxLimit)
	if !ok {
		return
	}
	pairs, err := s.deps.Tokens.NewPairs(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pairs": pairs})
}

func (s *Server) handlePool(c *gin.Context) {
	pool, err := s.deps.Pools.Pool(c.Request.Context(), c.Param("address"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}

func (s *Server) handleNewPools(c *gin.Context) {
	s.poolPage(c, s.deps.Pools.NewPools)
}

func (s *Server) handleTrendingPools(c *gin.Context) {
	s.poolPage(c, s.deps.Pools.TrendingPools)
}

func (s *Server) poolPage(c *gin.Context, fetch func(context.Context, int) ([]domain.LiquidityPool, error)) {
	page, ok := s.intQuery(c, "page", 1, 1, 10)
	if !ok {
		return
	}
	pools, err := fetch(c.Request.Context(), page)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pools": pools, "page": page})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (s *Server) intQuery(c *gin.Context, key string, def, lo, hi int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		s.badRequest(c, fmt.Sprintf("%s must be an integer in [%d,%d]", key, lo, hi))
		return 0, false
	}
	return v, true
}

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": msg})
}

// writeError maps upstream failures to HTTP statuses.
func (s *Server) writeError(c *gin.Context, err error) {
	code, kind := http.StatusBadGateway, "upstream_error"
	switch {
	case errors.Is(err, analytics.ErrInvalidInput):
		code, kind = http.StatusBadRequest, "invalid_request"
	case httpapi.IsRateLimited(err):
		code, kind = http.StatusTooManyRequests, "rate_limited"
	case httpapi.IsNotFound(err):
		code, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, rpc.ErrAllEndpointsFailed):
		code, kind = http.StatusBadGateway, "rpc_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		code, kind = http.StatusGatewayTimeout, "timeout"
	}
	c.JSON(code, gin.H{"error": kind, "message": err.Error()})
}
