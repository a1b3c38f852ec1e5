package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Rahul711sharma/momentum-analysis/internal/brain"
	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/internal/strategyconfig"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
	"github.com/Rahul711sharma/momentum-analysis/pkg/redis"
)

// Runner executes runs (implemented by brain.Orchestrator)
type Runner interface {
	Run(ctx context.Context, rc brain.RunConfig) (*brain.RunResult, error)
	OverallMetrics(ctx context.Context, cfg *strategyconfig.Config, now time.Time) ([]*contracts.PeriodMetric, *contracts.Universe, error)
}

// BacktestHandler handles metric and backtest endpoints
// ⭐ SSOT: 백테스트 API 핸들러는 이 구조체에서만
type BacktestHandler struct {
	runner   Runner
	strategy *strategyconfig.Config
	cache    *redis.Cache
	now      func() time.Time
	logger   *logger.Logger
}

// NewBacktestHandler creates a handler over the base strategy. cache may be nil.
func NewBacktestHandler(runner Runner, strategy *strategyconfig.Config, cache *redis.Cache, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		runner:   runner,
		strategy: strategy,
		cache:    cache,
		now:      time.Now,
		logger:   log,
	}
}

// BacktestRequest overrides fields of the base strategy. Omitted fields keep the base value.
type BacktestRequest struct {
	Cadence         *string  `json:"cadence"`
	Mode            *string  `json:"mode"`
	TopK            *int     `json:"top_k"`
	SpanYears       *int     `json:"span_years"`
	Today           *string  `json:"today"`
	SelectionAnchor *string  `json:"selection_anchor"`
	Amount          *float64 `json:"amount"`
	Tickers         []string `json:"tickers"`
}

// Apply returns a copy of base with the request's overrides
func (req BacktestRequest) Apply(base *strategyconfig.Config) *strategyconfig.Config {
	cfg := base.Clone()
	if req.Cadence != nil {
		cfg.Backtest.Cadence = *req.Cadence
	}
	if req.Mode != nil {
		cfg.Backtest.Mode = *req.Mode
	}
	if req.TopK != nil {
		cfg.Backtest.TopK = *req.TopK
	}
	if req.SpanYears != nil {
		cfg.Backtest.SpanYears = *req.SpanYears
	}
	if req.Today != nil {
		cfg.Backtest.Today = *req.Today
	}
	if req.SelectionAnchor != nil {
		cfg.Backtest.SelectionAnchor = *req.SelectionAnchor
	}
	if req.Amount != nil {
		cfg.Investment.Amount = *req.Amount
	}
	if len(req.Tickers) > 0 {
		cfg.Universe.Tickers = append([]string(nil), req.Tickers...)
	}
	return cfg
}

// RunBacktest runs one backtest with optional overrides
// POST /api/backtest
func (h *BacktestHandler) RunBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := decodeOptional(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg := req.Apply(h.strategy)
	if err := strategyconfig.Validate(cfg); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.runner.Run(r.Context(), brain.RunConfig{Strategy: cfg, Now: h.now()})
	if err != nil {
		h.logger.WithError(err).Error("Backtest failed")
		respondError(w, http.StatusInternalServerError, "Backtest failed")
		return
	}

	respondJSON(w, http.StatusOK, NewBacktestResponse(cfg, result))
}

// GetOverallMetrics returns the metric table on the most recent data
// GET /api/metrics/overall?today=YYYY-MM-DD&cadence=monthly|weekly
func (h *BacktestHandler) GetOverallMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cfg := h.strategy.Clone()
	if v := r.URL.Query().Get("today"); v != "" {
		cfg.Backtest.Today = v
	}
	if v := r.URL.Query().Get("cadence"); v != "" {
		cfg.Backtest.Cadence = strings.ToLower(v)
	}
	if err := strategyconfig.Validate(cfg); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.now()
	today, err := cfg.Backtest.ResolveToday(now)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash strategy")
		return
	}
	cacheKey := redis.MetricsKey(hash, today)

	var cached MetricsResponse
	if found, err := h.cache.Get(ctx, cacheKey, &cached); err != nil {
		h.logger.WithError(err).Warn("Metrics cache read failed")
	} else if found {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	metrics, universe, err := h.runner.OverallMetrics(ctx, cfg, now)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute overall metrics")
		respondError(w, http.StatusInternalServerError, "Failed to compute metrics")
		return
	}

	resp := MetricsResponse{
		StrategyID:  cfg.Meta.StrategyID,
		Today:       formatDate(today),
		Cadence:     cfg.Backtest.Cadence,
		Metrics:     NewMetricDTOs(metrics),
		Unavailable: nonNil(universe.UnavailableTickers()),
	}
	if err := h.cache.Set(ctx, cacheKey, resp, redis.TTLShort); err != nil {
		h.logger.WithError(err).Warn("Metrics cache write failed")
	}

	respondJSON(w, http.StatusOK, resp)
}
