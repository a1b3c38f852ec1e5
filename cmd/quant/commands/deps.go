package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/Rahul711sharma/momentum-analysis/internal/brain"
	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/internal/external/yahoo"
	"github.com/Rahul711sharma/momentum-analysis/internal/s0_data"
	"github.com/Rahul711sharma/momentum-analysis/internal/s0_data/collector"
	"github.com/Rahul711sharma/momentum-analysis/internal/strategyconfig"
	"github.com/Rahul711sharma/momentum-analysis/pkg/config"
	"github.com/Rahul711sharma/momentum-analysis/pkg/database"
	"github.com/Rahul711sharma/momentum-analysis/pkg/httputil"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
	"github.com/Rahul711sharma/momentum-analysis/pkg/metrics"
	"github.com/Rahul711sharma/momentum-analysis/pkg/redis"
)

// app bundles the wired dependencies shared by the commands
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	metrics  *metrics.Registry
	strategy *strategyconfig.Config
	rawYAML  []byte

	csvCache  *s0_data.CSVCache
	db        *database.DB
	prices    *s0_data.PriceRepository
	cache     *redis.Cache
	yahoo     *yahoo.Client
	loader    *s0_data.Loader
	collector *collector.Collector
	brain     *brain.Orchestrator

	closers []func()
}

// utcNow is the wall clock used for cache stamps and the default today anchor
func utcNow() time.Time {
	return time.Now().UTC()
}

// newApp loads configuration and wires the price sources.
// ⭐ 소스 순서: redis → csv → postgres → yahoo
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	path := strategyFile
	if path == "" {
		path = cfg.StrategyFile
	}
	strategy, raw, err := strategyconfig.Load(path)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		metrics:  metrics.New(),
		strategy: strategy,
		rawYAML:  raw,
	}

	// Redis series cache (optional)
	var sources []contracts.SeriesSource
	var sinks []s0_data.SeriesSink
	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without series cache")
		redisClient = redis.Disabled()
	}
	a.closers = append(a.closers, func() { _ = redisClient.Close() })
	a.cache = redis.NewCache(redisClient, "momentum")
	if redisClient.Enabled() {
		seriesCache := s0_data.NewSeriesCache(a.cache, utcNow)
		sources = append(sources, seriesCache)
		sinks = append(sinks, seriesCache)
	}

	// Date-stamped CSV cache
	a.csvCache = s0_data.NewCSVCache(cfg.PriceCacheDir, utcNow()).WithClock(utcNow)
	sources = append(sources, a.csvCache)
	sinks = append(sinks, a.csvCache)

	// PostgreSQL price store (optional)
	if cfg.Database.Enabled() {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.db = db
		a.prices = s0_data.NewPriceRepository(db.Pool)
		sources = append(sources, a.prices)
		sinks = append(sinks, a.prices)
		log.Info("Connected to database")
	}

	// Yahoo chart API
	httpClient := httputil.New(log, cfg.Yahoo.Timeout).
		WithRateLimit(cfg.Yahoo.RatePerSec).
		WithCircuitBreaker("yahoo", 5, 30*time.Second).
		WithRetry(cfg.Yahoo.MaxRetries, time.Second)
	a.yahoo = yahoo.NewClient(httpClient, log, cfg.Yahoo.BaseURL)
	sources = append(sources, a.yahoo)

	a.loader = s0_data.NewLoader(sources, sinks, a.metrics, log)
	a.collector = collector.NewCollector(a.yahoo, sinks, a.metrics, log)
	a.brain = brain.NewOrchestrator(a.loader, a.metrics, log)

	log.WithFields(map[string]interface{}{
		"strategy": strategy.Meta.StrategyID,
		"tickers":  len(strategy.Universe.Tickers),
		"sources":  len(sources),
	}).Debug("Dependencies wired")

	return a, nil
}

// Close releases connections in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
