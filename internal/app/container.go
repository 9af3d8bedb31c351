package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/internal/config"
	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/platform"
	"github.com/kapu/trend-script-go/internal/prompt"
	"github.com/kapu/trend-script-go/internal/service/agent"
	"github.com/kapu/trend-script-go/internal/service/ai"
	"github.com/kapu/trend-script-go/internal/service/cache"
	"github.com/kapu/trend-script-go/internal/service/database"
	"github.com/kapu/trend-script-go/internal/service/metrics"
	"github.com/kapu/trend-script-go/internal/service/orchestrator"
	"github.com/kapu/trend-script-go/internal/service/scorer"
	"github.com/kapu/trend-script-go/internal/service/supervisor"
	"github.com/kapu/trend-script-go/internal/service/trend"
	"github.com/kapu/trend-script-go/internal/service/validator"
)

// Container holds every process-lifetime component. Trends and Cache are nil
// when their stores are not configured.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry

	Catalog      *platform.Catalog
	Models       *ai.ModelManager
	Metrics      *metrics.Collector
	Scorer       *scorer.Scorer
	Supervisor   *supervisor.Supervisor
	Orchestrator *orchestrator.Orchestrator
	Trends       *trend.Repository
	Cache        *cache.ResultCache

	closers []func()
}

// Close releases store connections in reverse order of creation.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles the pipeline. Stores are optional; a configured store that
// cannot be reached fails the build.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Container{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	catalog, err := platform.DefaultCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load platform catalog: %w", err)
	}
	c.Catalog = catalog

	// Metrics
	c.Registry = prometheus.NewRegistry()
	exporter, err := metrics.NewPrometheusExporter(c.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	c.Metrics = metrics.NewCollector(cfg.Metrics.HistorySize, logger, metrics.WithObserver(exporter))

	// AI stack
	c.Models, err = ai.NewModelManager(ctx, ai.ModelManagerConfig{
		GeminiAPIKey:       cfg.Gemini.APIKey,
		OpenAIAPIKey:       cfg.OpenAI.APIKey,
		DefaultGeminiModel: cfg.Gemini.Model,
		DefaultOpenAIModel: cfg.OpenAI.Model,
		EnableFallback:     cfg.OpenAI.EnableFallback,
		Timeout:            cfg.Pipeline.GenerateTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}
	if !cfg.HasModelCredentials() {
		logger.Warn("No model API key configured; generation will fail until one is set")
	}

	agents, err := agent.NewAgents(agent.Deps{
		Generator: c.Models,
		Catalog:   catalog,
		Prompts:   prompt.NewPromptBuilder(),
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agents: %w", err)
	}

	c.Scorer = scorer.New(catalog)
	c.Supervisor = supervisor.New(agents, validator.NewValidator(logger), catalog, supervisor.Config{
		MaxRetries:       cfg.Pipeline.MaxRetries,
		EnableValidation: cfg.Pipeline.EnableValidation,
		MaxConcurrency:   cfg.Pipeline.MaxConcurrency,
	}, logger, supervisor.WithMetrics(c.Metrics))

	c.Orchestrator = orchestrator.New(agents, logger,
		orchestrator.WithSupervisor(c.Supervisor),
		orchestrator.WithScorer(c.Scorer),
		orchestrator.WithMetrics(c.Metrics),
		orchestrator.WithMaxConcurrency(cfg.Pipeline.MaxConcurrency),
	)

	// Stores
	if cfg.Postgres.Enabled() {
		pg, err := database.NewPostgresService(ctx, database.PostgresConfig{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			Database:        cfg.Postgres.Database,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres service: %w", err)
		}
		c.closers = append(c.closers, func() {
			_ = pg.Close()
		})
		c.Trends = trend.NewRepository(pg.GetDB(), logger)
	}

	if cfg.Redis.Enabled() {
		cacheSvc, err := cache.NewCacheService(ctx, cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache service: %w", err)
		}
		c.closers = append(c.closers, func() {
			_ = cacheSvc.Close()
		})
		c.Cache = cache.NewResultCache(cacheSvc, cfg.Redis.TTL, logger)
	}

	logger.Info("Pipeline assembled",
		zap.String("provider", c.Models.ProviderName()),
		zap.Int("max_retries", cfg.Pipeline.MaxRetries),
		zap.Bool("validation", cfg.Pipeline.EnableValidation),
		zap.Bool("trend_store", c.Trends != nil),
		zap.Bool("result_cache", c.Cache != nil),
	)
	return c, nil
}

// DefaultOptions returns generation options seeded from configuration.
func (c *Container) DefaultOptions() domain.GenerationOptions {
	opts := domain.DefaultGenerationOptions()
	opts.TargetDurationSeconds = c.Config.Pipeline.DefaultDuration
	opts.Tone = domain.Tone(c.Config.Pipeline.DefaultTone)
	opts.Language = domain.Language(c.Config.Pipeline.DefaultLanguage)
	return opts.Normalized()
}

// DefaultPlatforms returns the configured platform set.
func (c *Container) DefaultPlatforms() []domain.Platform {
	platforms, err := domain.ParsePlatforms(c.Config.Pipeline.Platforms)
	if err != nil || len(platforms) == 0 {
		return domain.AllPlatforms
	}
	return platforms
}

// Pipeline returns the cache-aware generation entry point.
func (c *Container) Pipeline() *Pipeline {
	var (
		results ResultStore
		trends  TrendSource
	)
	if c.Cache != nil {
		results = c.Cache
	}
	if c.Trends != nil {
		trends = c.Trends
	}
	return NewPipeline(c.Orchestrator, results, trends, c.Logger)
}
