package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/service/cache"
	"github.com/kapu/trend-script-go/pkg/errors"
)

// Generator is the orchestrator surface the pipeline drives.
type Generator interface {
	GenerateForPlatforms(ctx context.Context, trend *domain.TrendData, platforms []domain.Platform, opts domain.GenerationOptions) (*domain.MultiPlatformResult, error)
	GenerateSupervisedForPlatforms(ctx context.Context, trend *domain.TrendData, platforms []domain.Platform, opts domain.GenerationOptions) (*domain.MultiPlatformResult, error)
	RetryFailed(ctx context.Context, previous *domain.MultiPlatformResult, opts domain.GenerationOptions) (*domain.MultiPlatformResult, error)
}

type ResultStore interface {
	Get(ctx context.Context, key string) (*domain.MultiPlatformResult, error)
	Put(ctx context.Context, key string, result *domain.MultiPlatformResult) (bool, error)
	Invalidate(ctx context.Context, trendID string) (int64, error)
}

type TrendSource interface {
	GetByID(ctx context.Context, id string) (*domain.TrendData, error)
	ListTop(ctx context.Context, limit int, minNES float64) ([]*domain.TrendData, error)
}

type Request struct {
	Trend      *domain.TrendData
	Platforms  []domain.Platform
	Supervised bool
	Options    domain.GenerationOptions
	// RetryFailed runs one RetryFailed round when the first run left retryable failures.
	RetryFailed bool
	// Refresh drops every cached result for the trend and generates anew.
	Refresh bool
}

type Response struct {
	Result *domain.MultiPlatformResult
	Cached bool
}

type BatchRequest struct {
	Limit     int
	MinNES    float64
	Platforms []domain.Platform
	Options   domain.GenerationOptions
}

type BatchItem struct {
	TrendID string
	Result  *domain.MultiPlatformResult
	Cached  bool
	Err     error
}

// Pipeline puts the optional result cache and trend store in front of the
// orchestrator. Cache failures are logged and never fail a request.
type Pipeline struct {
	generator Generator
	results   ResultStore
	trends    TrendSource
	logger    *zap.Logger
}

func NewPipeline(generator Generator, results ResultStore, trends TrendSource, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		generator: generator,
		results:   results,
		trends:    trends,
		logger:    logger,
	}
}

func (p *Pipeline) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Trend == nil {
		return nil, errors.NewValidationError("trend is required", "trend", nil)
	}
	platforms := req.Platforms
	if len(platforms) == 0 {
		platforms = domain.AllPlatforms
	}

	key := cache.ResultKey(req.Trend.ID, platforms, req.Supervised, req.Options)
	if req.Refresh {
		p.invalidate(ctx, req.Trend.ID)
	} else if cached := p.lookup(ctx, key); cached != nil {
		return &Response{Result: cached, Cached: true}, nil
	}

	var (
		result *domain.MultiPlatformResult
		err    error
	)
	if req.Supervised {
		result, err = p.generator.GenerateSupervisedForPlatforms(ctx, req.Trend, platforms, req.Options)
	} else {
		result, err = p.generator.GenerateForPlatforms(ctx, req.Trend, platforms, req.Options)
	}
	if err != nil {
		return nil, err
	}

	if req.RetryFailed && len(result.RetryablePlatforms()) > 0 {
		retried, err := p.generator.RetryFailed(ctx, result, req.Options)
		if err != nil {
			p.logger.Warn("Retry round failed", zap.String("trend_id", req.Trend.ID), zap.Error(err))
		} else {
			result = retried
		}
	}

	p.store(ctx, key, result)
	return &Response{Result: result}, nil
}

// LoadTrend reads a trend from the configured store.
func (p *Pipeline) LoadTrend(ctx context.Context, id string) (*domain.TrendData, error) {
	if p.trends == nil {
		return nil, errors.NewConfigurationError("trend store is not configured; set POSTGRES_HOST", "pipeline", nil)
	}
	return p.trends.GetByID(ctx, id)
}

// RunBatch runs supervised generation over the top trends one trend at a
// time. A failing trend is recorded and the batch continues.
func (p *Pipeline) RunBatch(ctx context.Context, req BatchRequest) ([]BatchItem, error) {
	if p.trends == nil {
		return nil, errors.NewConfigurationError("trend store is not configured; set POSTGRES_HOST", "pipeline", nil)
	}

	trends, err := p.trends.ListTop(ctx, req.Limit, req.MinNES)
	if err != nil {
		return nil, fmt.Errorf("failed to list trends: %w", err)
	}

	items := make([]BatchItem, 0, len(trends))
	for _, t := range trends {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("Batch interrupted", zap.Int("done", len(items)), zap.Int("total", len(trends)))
			return items, err
		}

		resp, err := p.Generate(ctx, Request{
			Trend:       t,
			Platforms:   req.Platforms,
			Supervised:  true,
			Options:     req.Options,
			RetryFailed: true,
		})
		item := BatchItem{TrendID: t.ID, Err: err}
		if resp != nil {
			item.Result = resp.Result
			item.Cached = resp.Cached
		}
		if err != nil {
			p.logger.Error("Batch item failed", zap.String("trend_id", t.ID), zap.Error(err))
		}
		items = append(items, item)
	}

	p.logger.Info("Batch finished", zap.Int("trends", len(items)))
	return items, nil
}

func (p *Pipeline) lookup(ctx context.Context, key string) *domain.MultiPlatformResult {
	if p.results == nil {
		return nil
	}
	cached, err := p.results.Get(ctx, key)
	if err != nil {
		p.logger.Warn("Result cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return cached
}

func (p *Pipeline) invalidate(ctx context.Context, trendID string) {
	if p.results == nil {
		return
	}
	deleted, err := p.results.Invalidate(ctx, trendID)
	if err != nil {
		p.logger.Warn("Result cache invalidation failed", zap.String("trend_id", trendID), zap.Error(err))
		return
	}
	p.logger.Info("Cached results dropped", zap.String("trend_id", trendID), zap.Int64("deleted", deleted))
}

func (p *Pipeline) store(ctx context.Context, key string, result *domain.MultiPlatformResult) {
	if p.results == nil {
		return
	}
	if _, err := p.results.Put(ctx, key, result); err != nil {
		p.logger.Warn("Result cache write failed", zap.String("key", key), zap.Error(err))
	}
}
