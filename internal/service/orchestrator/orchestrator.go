package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/service/agent"
	"github.com/kapu/trend-script-go/internal/service/fanout"
	"github.com/kapu/trend-script-go/internal/service/metrics"
	"github.com/kapu/trend-script-go/internal/service/supervisor"
	"github.com/kapu/trend-script-go/pkg/errors"
)

// Scorer is the optional viral-potential estimator used by the comparison summary.
type Scorer interface {
	Score(s *domain.PlatformScript) domain.AlgorithmScore
}

type Option func(*Orchestrator)

func WithSupervisor(s *supervisor.Supervisor) Option {
	return func(o *Orchestrator) { o.supervisor = s }
}

func WithScorer(s Scorer) Option {
	return func(o *Orchestrator) { o.scorer = s }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(o *Orchestrator) { o.metrics = c }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMaxConcurrency caps simultaneous platform tasks; 0 runs them all at once.
func WithMaxConcurrency(n int) Option {
	return func(o *Orchestrator) { o.maxConcurrency = n }
}

// Orchestrator fans a trend out to one task per platform and merges the
// outcomes. A platform's failure is always a result record, never an error.
type Orchestrator struct {
	agents         map[domain.Platform]agent.PlatformAgent
	supervisor     *supervisor.Supervisor
	scorer         Scorer
	metrics        *metrics.Collector
	now            func() time.Time
	maxConcurrency int
	logger         *zap.Logger
}

func New(agents map[domain.Platform]agent.PlatformAgent, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		agents: agents,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) GenerateForAllPlatforms(ctx context.Context, trend *domain.TrendData, opts domain.GenerationOptions) (*domain.MultiPlatformResult, error) {
	return o.GenerateForPlatforms(ctx, trend, domain.AllPlatforms, opts)
}

// GenerateForPlatforms calls each platform's agent once, concurrently.
func (o *Orchestrator) GenerateForPlatforms(ctx context.Context, trend *domain.TrendData, platforms []domain.Platform, opts domain.GenerationOptions) (*domain.MultiPlatformResult, error) {
	return o.generate(ctx, trend, platforms, opts, false)
}

// GenerateSupervisedForPlatforms runs the supervisor's loop for each platform, concurrently.
func (o *Orchestrator) GenerateSupervisedForPlatforms(ctx context.Context, trend *domain.TrendData, platforms []domain.Platform, opts domain.GenerationOptions) (*domain.MultiPlatformResult, error) {
	if o.supervisor == nil {
		return nil, errors.NewConfigurationError("supervised generation requires a supervisor", "orchestrator", nil)
	}
	return o.generate(ctx, trend, platforms, opts, true)
}

func (o *Orchestrator) generate(ctx context.Context, trend *domain.TrendData, platforms []domain.Platform, opts domain.GenerationOptions, supervised bool) (*domain.MultiPlatformResult, error) {
	if trend == nil {
		return nil, errors.NewValidationError("trend is required", "trend", nil)
	}
	platforms = domain.UniquePlatforms(platforms)
	if len(platforms) == 0 {
		return nil, errors.NewValidationError("at least one platform is required", "platforms", nil)
	}
	for _, p := range platforms {
		if !p.IsValid() {
			return nil, errors.NewValidationError("unsupported platform "+p.String(), "platforms", p)
		}
	}

	requestedAt := o.now()
	opID := o.metrics.StartOperation(metrics.OpMultiPlatform, metrics.OperationContext{TrendID: trend.ID, Category: trend.Category})

	o.logger.Info("Generating scripts",
		zap.String("trend_id", trend.ID),
		zap.Int("platforms", len(platforms)),
		zap.Bool("supervised", supervised),
	)

	results := o.runTasks(ctx, trend, platforms, opts, supervised)

	completedAt := o.now()
	out := &domain.MultiPlatformResult{
		RequestID: uuid.NewString(),
		TrendID:   trend.ID,
		Trend:     trend,
		Results:   results,
		Metadata: domain.ResultMetadata{
			RequestedAt:   requestedAt,
			CompletedAt:   completedAt,
			TotalDuration: completedAt.Sub(requestedAt),
			Supervised:    supervised,
		},
	}
	out.RecountOutcomes()

	o.metrics.EndOperation(opID, runOutcome(out))
	o.logger.Info("Script generation finished",
		zap.String("request_id", out.RequestID),
		zap.Int("success", out.Metadata.SuccessCount),
		zap.Int("failed", out.Metadata.FailureCount),
		zap.Duration("duration", out.Metadata.TotalDuration),
	)
	return out, nil
}

// RetryFailed re-runs only the retryable failures of previous, in the mode
// previous was produced with. Every other record keeps its pointer.
func (o *Orchestrator) RetryFailed(ctx context.Context, previous *domain.MultiPlatformResult, opts domain.GenerationOptions) (*domain.MultiPlatformResult, error) {
	if previous == nil {
		return nil, errors.NewValidationError("previous result is required", "previous", nil)
	}

	out := &domain.MultiPlatformResult{
		RequestID: previous.RequestID,
		TrendID:   previous.TrendID,
		Trend:     previous.Trend,
		Results:   make(map[domain.Platform]*domain.PlatformResult, len(previous.Results)),
		Metadata:  previous.Metadata,
	}
	for p, r := range previous.Results {
		out.Results[p] = r
	}

	retry := previous.RetryablePlatforms()
	if len(retry) == 0 {
		o.logger.Info("Nothing to retry", zap.String("request_id", previous.RequestID))
		out.RecountOutcomes()
		return out, nil
	}
	if previous.Trend == nil {
		return nil, errors.NewValidationError("previous result carries no trend", "previous.trend", nil)
	}

	supervised := previous.Metadata.Supervised
	if supervised && o.supervisor == nil {
		return nil, errors.NewConfigurationError("supervised retry requires a supervisor", "orchestrator", nil)
	}

	started := o.now()
	opID := o.metrics.StartOperation(metrics.OpRetry, metrics.OperationContext{TrendID: previous.TrendID, Category: previous.Trend.Category})

	o.logger.Info("Retrying failed platforms",
		zap.String("request_id", previous.RequestID),
		zap.Any("platforms", retry),
		zap.Bool("supervised", supervised),
	)

	for p, r := range o.runTasks(ctx, previous.Trend, retry, opts, supervised) {
		out.Results[p] = r
	}

	completedAt := o.now()
	out.Metadata.RetryRounds++
	out.Metadata.CompletedAt = completedAt
	out.Metadata.TotalDuration += completedAt.Sub(started)
	out.RecountOutcomes()

	o.metrics.EndOperation(opID, runOutcome(out))
	return out, nil
}

func (o *Orchestrator) runTasks(ctx context.Context, trend *domain.TrendData, platforms []domain.Platform, opts domain.GenerationOptions, supervised bool) map[domain.Platform]*domain.PlatformResult {
	task := func(p domain.Platform) *domain.PlatformResult {
		return o.generateDirect(ctx, trend, p, opts)
	}
	if supervised {
		task = func(p domain.Platform) *domain.PlatformResult {
			return o.supervisor.SupervisePlatform(ctx, trend, p, opts).ToPlatformResult()
		}
	}

	return fanout.Settle(platforms, o.maxConcurrency, task, func(p domain.Platform, r *panics.Recovered) *domain.PlatformResult {
		o.logger.Error("Platform task panicked",
			zap.String("platform", p.String()),
			zap.Any("panic", r.Value),
			zap.String("stack", string(r.Stack)),
		)
		return supervisor.PanicResult(p, r).ToPlatformResult()
	})
}

func (o *Orchestrator) generateDirect(ctx context.Context, trend *domain.TrendData, p domain.Platform, opts domain.GenerationOptions) *domain.PlatformResult {
	a, ok := o.agents[p]
	if !ok || a == nil {
		err := errors.NewConfigurationError("no agent configured for "+p.String(), "orchestrator", nil)
		return &domain.PlatformResult{Platform: p, Attempts: 1, Error: err.Error(), Retryable: false}
	}

	opID := o.metrics.StartOperation(metrics.OpGeneration, metrics.OperationContext{Platform: p, TrendID: trend.ID, Category: trend.Category})
	defer func() {
		if r := recover(); r != nil {
			o.metrics.EndOperation(opID, metrics.OperationResult{Success: false, ErrorType: "unexpected"})
			panic(r)
		}
	}()

	script, err := a.Generate(ctx, trend, opts)
	if err == nil && script == nil {
		err = errors.NewGenerationError("agent returned no script", errors.KindEmptyResponse, true, nil)
	}
	if err != nil {
		if ctx.Err() != nil {
			o.metrics.CancelOperation(opID, ctx.Err().Error())
		} else {
			o.metrics.EndOperation(opID, metrics.OperationResult{Success: false, ErrorType: errors.Kind(err)})
		}
		o.logger.Warn("Platform generation failed",
			zap.String("platform", p.String()),
			zap.String("kind", errors.Kind(err)),
			zap.Error(err),
		)
		return &domain.PlatformResult{
			Platform:  p,
			Attempts:  1,
			Error:     err.Error(),
			Retryable: errors.IsRetryable(err),
		}
	}

	o.metrics.EndOperation(opID, metrics.OperationResult{
		Success:      true,
		InputTokens:  script.Metadata.InputTokens,
		OutputTokens: script.Metadata.OutputTokens,
		Model:        script.Metadata.Model,
	})
	return &domain.PlatformResult{Platform: p, Success: true, Script: script, Attempts: 1}
}

// runOutcome carries no tokens; those are recorded by the per-platform operations.
func runOutcome(r *domain.MultiPlatformResult) metrics.OperationResult {
	outcome := metrics.OperationResult{Success: r.Metadata.FailureCount == 0}
	switch {
	case outcome.Success:
	case r.Metadata.SuccessCount == 0:
		outcome.ErrorType = "all_failed"
	default:
		outcome.ErrorType = "partial_failure"
	}
	return outcome
}
