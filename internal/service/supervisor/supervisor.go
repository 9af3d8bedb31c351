package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/internal/constants"
	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/service/agent"
	"github.com/kapu/trend-script-go/internal/service/fanout"
	"github.com/kapu/trend-script-go/internal/service/metrics"
	"github.com/kapu/trend-script-go/pkg/errors"
)

// RuleProvider derives the validation rules for one platform request.
type RuleProvider interface {
	Rules(platform domain.Platform, opts domain.GenerationOptions) domain.ValidationRuleSet
}

// Validator is the quality gate applied to every attempt.
type Validator interface {
	Validate(s *domain.PlatformScript, rules domain.ValidationRuleSet) *domain.ValidationResult
}

type Config struct {
	MaxRetries       int
	EnableValidation bool
	MaxConcurrency   int
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:       constants.PipelineConfig.MaxRetries,
		EnableValidation: constants.PipelineConfig.EnableValidation,
		MaxConcurrency:   constants.PipelineConfig.MaxConcurrency,
	}
}

type Option func(*Supervisor)

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Supervisor) { s.metrics = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) {
		if now != nil {
			s.now = now
		}
	}
}

// Supervisor runs the generate, validate and retry loop for each platform.
type Supervisor struct {
	agents    map[domain.Platform]agent.PlatformAgent
	validator Validator
	rules     RuleProvider
	cfg       Config
	metrics   *metrics.Collector
	now       func() time.Time
	logger    *zap.Logger
}

func New(agents map[domain.Platform]agent.PlatformAgent, validator Validator, rules RuleProvider, cfg Config, logger *zap.Logger, opts ...Option) *Supervisor {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = constants.PipelineConfig.MaxRetries
	}
	s := &Supervisor{
		agents:    agents,
		validator: validator,
		rules:     rules,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Supervisor) Config() Config {
	return s.cfg
}

// SupervisePlatform runs one platform's loop to a terminal state. It never
// returns an error: failures are reported in the result.
func (s *Supervisor) SupervisePlatform(ctx context.Context, trend *domain.TrendData, platform domain.Platform, opts domain.GenerationOptions) *domain.SupervisedScriptResult {
	logger := s.logger.With(zap.String("platform", platform.String()))
	opCtx := operationContext(trend, platform)

	opID := s.metrics.StartOperation(metrics.OpSupervisedGeneration, opCtx)
	result := s.supervise(ctx, trend, platform, opts, logger)

	// Tokens are recorded per attempt by generate.
	outcome := metrics.OperationResult{Success: result.Success}
	if result.Script != nil {
		outcome.Model = result.Script.Metadata.Model
	}
	if !result.Success {
		outcome.ErrorType = "generation_failed"
	}
	s.metrics.EndOperation(opID, outcome)

	return result
}

func (s *Supervisor) supervise(ctx context.Context, trend *domain.TrendData, platform domain.Platform, opts domain.GenerationOptions, logger *zap.Logger) *domain.SupervisedScriptResult {
	result := &domain.SupervisedScriptResult{Platform: platform}

	a, ok := s.agents[platform]
	if !ok || a == nil {
		err := errors.NewConfigurationError("no agent configured for "+platform.String(), "supervisor", nil)
		return fail(result, 1, err)
	}

	rules := s.rules.Rules(platform, opts)
	current := opts
	maxRetries := s.cfg.MaxRetries

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			if err := ctx.Err(); err != nil {
				logger.Warn("Supervision stopped", zap.Int("attempt", attempt), zap.Error(err))
				return fail(result, attempt-1, err)
			}
		}

		script, err := s.generate(ctx, a, trend, current)
		if err != nil {
			final := errors.IsConfiguration(err) || errors.Kind(err) == "invalid_input"
			logger.Warn("Generation attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", maxRetries),
				zap.String("kind", errors.Kind(err)),
				zap.Bool("final", final),
				zap.Error(err),
			)
			if final || attempt == maxRetries {
				return fail(result, attempt, err)
			}
			continue
		}

		result.Script = script
		result.Attempts = attempt

		if !s.cfg.EnableValidation {
			result.Success = true
			logger.Info("Script accepted without validation", zap.Int("attempt", attempt))
			return result
		}

		validation := s.validator.Validate(script, rules)
		result.Validation = validation

		if validation.IsValid {
			result.Success = true
			logger.Info("Script accepted",
				zap.Int("attempt", attempt),
				zap.Int("validation_score", validation.Score),
			)
			return result
		}

		if attempt == maxRetries {
			script.Warnings = validation.Messages()
			result.Success = true
			logger.Warn("Script accepted with warnings",
				zap.Int("attempt", attempt),
				zap.Int("validation_score", validation.Score),
				zap.Strings("warnings", script.Warnings),
			)
			return result
		}

		logger.Info("Script rejected, retrying with feedback",
			zap.Int("attempt", attempt),
			zap.Int("validation_score", validation.Score),
			zap.Int("violations", len(validation.Violations)),
		)
		current = opts.WithFeedback(validation.FeedbackForRetry)
	}

	// Unreachable: every path through the final attempt returns.
	return fail(result, maxRetries, fmt.Errorf("supervision ended without a terminal state"))
}

// generate wraps one agent call in a metrics operation.
func (s *Supervisor) generate(ctx context.Context, a agent.PlatformAgent, trend *domain.TrendData, opts domain.GenerationOptions) (*domain.PlatformScript, error) {
	opID := s.metrics.StartOperation(metrics.OpGeneration, operationContext(trend, a.Platform()))
	defer func() {
		if r := recover(); r != nil {
			s.metrics.EndOperation(opID, metrics.OperationResult{Success: false, ErrorType: "unexpected"})
			panic(r)
		}
	}()

	script, err := a.Generate(ctx, trend, opts)
	if err != nil {
		if ctx.Err() != nil {
			s.metrics.CancelOperation(opID, ctx.Err().Error())
		} else {
			s.metrics.EndOperation(opID, metrics.OperationResult{Success: false, ErrorType: errors.Kind(err)})
		}
		return nil, err
	}
	if script == nil {
		err := errors.NewGenerationError("agent returned no script", errors.KindEmptyResponse, true, nil)
		s.metrics.EndOperation(opID, metrics.OperationResult{Success: false, ErrorType: errors.Kind(err)})
		return nil, err
	}

	s.metrics.EndOperation(opID, metrics.OperationResult{
		Success:      true,
		InputTokens:  script.Metadata.InputTokens,
		OutputTokens: script.Metadata.OutputTokens,
		Model:        script.Metadata.Model,
	})
	return script, nil
}

func fail(result *domain.SupervisedScriptResult, attempts int, err error) *domain.SupervisedScriptResult {
	result.Success = false
	result.Script = nil
	result.Validation = nil
	result.Attempts = max(attempts, 1)
	result.Error = err.Error()
	result.Retryable = errors.IsRetryable(err)
	return result
}

// GenerateSupervised runs one independent loop per platform concurrently and
// waits for all of them.
func (s *Supervisor) GenerateSupervised(ctx context.Context, trend *domain.TrendData, platforms []domain.Platform, opts domain.GenerationOptions) *domain.SupervisedResult {
	requestedAt := s.now()
	platforms = domain.UniquePlatforms(platforms)

	results := fanout.Settle(platforms, s.cfg.MaxConcurrency,
		func(p domain.Platform) *domain.SupervisedScriptResult {
			return s.SupervisePlatform(ctx, trend, p, opts)
		},
		func(p domain.Platform, r *panics.Recovered) *domain.SupervisedScriptResult {
			s.logger.Error("Supervision panicked",
				zap.String("platform", p.String()),
				zap.Any("panic", r.Value),
				zap.String("stack", string(r.Stack)),
			)
			return PanicResult(p, r)
		},
	)

	completedAt := s.now()
	out := &domain.SupervisedResult{
		RequestID: uuid.NewString(),
		Results:   results,
		Metadata: domain.ResultMetadata{
			RequestedAt:   requestedAt,
			CompletedAt:   completedAt,
			TotalDuration: completedAt.Sub(requestedAt),
			Supervised:    true,
		},
	}
	if trend != nil {
		out.TrendID = trend.ID
	}
	out.RecountOutcomes()
	return out
}

// PanicResult converts a recovered panic into a retryable failure.
func PanicResult(platform domain.Platform, r *panics.Recovered) *domain.SupervisedScriptResult {
	err := errors.NewUnexpectedError(fmt.Sprintf("%s task panicked", platform), r.Value, r.AsError())
	return &domain.SupervisedScriptResult{
		Platform:  platform,
		Success:   false,
		Attempts:  1,
		Error:     err.Error(),
		Retryable: true,
	}
}

func operationContext(trend *domain.TrendData, platform domain.Platform) metrics.OperationContext {
	opCtx := metrics.OperationContext{Platform: platform}
	if trend != nil {
		opCtx.TrendID = trend.ID
		opCtx.Category = trend.Category
	}
	return opCtx
}
