package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kapu/trend-script-go/internal/constants"
	"github.com/kapu/trend-script-go/internal/util"
	"github.com/kapu/trend-script-go/pkg/errors"
)

// ModelManager routes prompts to the primary provider and falls back to the
// secondary one, behind a shared circuit breaker.
type ModelManager struct {
	primary        Provider
	fallback       Provider
	logger         *zap.Logger
	enableFallback bool
	timeout        time.Duration
	circuitBreaker *util.CircuitBreaker
}

type ModelManagerConfig struct {
	GeminiAPIKey       string
	OpenAIAPIKey       string
	DefaultGeminiModel string
	DefaultOpenAIModel string
	EnableFallback     bool
	Timeout            time.Duration
}

// NewModelManager builds the providers that have credentials. A manager with no
// providers is still returned; it reports a configuration error on use.
func NewModelManager(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	defaultGemini := cfg.DefaultGeminiModel
	if defaultGemini == "" {
		defaultGemini = constants.ModelDefaults.GeminiModel
	}

	defaultOpenAI := cfg.DefaultOpenAIModel
	if defaultOpenAI == "" {
		defaultOpenAI = constants.ModelDefaults.OpenAIModel
	}

	var primary, fallback Provider
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		primary = NewGeminiProvider(geminiClient, defaultGemini, logger)
	}

	if openaiProvider := NewOpenAIProvider(cfg.OpenAIAPIKey, defaultOpenAI, logger); openaiProvider != nil {
		if primary == nil {
			logger.Info("OpenAI is the only configured provider", zap.String("model", defaultOpenAI))
			primary = openaiProvider
		} else if cfg.EnableFallback {
			logger.Info("OpenAI fallback enabled", zap.String("model", defaultOpenAI))
			fallback = openaiProvider
		}
	} else {
		logger.Info("OpenAI fallback disabled (no API key)")
	}

	return NewModelManagerWithProviders(primary, fallback, cfg.Timeout, logger), nil
}

// NewModelManagerWithProviders wires explicit providers; either may be nil.
func NewModelManagerWithProviders(primary, fallback Provider, timeout time.Duration, logger *zap.Logger) *ModelManager {
	if timeout <= 0 {
		timeout = constants.ModelDefaults.Timeout
	}
	mm := &ModelManager{
		primary:        primary,
		fallback:       fallback,
		logger:         logger,
		enableFallback: fallback != nil,
		timeout:        timeout,
	}
	mm.circuitBreaker = util.NewCircuitBreaker(util.CircuitBreakerConfig{
		Name:                "model",
		FailureThreshold:    constants.CircuitBreakerConfig.FailureThreshold,
		ResetTimeout:        constants.CircuitBreakerConfig.ResetTimeout,
		HealthCheckInterval: constants.CircuitBreakerConfig.HealthCheckInterval,
		HealthCheck:         mm.healthCheckPing,
	}, logger)
	return mm
}

// GenerateText returns the model's raw text. Errors are always
// *errors.GenerationError or *errors.ConfigurationError.
func (mm *ModelManager) GenerateText(ctx context.Context, prompt string, preset ModelPreset, opts *GenerateOptions) (*GenerateResult, error) {
	if mm.primary == nil {
		return nil, errors.NewConfigurationError("no model provider configured; set GEMINI_API_KEY or OPENAI_API_KEY", "model_manager", nil)
	}

	if !mm.circuitBreaker.CanExecute() {
		status := mm.circuitBreaker.Status()
		nextRetry := "unknown"
		if status.NextRetryTime != nil {
			nextRetry = status.NextRetryTime.Format(time.RFC3339)
		}

		mm.logger.Error("AI service unavailable (Circuit OPEN)",
			zap.String("state", status.State.String()),
			zap.Int("failure_count", status.FailureCount),
			zap.String("next_retry", nextRetry),
		)
		return nil, errors.NewGenerationError("model providers unavailable until "+nextRetry, errors.KindUnavailable, true, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, mm.timeout)
	defer cancel()

	result, primaryErr := mm.invoke(ctx, mm.primary, prompt, preset, opts, false)
	if primaryErr == nil {
		return result, nil
	}

	if !mm.enableFallback || ctx.Err() != nil {
		mm.recordFailure(ctx, primaryErr)
		return nil, primaryErr
	}

	result, fallbackErr := mm.invoke(ctx, mm.fallback, prompt, preset, opts, true)
	if fallbackErr == nil {
		return result, nil
	}

	mm.recordFailure(ctx, primaryErr)
	mm.recordFailure(ctx, fallbackErr)

	if !errors.IsRetryable(primaryErr) && errors.IsRetryable(fallbackErr) {
		return nil, fallbackErr
	}
	return nil, primaryErr
}

func (mm *ModelManager) invoke(ctx context.Context, provider Provider, prompt string, preset ModelPreset, opts *GenerateOptions, usedFallback bool) (*GenerateResult, error) {
	res, err := provider.Generate(ctx, prompt, preset, opts)
	if err != nil {
		return nil, classify(provider.Name(), err)
	}
	if strings.TrimSpace(res.Text) == "" {
		return nil, errors.NewGenerationError(provider.Name()+" returned an empty response", errors.KindEmptyResponse, true, nil)
	}

	mm.circuitBreaker.RecordSuccess()
	return &GenerateResult{
		Text:         res.Text,
		Provider:     provider.Name(),
		Model:        res.Model,
		UsedFallback: usedFallback,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
	}, nil
}

// recordFailure counts outages against the breaker. Caller cancellation does not count.
func (mm *ModelManager) recordFailure(ctx context.Context, err error) {
	if !isServiceFailure(err) {
		return
	}
	if ctx.Err() == context.Canceled {
		return
	}

	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if errors.Kind(err) == string(errors.KindRateLimited) {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}
	mm.circuitBreaker.RecordFailure(timeout)
}

func (mm *ModelManager) healthCheckPing() bool {
	mm.logger.Info("Health Check: Testing AI services...")

	ctx, cancel := context.WithTimeout(context.Background(), constants.CircuitBreakerConfig.HealthCheckTimeout)
	defer cancel()

	primaryOK := mm.primary != nil && mm.primary.Ping(ctx)
	fallbackOK := mm.enableFallback && mm.fallback.Ping(ctx)
	isHealthy := primaryOK || fallbackOK

	mm.logger.Info("Health Check: Result",
		zap.Bool("primary", primaryOK),
		zap.Bool("fallback", fallbackOK),
		zap.Bool("healthy", isHealthy),
	)
	return isHealthy
}

// ProviderName is the primary provider's name, or "" when none is configured.
func (mm *ModelManager) ProviderName() string {
	if mm.primary == nil {
		return ""
	}
	return mm.primary.Name()
}

// GetCircuitStatus reports the primary provider's breaker.
func (mm *ModelManager) GetCircuitStatus() util.CircuitBreakerStatus {
	return mm.circuitBreaker.Status()
}
