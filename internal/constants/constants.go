package constants

import "time"

var PipelineConfig = struct {
	MaxRetries       int
	EnableValidation bool
	MaxConcurrency   int
}{
	MaxRetries:       3,    // hard bound on generate/validate attempts per platform
	EnableValidation: true, // supervisor validates every attempt
	MaxConcurrency:   0,    // 0 = one goroutine per requested platform
}

var MetricsConfig = struct {
	HistorySize int
}{
	HistorySize: 1000, // completed operations kept in memory, oldest dropped first
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,
	ResetTimeout:        30 * time.Second,
	RateLimitTimeout:    5 * time.Minute,
	HealthCheckInterval: 2 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var ModelDefaults = struct {
	GeminiModel string
	OpenAIModel string
	Timeout     time.Duration
}{
	GeminiModel: "gemini-2.5-flash",
	OpenAIModel: "gpt-5-mini",
	Timeout:     60 * time.Second,
}

var CacheTTL = struct {
	GenerationResult time.Duration
}{
	GenerationResult: 6 * time.Hour,
}

var ScoringWeights = struct {
	HookStrength         float64
	CompletionPotential  float64
	EngagementTriggers   float64
	PlatformOptimization float64
	LoopPotential        float64
}{
	HookStrength:         0.25,
	CompletionPotential:  0.25,
	EngagementTriggers:   0.20,
	PlatformOptimization: 0.15,
	LoopPotential:        0.15,
}

var ScoringThresholds = struct {
	HookStrength       int
	LoopPotential      int
	EngagementTriggers int
}{
	HookStrength:       60,
	LoopPotential:      60,
	EngagementTriggers: 50,
}
