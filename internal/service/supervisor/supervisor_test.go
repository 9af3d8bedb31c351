package supervisor

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/service/agent"
	"github.com/kapu/trend-script-go/internal/service/metrics"
	"github.com/kapu/trend-script-go/internal/service/validator"
	"github.com/kapu/trend-script-go/pkg/errors"
)

const (
	validBody   = "This body ends on a complete sentence."
	invalidBody = "this body trails off and"
)

// scriptedAgent replays one step per call; the last step repeats.
type scriptedAgent struct {
	platform domain.Platform
	steps    []step

	mu    sync.Mutex
	calls []domain.GenerationOptions
}

type step struct {
	body  string
	err   error
	panic bool
}

func (a *scriptedAgent) Platform() domain.Platform { return a.platform }

func (a *scriptedAgent) Generate(ctx context.Context, trend *domain.TrendData, opts domain.GenerationOptions) (*domain.PlatformScript, error) {
	a.mu.Lock()
	idx := min(len(a.calls), len(a.steps)-1)
	a.calls = append(a.calls, opts)
	a.mu.Unlock()

	st := a.steps[idx]
	if st.panic {
		panic("agent exploded")
	}
	if st.err != nil {
		return nil, st.err
	}
	return domain.NewPlatformScript(a.platform, "title", domain.ScriptSections{Body: domain.NewSection(st.body)}, nil, nil, domain.ScriptMetadata{InputTokens: 10, OutputTokens: 20}), nil
}

func (a *scriptedAgent) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

type staticRules struct{}

func (staticRules) Rules(p domain.Platform, opts domain.GenerationOptions) domain.ValidationRuleSet {
	return domain.ValidationRuleSet{
		Platform:           p,
		MinDuration:        1,
		MaxDuration:        120,
		MaxHashtags:        10,
		MinBodyWords:       3,
		RequireCompleteEnd: true,
	}
}

func newSupervisor(agents map[domain.Platform]agent.PlatformAgent, cfg Config, collector *metrics.Collector) *Supervisor {
	return New(agents, validator.NewValidator(zap.NewNop()), staticRules{}, cfg, zap.NewNop(), WithMetrics(collector))
}

func single(a *scriptedAgent) map[domain.Platform]agent.PlatformAgent {
	return map[domain.Platform]agent.PlatformAgent{a.platform: a}
}

var trend = &domain.TrendData{ID: "t-1", Title: "Trend", Category: "science"}

func transient() error {
	return errors.NewGenerationError("Gemini unavailable", errors.KindUnavailable, true, nil)
}

func TestAcceptsValidFirstAttempt(t *testing.T) {
	a := &scriptedAgent{platform: domain.PlatformTikTok, steps: []step{{body: validBody}}}
	collector := metrics.NewCollector(100, zap.NewNop())
	s := newSupervisor(single(a), DefaultConfig(), collector)

	res := s.SupervisePlatform(context.Background(), trend, domain.PlatformTikTok, domain.DefaultGenerationOptions())

	if !res.Success || res.Attempts != 1 || res.Script == nil || res.Validation == nil || !res.Validation.IsValid {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Script.HasWarnings() {
		t.Fatalf("valid script should carry no warnings")
	}

	summary := collector.GetSummary(nil)
	if summary.ByType[metrics.OpGeneration].Count != 1 || summary.ByType[metrics.OpSupervisedGeneration].Count != 1 {
		t.Fatalf("expected one generation and one supervision record, got %+v", summary.ByType)
	}
}

func TestAcceptsWithWarningsAfterMaxRetries(t *testing.T) {
	a := &scriptedAgent{platform: domain.PlatformReels, steps: []step{{body: invalidBody}}}
	s := newSupervisor(single(a), DefaultConfig(), nil)

	res := s.SupervisePlatform(context.Background(), trend, domain.PlatformReels, domain.DefaultGenerationOptions())

	if !res.Success || res.Attempts != 3 {
		t.Fatalf("expected success after 3 attempts, got %+v", res)
	}
	if a.callCount() != 3 {
		t.Fatalf("agent called %d times, want 3", a.callCount())
	}
	if len(res.Script.Warnings) != len(res.Validation.Violations) || len(res.Script.Warnings) == 0 {
		t.Fatalf("warnings %v should mirror violations %v", res.Script.Warnings, res.Validation.Violations)
	}

	if a.calls[0].AdditionalInstructions != "" {
		t.Fatalf("first attempt must not carry feedback")
	}
	for i, call := range a.calls[1:] {
		if call.AdditionalInstructions != res.Validation.FeedbackForRetry {
			t.Fatalf("attempt %d feedback = %q", i+2, call.AdditionalInstructions)
		}
	}
}

func TestFeedbackKeepsCallerInstructions(t *testing.T) {
	const caller = "Mention the source subreddit."
	a := &scriptedAgent{platform: domain.PlatformTikTok, steps: []step{{body: invalidBody}}}
	s := newSupervisor(single(a), DefaultConfig(), nil)

	opts := domain.DefaultGenerationOptions()
	opts.AdditionalInstructions = caller
	res := s.SupervisePlatform(context.Background(), trend, domain.PlatformTikTok, opts)

	if a.callCount() != 3 {
		t.Fatalf("agent called %d times, want 3", a.callCount())
	}
	if a.calls[0].AdditionalInstructions != caller {
		t.Fatalf("first attempt instructions = %q", a.calls[0].AdditionalInstructions)
	}
	want := caller + "\n\n" + res.Validation.FeedbackForRetry
	for i, call := range a.calls[1:] {
		if call.AdditionalInstructions != want {
			t.Fatalf("attempt %d instructions = %q, want %q", i+2, call.AdditionalInstructions, want)
		}
	}
}

func TestValidationDisabledAcceptsFirstScript(t *testing.T) {
	a := &scriptedAgent{platform: domain.PlatformShorts, steps: []step{{body: invalidBody}}}
	cfg := DefaultConfig()
	cfg.EnableValidation = false
	s := newSupervisor(single(a), cfg, nil)

	res := s.SupervisePlatform(context.Background(), trend, domain.PlatformShorts, domain.DefaultGenerationOptions())

	if !res.Success || res.Attempts != 1 || res.Validation != nil || res.Script.HasWarnings() {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestConfigurationErrorFailsFast(t *testing.T) {
	a := &scriptedAgent{platform: domain.PlatformTikTok, steps: []step{{err: errors.NewConfigurationError("missing key", "gemini", nil)}}}
	s := newSupervisor(single(a), DefaultConfig(), nil)

	res := s.SupervisePlatform(context.Background(), trend, domain.PlatformTikTok, domain.DefaultGenerationOptions())

	if res.Success || res.Attempts != 1 || res.Retryable || a.callCount() != 1 {
		t.Fatalf("expected a single non-retryable failure, got %+v (calls=%d)", res, a.callCount())
	}
}

func TestTransientErrorRetriesWithoutFeedback(t *testing.T) {
	a := &scriptedAgent{platform: domain.PlatformTikTok, steps: []step{{err: transient()}, {body: validBody}}}
	s := newSupervisor(single(a), DefaultConfig(), nil)

	res := s.SupervisePlatform(context.Background(), trend, domain.PlatformTikTok, domain.DefaultGenerationOptions())

	if !res.Success || res.Attempts != 2 {
		t.Fatalf("expected success on attempt 2, got %+v", res)
	}
	if a.calls[1].AdditionalInstructions != "" {
		t.Fatalf("a generation failure must not add feedback")
	}
}

func TestTransientErrorExhaustsRetries(t *testing.T) {
	a := &scriptedAgent{platform: domain.PlatformTikTok, steps: []step{{err: transient()}}}
	s := newSupervisor(single(a), DefaultConfig(), nil)

	res := s.SupervisePlatform(context.Background(), trend, domain.PlatformTikTok, domain.DefaultGenerationOptions())

	if res.Success || res.Attempts != 3 || !res.Retryable || res.Script != nil {
		t.Fatalf("expected retryable failure after 3 attempts, got %+v", res)
	}
	if !strings.Contains(res.Error, "unavailable") {
		t.Fatalf("error should describe the cause: %q", res.Error)
	}
}

func TestAttemptsNeverExceedMaxRetries(t *testing.T) {
	for _, maxRetries := range []int{1, 2, 5} {
		a := &scriptedAgent{platform: domain.PlatformTikTok, steps: []step{{body: invalidBody}}}
		cfg := DefaultConfig()
		cfg.MaxRetries = maxRetries
		s := newSupervisor(single(a), cfg, nil)

		res := s.SupervisePlatform(context.Background(), trend, domain.PlatformTikTok, domain.DefaultGenerationOptions())
		if res.Attempts != maxRetries || a.callCount() != maxRetries {
			t.Fatalf("max %d: attempts=%d calls=%d", maxRetries, res.Attempts, a.callCount())
		}
	}
}

func TestCancelledContextStopsBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &scriptedAgent{platform: domain.PlatformTikTok, steps: []step{{err: transient()}}}
	s := newSupervisor(single(a), DefaultConfig(), nil)

	cancel()
	res := s.SupervisePlatform(ctx, trend, domain.PlatformTikTok, domain.DefaultGenerationOptions())

	if res.Success || a.callCount() != 1 || !stderrors.Is(ctx.Err(), context.Canceled) {
		t.Fatalf("expected to stop after the first attempt, got %+v (calls=%d)", res, a.callCount())
	}
}

func TestMissingAgent(t *testing.T) {
	s := newSupervisor(map[domain.Platform]agent.PlatformAgent{}, DefaultConfig(), nil)
	res := s.SupervisePlatform(context.Background(), trend, domain.PlatformShorts, domain.DefaultGenerationOptions())

	if res.Success || res.Retryable || res.Attempts != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestGenerateSupervisedIsolatesPlatforms(t *testing.T) {
	agents := map[domain.Platform]agent.PlatformAgent{
		domain.PlatformTikTok: &scriptedAgent{platform: domain.PlatformTikTok, steps: []step{{body: validBody}}},
		domain.PlatformReels:  &scriptedAgent{platform: domain.PlatformReels, steps: []step{{panic: true}}},
		domain.PlatformShorts: &scriptedAgent{platform: domain.PlatformShorts, steps: []step{{err: transient()}}},
	}
	s := newSupervisor(agents, DefaultConfig(), nil)

	out := s.GenerateSupervised(context.Background(), trend, domain.AllPlatforms, domain.DefaultGenerationOptions())

	if len(out.Results) != 3 || out.TrendID != "t-1" || !out.Metadata.Supervised || out.RequestID == "" {
		t.Fatalf("unexpected envelope: %+v", out)
	}
	if !out.Results[domain.PlatformTikTok].Success {
		t.Fatalf("tiktok should succeed despite sibling failures")
	}
	reels := out.Results[domain.PlatformReels]
	if reels.Success || !reels.Retryable || !strings.Contains(reels.Error, "panicked") {
		t.Fatalf("panic should become a retryable failure: %+v", reels)
	}
	if out.Results[domain.PlatformShorts].Success {
		t.Fatalf("shorts should fail")
	}
	if out.Metadata.SuccessCount != 1 || out.Metadata.FailureCount != 2 {
		t.Fatalf("unexpected counts: %+v", out.Metadata)
	}
}

func TestGenerateSupervisedDeduplicatesPlatforms(t *testing.T) {
	a := &scriptedAgent{platform: domain.PlatformTikTok, steps: []step{{body: validBody}}}
	s := newSupervisor(single(a), DefaultConfig(), nil)

	out := s.GenerateSupervised(context.Background(), trend, []domain.Platform{domain.PlatformTikTok, domain.PlatformTikTok}, domain.DefaultGenerationOptions())
	if len(out.Results) != 1 || a.callCount() != 1 {
		t.Fatalf("duplicate platforms should run once, got %d results and %d calls", len(out.Results), a.callCount())
	}
}
