package adapter

import (
	"strings"
	"testing"

	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/service/orchestrator"
)

func sampleResult() (*domain.MultiPlatformResult, orchestrator.ComparisonSummary) {
	script := domain.NewPlatformScript(domain.PlatformTikTok, "Three hearts", domain.ScriptSections{
		Hook: domain.NewSection("Did you know octopuses have three hearts?"),
		Body: domain.NewSection("Two pump blood to the gills."),
		CTA:  domain.NewSection("Follow for more."),
	}, []string{"#ocean", "#facts"}, nil, domain.ScriptMetadata{})
	script.Warnings = []string{"Body is short"}

	result := &domain.MultiPlatformResult{
		TrendID: "t-1",
		Trend:   &domain.TrendData{ID: "t-1", Title: "Octopus hearts"},
		Results: map[domain.Platform]*domain.PlatformResult{
			domain.PlatformTikTok: {Platform: domain.PlatformTikTok, Success: true, Script: script, Attempts: 2},
			domain.PlatformReels:  {Platform: domain.PlatformReels, Error: "model unavailable", Retryable: true, Attempts: 1},
		},
		Metadata: domain.ResultMetadata{Supervised: true},
	}
	result.RecountOutcomes()

	score := 72
	summary := orchestrator.ComparisonSummary{
		Platforms: []orchestrator.PlatformSummary{
			{Platform: domain.PlatformTikTok, Status: orchestrator.StatusWarnings, Attempts: 2, Warnings: 1, ViralScore: &score},
			{Platform: domain.PlatformReels, Status: orchestrator.StatusFailed, Attempts: 1, Error: "model unavailable", Retryable: true},
		},
		Recommendation: "1 of 2 platforms succeeded.",
		BestPlatform:   domain.PlatformTikTok,
	}
	return result, summary
}

func TestFormatResultOutcomesOnly(t *testing.T) {
	result, summary := sampleResult()
	out := NewResponseFormatter(false).FormatResult(result, summary)

	for _, want := range []string{
		"Trend t-1: Octopus hearts",
		"Mode: supervised | 1 ok, 1 failed",
		"1. TikTok: ok, 1 warning(s) (attempts: 2) score 72/100",
		"2. Instagram Reels: failed (retryable) (attempts: 1)",
		"model unavailable",
		"Best: TikTok",
		"1 of 2 platforms succeeded.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "[BODY]") {
		t.Errorf("scripts should be hidden:\n%s", out)
	}
}

func TestFormatResultWithScripts(t *testing.T) {
	result, summary := sampleResult()
	out := NewResponseFormatter(true).FormatResult(result, summary)

	for _, want := range []string{
		"[HOOK] Did you know octopuses have three hearts?",
		"[BODY] Two pump blood to the gills.",
		"[CTA] Follow for more.",
		"#ocean #facts",
		"! Body is short",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatScore(t *testing.T) {
	out := NewResponseFormatter(false).FormatScore(domain.AlgorithmScore{
		Platform:     domain.PlatformShorts,
		OverallScore: 64,
		Breakdown: []domain.ScoreBreakdown{
			{Metric: domain.MetricHookStrength, Score: 75, Feedback: "Strong hook"},
		},
		Improvements: []string{"End on an open question."},
	})

	for _, want := range []string{
		"YouTube Shorts viral potential: 64/100",
		"- hook_strength: 75 (Strong hook)",
		"1. End on an open question.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatNilResult(t *testing.T) {
	if out := NewResponseFormatter(false).FormatResult(nil, orchestrator.ComparisonSummary{}); !strings.HasPrefix(out, "error:") {
		t.Fatalf("unexpected output %q", out)
	}
}
