package validator

import (
	"strings"
	"testing"

	"github.com/kapu/trend-script-go/internal/domain"
	"go.uber.org/zap"
)

func words(n int, last string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "story"
	}
	parts[n-1] = last
	return strings.Join(parts, " ")
}

func baseRules() domain.ValidationRuleSet {
	return domain.ValidationRuleSet{
		Platform:           domain.PlatformTikTok,
		MinDuration:        23,
		MaxDuration:        38,
		MinHashtags:        3,
		MaxHashtags:        5,
		RequireHook:        true,
		RequireCTA:         true,
		MinHookWords:       3,
		MinBodyWords:       20,
		RequireCompleteEnd: true,
	}
}

func validScript() *domain.PlatformScript {
	return domain.NewPlatformScript(domain.PlatformTikTok, "Title",
		domain.ScriptSections{
			Hook: domain.NewSection(words(8, "now?")),
			Body: domain.NewSection(words(60, "end.")),
			CTA:  domain.NewSection(words(6, "more!")),
		},
		[]string{"#a", "#b", "#c"}, nil, domain.ScriptMetadata{})
}

func ruleIDs(result *domain.ValidationResult) []string {
	ids := make([]string, 0, len(result.Violations))
	for _, v := range result.Violations {
		ids = append(ids, v.RuleID)
	}
	return ids
}

func TestValidateAcceptsCompliantScript(t *testing.T) {
	v := NewValidator(zap.NewNop())
	result := v.Validate(validScript(), baseRules())

	if !result.IsValid {
		t.Fatalf("expected valid script, got violations %v", ruleIDs(result))
	}
	if result.Score != 100 {
		t.Fatalf("expected score 100, got %d", result.Score)
	}
	if result.FeedbackForRetry != "" {
		t.Fatalf("expected no feedback, got %q", result.FeedbackForRetry)
	}
}

func TestValidateReportsMissingSections(t *testing.T) {
	v := NewValidator(zap.NewNop())
	script := validScript().WithSection(domain.SectionHook, "").WithSection(domain.SectionCTA, "")

	result := v.Validate(script, baseRules())
	if result.IsValid {
		t.Fatalf("expected invalid result")
	}

	ids := strings.Join(ruleIDs(result), ",")
	if !strings.Contains(ids, RuleHookRequired) || !strings.Contains(ids, RuleCTARequired) {
		t.Fatalf("expected hook and cta violations, got %s", ids)
	}
	if result.Score != 100-20-15 {
		t.Fatalf("expected score 65, got %d", result.Score)
	}
	if !strings.Contains(result.FeedbackForRetry, "hook is missing") {
		t.Fatalf("expected feedback to carry violation messages, got %q", result.FeedbackForRetry)
	}
}

func TestValidateSectionsNotRequired(t *testing.T) {
	v := NewValidator(zap.NewNop())
	rules := baseRules()
	rules.RequireHook = false
	rules.RequireCTA = false
	rules.MinDuration = 15

	script := validScript().WithSection(domain.SectionHook, "").WithSection(domain.SectionCTA, "")
	result := v.Validate(script, rules)
	if !result.IsValid {
		t.Fatalf("expected valid result when sections are optional, got %v", ruleIDs(result))
	}
}

func TestValidateDurationBounds(t *testing.T) {
	v := NewValidator(zap.NewNop())

	long := validScript().WithSection(domain.SectionBody, words(150, "end."))
	result := v.Validate(long, baseRules())
	if got := ruleIDs(result); len(got) != 1 || got[0] != RuleDurationMax {
		t.Fatalf("expected only duration_max, got %v", got)
	}

	short := validScript().WithSection(domain.SectionBody, words(25, "end."))
	result = v.Validate(short, baseRules())
	if got := ruleIDs(result); len(got) != 1 || got[0] != RuleDurationMin {
		t.Fatalf("expected only duration_min, got %v", got)
	}
	if !strings.Contains(result.Violations[0].Message, "TikTok") {
		t.Fatalf("expected platform name in message, got %q", result.Violations[0].Message)
	}
}

func TestValidateHashtagRange(t *testing.T) {
	v := NewValidator(zap.NewNop())
	script := validScript()
	script.Hashtags = []string{"#a", "#b", "#c", "#d", "#e", "#f"}

	result := v.Validate(script, baseRules())
	if got := ruleIDs(result); len(got) != 1 || got[0] != RuleHashtagsMax {
		t.Fatalf("expected hashtags_max, got %v", got)
	}
}

func TestValidateTruncatedEnding(t *testing.T) {
	v := NewValidator(zap.NewNop())
	script := validScript().WithSection(domain.SectionCTA, "Follow for more and")

	result := v.Validate(script, baseRules())
	ids := strings.Join(ruleIDs(result), ",")
	if !strings.Contains(ids, RuleEndingPunctuation) || !strings.Contains(ids, RuleTruncatedEnding) {
		t.Fatalf("expected punctuation and truncation violations, got %s", ids)
	}
}

func TestValidateEmojiAfterPunctuationIsComplete(t *testing.T) {
	v := NewValidator(zap.NewNop())
	script := validScript().WithSection(domain.SectionCTA, "Follow for part two! 🔥")

	result := v.Validate(script, baseRules())
	if !result.IsValid {
		t.Fatalf("expected trailing emoji to be ignored, got %v", ruleIDs(result))
	}
}

func TestValidateScoreFloorsAtZero(t *testing.T) {
	v := NewValidator(zap.NewNop())
	empty := domain.NewPlatformScript(domain.PlatformTikTok, "", domain.ScriptSections{}, nil, nil, domain.ScriptMetadata{})

	result := v.Validate(empty, baseRules())
	if result.Score < 0 {
		t.Fatalf("score must not go below zero, got %d", result.Score)
	}
	if result.IsValid {
		t.Fatalf("expected empty script to be invalid")
	}
}
