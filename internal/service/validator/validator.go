package validator

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/util"
	"go.uber.org/zap"
)

const baseScore = 100

// Rule ids reported in violations.
const (
	RuleBodyRequired      = "body_required"
	RuleHookRequired      = "hook_required"
	RuleCTARequired       = "cta_required"
	RuleDurationMin       = "duration_min"
	RuleDurationMax       = "duration_max"
	RuleHashtagsMin       = "hashtags_min"
	RuleHashtagsMax       = "hashtags_max"
	RuleHookLength        = "hook_length"
	RuleBodyLength        = "body_length"
	RuleEndingPunctuation = "ending_punctuation"
	RuleTruncatedEnding   = "truncated_ending"
)

// check is one independent rule. run returns a message when the script fails it.
type check struct {
	id        string
	severity  domain.Severity
	deduction int
	run       func(s *domain.PlatformScript, rules domain.ValidationRuleSet) (string, bool)
}

// danglingWords are words a finished sentence almost never ends on.
var danglingWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "to": {}, "of": {},
	"with": {}, "for": {}, "in": {}, "on": {}, "at": {}, "because": {}, "that": {},
	"your": {}, "my": {}, "is": {}, "are": {},
}

// Validator is a deterministic quality gate. It holds no per-call state and is
// safe for concurrent use.
type Validator struct {
	checks []check
	logger *zap.Logger
}

func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{
		checks: defaultChecks(),
		logger: logger,
	}
}

// Validate runs every check in order. IsValid is true iff no check failed; the
// score is 100 minus the deductions of failed checks, floored at 0.
func (v *Validator) Validate(s *domain.PlatformScript, rules domain.ValidationRuleSet) *domain.ValidationResult {
	result := &domain.ValidationResult{
		Score:      baseScore,
		Violations: []domain.Violation{},
	}

	if s == nil {
		s = &domain.PlatformScript{Platform: rules.Platform}
	}

	for _, c := range v.checks {
		message, failed := c.run(s, rules)
		if !failed {
			continue
		}
		result.Violations = append(result.Violations, domain.Violation{
			RuleID:   c.id,
			Severity: c.severity,
			Message:  message,
		})
		result.Score -= c.deduction
	}

	result.Score = util.ClampScore(result.Score)
	result.IsValid = len(result.Violations) == 0
	result.FeedbackForRetry = buildFeedback(result.Violations)

	v.logger.Debug("Script validated",
		zap.String("platform", string(rules.Platform)),
		zap.Bool("valid", result.IsValid),
		zap.Int("score", result.Score),
		zap.Int("violations", len(result.Violations)),
	)

	return result
}

func buildFeedback(violations []domain.Violation) string {
	if len(violations) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("The previous version was rejected. Fix these issues:")
	for _, violation := range violations {
		b.WriteString("\n- ")
		b.WriteString(violation.Message)
	}
	return b.String()
}

func defaultChecks() []check {
	return []check{
		{
			id: RuleBodyRequired, severity: domain.SeverityError, deduction: 30,
			run: func(s *domain.PlatformScript, _ domain.ValidationRuleSet) (string, bool) {
				if s.Sections.Body.IsEmpty() {
					return "The body section is missing; write the main content of the script.", true
				}
				return "", false
			},
		},
		{
			id: RuleHookRequired, severity: domain.SeverityError, deduction: 20,
			run: func(s *domain.PlatformScript, r domain.ValidationRuleSet) (string, bool) {
				if r.RequireHook && s.Sections.Hook.IsEmpty() {
					return "The hook is missing; open with one attention-grabbing sentence.", true
				}
				return "", false
			},
		},
		{
			id: RuleCTARequired, severity: domain.SeverityError, deduction: 15,
			run: func(s *domain.PlatformScript, r domain.ValidationRuleSet) (string, bool) {
				if r.RequireCTA && s.Sections.CTA.IsEmpty() {
					return "The call to action is missing; end by telling viewers what to do next.", true
				}
				return "", false
			},
		},
		{
			id: RuleDurationMin, severity: domain.SeverityError, deduction: 15,
			run: func(s *domain.PlatformScript, r domain.ValidationRuleSet) (string, bool) {
				if s.EstimatedDurationSeconds >= r.MinDuration {
					return "", false
				}
				missing := wordsFor(r.MinDuration - s.EstimatedDurationSeconds)
				return fmt.Sprintf("The script runs about %ds, below the %ds minimum for %s; add roughly %d words.",
					s.EstimatedDurationSeconds, r.MinDuration, r.Platform.DisplayName(), missing), true
			},
		},
		{
			id: RuleDurationMax, severity: domain.SeverityError, deduction: 20,
			run: func(s *domain.PlatformScript, r domain.ValidationRuleSet) (string, bool) {
				if s.EstimatedDurationSeconds <= r.MaxDuration {
					return "", false
				}
				extra := wordsFor(s.EstimatedDurationSeconds - r.MaxDuration)
				return fmt.Sprintf("The script runs about %ds, above the %ds maximum for %s; cut roughly %d words.",
					s.EstimatedDurationSeconds, r.MaxDuration, r.Platform.DisplayName(), extra), true
			},
		},
		{
			id: RuleHashtagsMin, severity: domain.SeverityWarning, deduction: 10,
			run: func(s *domain.PlatformScript, r domain.ValidationRuleSet) (string, bool) {
				if len(s.Hashtags) >= r.MinHashtags {
					return "", false
				}
				return fmt.Sprintf("Only %d hashtags were given; use between %d and %d relevant hashtags.",
					len(s.Hashtags), r.MinHashtags, r.MaxHashtags), true
			},
		},
		{
			id: RuleHashtagsMax, severity: domain.SeverityWarning, deduction: 10,
			run: func(s *domain.PlatformScript, r domain.ValidationRuleSet) (string, bool) {
				if len(s.Hashtags) <= r.MaxHashtags {
					return "", false
				}
				return fmt.Sprintf("%d hashtags is too many; keep it to at most %d.", len(s.Hashtags), r.MaxHashtags), true
			},
		},
		{
			id: RuleHookLength, severity: domain.SeverityWarning, deduction: 10,
			run: func(s *domain.PlatformScript, r domain.ValidationRuleSet) (string, bool) {
				hook := s.Sections.Hook
				if hook.IsEmpty() || hook.WordCount >= r.MinHookWords {
					return "", false
				}
				return fmt.Sprintf("The hook has only %d words; use at least %d.", hook.WordCount, r.MinHookWords), true
			},
		},
		{
			id: RuleBodyLength, severity: domain.SeverityError, deduction: 15,
			run: func(s *domain.PlatformScript, r domain.ValidationRuleSet) (string, bool) {
				body := s.Sections.Body
				if body.IsEmpty() || body.WordCount >= r.MinBodyWords {
					return "", false
				}
				return fmt.Sprintf("The body has only %d words; develop it to at least %d.", body.WordCount, r.MinBodyWords), true
			},
		},
		{
			id: RuleEndingPunctuation, severity: domain.SeverityWarning, deduction: 10,
			run: func(s *domain.PlatformScript, r domain.ValidationRuleSet) (string, bool) {
				name, text := finalSection(s)
				if !r.RequireCompleteEnd || text == "" {
					return "", false
				}
				if endsWithTerminal(text) {
					return "", false
				}
				return fmt.Sprintf("The %s does not end with terminal punctuation; finish the last sentence.", name), true
			},
		},
		{
			id: RuleTruncatedEnding, severity: domain.SeverityError, deduction: 10,
			run: func(s *domain.PlatformScript, r domain.ValidationRuleSet) (string, bool) {
				name, text := finalSection(s)
				if !r.RequireCompleteEnd || text == "" {
					return "", false
				}
				if last, cut := truncatedWord(text); cut {
					return fmt.Sprintf("The %s looks cut off after %q; complete the final sentence.", name, last), true
				}
				return "", false
			},
		},
	}
}

// wordsFor converts seconds of speech to an approximate word count.
func wordsFor(seconds int) int {
	return int(math.Ceil(float64(seconds) * domain.WordsPerSecond))
}

// finalSection returns the last present section, which is where an output cut
// off by a token limit would show.
func finalSection(s *domain.PlatformScript) (string, string) {
	if !s.Sections.CTA.IsEmpty() {
		return "call to action", s.Sections.CTA.Content
	}
	if !s.Sections.Body.IsEmpty() {
		return "body", s.Sections.Body.Content
	}
	return "", ""
}

func trimTrailing(text string) string {
	return strings.TrimRightFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsSymbol(r) || strings.ContainsRune(`"')]”’`, r)
	})
}

func endsWithTerminal(text string) bool {
	trimmed := trimTrailing(text)
	if trimmed == "" {
		return false
	}
	return strings.ContainsRune(".!?…", []rune(trimmed)[len([]rune(trimmed))-1])
}

func truncatedWord(text string) (string, bool) {
	trimmed := trimTrailing(text)
	if trimmed == "" {
		return "", false
	}
	if strings.ContainsAny(trimmed[len(trimmed)-1:], ",;:-") {
		fields := strings.Fields(trimmed)
		return fields[len(fields)-1], true
	}
	if endsWithTerminal(trimmed) {
		return "", false
	}
	fields := strings.Fields(trimmed)
	last := util.Normalize(util.TrimPunctuation(fields[len(fields)-1]))
	if _, dangling := danglingWords[last]; dangling {
		return fields[len(fields)-1], true
	}
	return "", false
}
