package domain

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type Violation struct {
	RuleID   string   `json:"rule_id"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// ValidationResult is produced fresh per validation call. IsValid is true iff
// there are no violations; Score is informational only.
type ValidationResult struct {
	IsValid          bool        `json:"is_valid"`
	Score            int         `json:"score"`
	Violations       []Violation `json:"violations"`
	FeedbackForRetry string      `json:"feedback_for_retry,omitempty"`
}

func (v *ValidationResult) Messages() []string {
	if v == nil {
		return nil
	}
	messages := make([]string, 0, len(v.Violations))
	for _, violation := range v.Violations {
		messages = append(messages, violation.Message)
	}
	return messages
}

// ValidationRuleSet parameterizes the validator for one platform and request.
type ValidationRuleSet struct {
	Platform           Platform `json:"platform" yaml:"platform"`
	MinDuration        int      `json:"min_duration" yaml:"min_duration"`
	MaxDuration        int      `json:"max_duration" yaml:"max_duration"`
	MinHashtags        int      `json:"min_hashtags" yaml:"min_hashtags"`
	MaxHashtags        int      `json:"max_hashtags" yaml:"max_hashtags"`
	RequireHook        bool     `json:"require_hook" yaml:"require_hook"`
	RequireCTA         bool     `json:"require_cta" yaml:"require_cta"`
	MinHookWords       int      `json:"min_hook_words" yaml:"min_hook_words"`
	MinBodyWords       int      `json:"min_body_words" yaml:"min_body_words"`
	RequireCompleteEnd bool     `json:"require_complete_end" yaml:"require_complete_end"`
}
