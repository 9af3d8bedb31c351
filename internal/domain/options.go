package domain

type Tone string

const (
	ToneEducational  Tone = "educational"
	ToneEntertaining Tone = "entertaining"
	ToneDramatic     Tone = "dramatic"
	ToneCasual       Tone = "casual"
	ToneProfessional Tone = "professional"
)

func (t Tone) IsValid() bool {
	switch t {
	case ToneEducational, ToneEntertaining, ToneDramatic, ToneCasual, ToneProfessional:
		return true
	default:
		return false
	}
}

type Language string

const (
	LanguageEnglish  Language = "en"
	LanguageKorean   Language = "ko"
	LanguageJapanese Language = "ja"
	LanguageSpanish  Language = "es"
)

func (l Language) IsValid() bool {
	switch l {
	case LanguageEnglish, LanguageKorean, LanguageJapanese, LanguageSpanish:
		return true
	default:
		return false
	}
}

// GenerationOptions is per-request configuration. It is passed by value so
// the pipeline can attach retry feedback to its own copy.
type GenerationOptions struct {
	TargetDurationSeconds  int      `json:"target_duration_seconds"`
	Tone                   Tone     `json:"tone"`
	Language               Language `json:"language"`
	IncludeHook            bool     `json:"include_hook"`
	IncludeCTA             bool     `json:"include_cta"`
	AdditionalInstructions string   `json:"additional_instructions,omitempty"`
}

// DefaultGenerationOptions returns the options used when a caller has no preference.
func DefaultGenerationOptions() GenerationOptions {
	return GenerationOptions{
		TargetDurationSeconds: 45,
		Tone:                  ToneEntertaining,
		Language:              LanguageEnglish,
		IncludeHook:           true,
		IncludeCTA:            true,
	}
}

// WithFeedback returns a copy carrying validator feedback for the next attempt.
// The caller's own instructions come first and are kept.
func (o GenerationOptions) WithFeedback(feedback string) GenerationOptions {
	switch {
	case feedback == "":
	case o.AdditionalInstructions == "":
		o.AdditionalInstructions = feedback
	default:
		o.AdditionalInstructions = o.AdditionalInstructions + "\n\n" + feedback
	}
	return o
}

// Normalized fills zero values with defaults.
func (o GenerationOptions) Normalized() GenerationOptions {
	defaults := DefaultGenerationOptions()
	if o.TargetDurationSeconds <= 0 {
		o.TargetDurationSeconds = defaults.TargetDurationSeconds
	}
	if !o.Tone.IsValid() {
		o.Tone = defaults.Tone
	}
	if !o.Language.IsValid() {
		o.Language = defaults.Language
	}
	return o
}
