package prompt

import (
	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/platform"
	"github.com/kapu/trend-script-go/internal/util"
)

// ScriptPromptData is everything the script prompt mentions.
type ScriptPromptData struct {
	PlatformName           string
	TrendTitle             string
	Source                 string
	Category               string
	Score                  int
	Comments               int
	NES                    float64
	TargetSeconds          int
	TargetWords            int
	MinSeconds             int
	MaxSeconds             int
	Tone                   string
	LanguageName           string
	IncludeHook            bool
	IncludeCTA             bool
	HashtagMin             int
	HashtagMax             int
	Optimizations          []string
	AdditionalInstructions string
}

var languageNames = map[domain.Language]string{
	domain.LanguageEnglish:  "English",
	domain.LanguageKorean:   "Korean",
	domain.LanguageJapanese: "Japanese",
	domain.LanguageSpanish:  "Spanish",
}

// NewScriptPromptData assembles prompt inputs for one platform. Retry feedback
// arrives verbatim through opts.AdditionalInstructions.
func NewScriptPromptData(trend *domain.TrendData, profile *platform.Profile, rules domain.ValidationRuleSet, opts domain.GenerationOptions) ScriptPromptData {
	opts = opts.Normalized()

	language, ok := languageNames[opts.Language]
	if !ok {
		language = "English"
	}

	target := util.Clamp(opts.TargetDurationSeconds, rules.MinDuration, rules.MaxDuration)
	data := ScriptPromptData{
		TargetSeconds: target,
		TargetWords:   int(float64(target) * domain.WordsPerSecond),
		MinSeconds:    rules.MinDuration,
		MaxSeconds:    rules.MaxDuration,
		Tone:          string(opts.Tone),
		LanguageName:  language,
		IncludeHook:   opts.IncludeHook,
		IncludeCTA:    opts.IncludeCTA,
		HashtagMin:    rules.MinHashtags,
		HashtagMax:    rules.MaxHashtags,
	}
	if trend != nil {
		data.TrendTitle = trend.Title
		data.Source = trend.Source()
		data.Category = trend.Category
		data.Score = trend.Score
		data.Comments = trend.NumComments
		data.NES = trend.NES
	}
	if profile != nil {
		data.PlatformName = profile.DisplayName
		data.Optimizations = profile.Optimizations
	}
	data.AdditionalInstructions = opts.AdditionalInstructions
	return data
}
