package scorer

import (
	"fmt"
	"strings"

	"github.com/kapu/trend-script-go/internal/constants"
	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/platform"
	"github.com/kapu/trend-script-go/internal/util"
)

// fallbackProfile applies to scripts for platforms the catalog does not know.
var fallbackProfile = &platform.Profile{
	DisplayName:           "this platform",
	Duration:              platform.DurationBand{Min: 15, Max: 60, Ideal: 30},
	Hashtags:              platform.Range{Min: 1, Max: 5},
	CompletionThreshold:   60,
	OptimizationThreshold: 60,
}

// Scorer estimates viral potential. It is stateless: the same script always
// yields the same score.
type Scorer struct {
	catalog *platform.Catalog
}

func New(catalog *platform.Catalog) *Scorer {
	return &Scorer{catalog: catalog}
}

func (sc *Scorer) profile(p domain.Platform) *platform.Profile {
	if profile := sc.catalog.Profile(p); profile != nil {
		return profile
	}
	return fallbackProfile
}

// Score runs the five sub-scorers and combines them with the fixed weights.
func (sc *Scorer) Score(s *domain.PlatformScript) domain.AlgorithmScore {
	if s == nil {
		s = domain.NewPlatformScript("", "", domain.ScriptSections{}, nil, nil, domain.ScriptMetadata{})
	}
	profile := sc.profile(s.Platform)

	hook := scoreHook(s)
	completion := scoreCompletion(s, profile)
	engagement := scoreEngagement(s)
	optimization := scorePlatformOptimization(s, profile)
	loop := scoreLoop(s)

	w := constants.ScoringWeights
	overall := util.RoundInt(
		w.HookStrength*float64(hook) +
			w.CompletionPotential*float64(completion) +
			w.EngagementTriggers*float64(engagement) +
			w.PlatformOptimization*float64(optimization) +
			w.LoopPotential*float64(loop),
	)

	return domain.AlgorithmScore{
		Platform:             s.Platform,
		HookStrength:         hook,
		CompletionPotential:  completion,
		EngagementTriggers:   engagement,
		PlatformOptimization: optimization,
		LoopPotential:        loop,
		OverallScore:         overall,
		Breakdown: []domain.ScoreBreakdown{
			{Metric: domain.MetricHookStrength, Score: hook, Feedback: hookFeedback(hook)},
			{Metric: domain.MetricCompletionPotential, Score: completion, Feedback: completionFeedback(s, profile)},
			{Metric: domain.MetricEngagementTriggers, Score: engagement, Feedback: tierFeedback(engagement, "engagement triggers")},
			{Metric: domain.MetricPlatformOptimization, Score: optimization, Feedback: tierFeedback(optimization, profile.DisplayName+" fit")},
			{Metric: domain.MetricLoopPotential, Score: loop, Feedback: tierFeedback(loop, "loop potential")},
		},
		Improvements: improvements(s, profile, hook, completion, engagement, optimization, loop),
	}
}

// hookText falls back to the body's first sentence when there is no hook.
func hookText(s *domain.PlatformScript) string {
	if !s.Sections.Hook.IsEmpty() {
		return strings.TrimSpace(s.Sections.Hook.Content)
	}
	if s.Sections.Body.IsEmpty() {
		return ""
	}
	body := strings.TrimSpace(s.Sections.Body.Content)
	if idx := strings.IndexAny(body, ".!?\n"); idx >= 0 {
		return body[:idx+1]
	}
	return body
}

func scoreHook(s *domain.PlatformScript) int {
	hook := hookText(s)
	if hook == "" {
		return 10
	}

	score := 40
	if strong := countMatches(strongHookPatterns, hook); strong > 0 {
		score += 20 + 5*min(strong-1, 2)
	}
	if countMatches(weakHookPatterns, hook) > 0 {
		score -= 20
	}

	switch wc := domain.CountWords(hook); {
	case wc >= 5 && wc <= 15:
		score += 10
	case wc < 5:
		score -= 5
	default:
		score -= 10
	}

	if s.Sections.Hook.IsEmpty() {
		score -= 10
	}
	return util.ClampScore(score)
}

func scoreCompletion(s *domain.PlatformScript, profile *platform.Profile) int {
	band := profile.Duration
	d := s.EstimatedDurationSeconds
	score := 40

	switch {
	case d <= 0:
		score -= 30
	case band.Contains(d):
		span := max(band.Ideal-band.Min, band.Max-band.Ideal, 1)
		closeness := 1 - float64(util.Abs(d-band.Ideal))/float64(span)
		score += 15 + util.RoundInt(25*closeness)
	case d > band.Max:
		score -= min(40, d-band.Max)
	default:
		score -= min(20, band.Min-d)
	}

	if countAllMatches(patternInterruptPatterns, s.FullText()) > 0 {
		score += 15
	}
	return util.ClampScore(score)
}

func scoreEngagement(s *domain.PlatformScript) int {
	full := s.FullText()
	score := 30

	if strings.Contains(full, "?") {
		score += 15
	}
	if !s.Sections.CTA.IsEmpty() && ctaCommandPattern.MatchString(s.Sections.CTA.Content) {
		score += 20
	}
	if debatePattern.MatchString(full) {
		score += 15
	}
	if challengePattern.MatchString(full) {
		score += 15
	}
	return util.ClampScore(score)
}

func scorePlatformOptimization(s *domain.PlatformScript, profile *platform.Profile) int {
	score := 40

	switch n := len(s.Hashtags); {
	case profile.Hashtags.Contains(n):
		score += 20
	case n == 0:
		score -= 15
	default:
		score -= 5
	}
	if !s.Sections.Hook.IsEmpty() {
		score += 10
	}
	if !s.Sections.CTA.IsEmpty() {
		score += 10
	}
	if len(s.Optimizations) > 0 {
		score += 10
	}
	return util.ClampScore(score)
}

func endingText(s *domain.PlatformScript) string {
	if !s.Sections.CTA.IsEmpty() {
		return strings.TrimSpace(s.Sections.CTA.Content)
	}
	if !s.Sections.Body.IsEmpty() {
		return strings.TrimSpace(s.Sections.Body.Content)
	}
	return ""
}

func scoreLoop(s *domain.PlatformScript) int {
	ending := endingText(s)
	if ending == "" {
		return 0
	}
	final := util.LastSentence(ending)
	score := 30

	if countMatches(openEndedPatterns, ending) > 0 {
		score += 20
	}
	if callbackPattern.MatchString(ending) {
		score += 15
	}
	if strings.HasSuffix(strings.TrimSpace(final), "?") {
		score += 15
	}
	if echoesHook(s, final) {
		score += 20
	}
	return util.ClampScore(score)
}

// echoesHook reports whether the hook's first meaningful word comes back in the
// closing sentence.
func echoesHook(s *domain.PlatformScript, final string) bool {
	fields := strings.Fields(hookText(s))
	if len(fields) == 0 {
		return false
	}
	first := util.Normalize(util.TrimPunctuation(fields[0]))
	if len([]rune(first)) < 3 {
		return false
	}
	if _, stop := echoStopWords[first]; stop {
		return false
	}
	for _, w := range strings.Fields(final) {
		if util.Normalize(util.TrimPunctuation(w)) == first {
			return true
		}
	}
	return false
}

func hookFeedback(score int) string {
	switch {
	case score >= 80:
		return "Strong opener that should stop the scroll."
	case score >= constants.ScoringThresholds.HookStrength:
		return "Decent hook; a sharper first line would help."
	default:
		return "Weak hook; viewers are likely to swipe in the first seconds."
	}
}

func completionFeedback(s *domain.PlatformScript, profile *platform.Profile) string {
	band := profile.Duration
	d := s.EstimatedDurationSeconds
	switch {
	case band.Contains(d):
		return fmt.Sprintf("Runtime %ds fits the %d-%ds band (ideal %ds).", d, band.Min, band.Max, band.Ideal)
	case d > band.Max:
		return fmt.Sprintf("Runtime %ds is %ds over the %ds limit; expect drop-off.", d, d-band.Max, band.Max)
	default:
		return fmt.Sprintf("Runtime %ds is shorter than the %ds minimum.", d, band.Min)
	}
}

func tierFeedback(score int, label string) string {
	switch {
	case score >= 80:
		return "Strong " + label + "."
	case score >= 60:
		return "Adequate " + label + "."
	default:
		return "Weak " + label + "."
	}
}

func improvements(s *domain.PlatformScript, profile *platform.Profile, hook, completion, engagement, optimization, loop int) []string {
	result := make([]string, 0, 5)
	thresholds := constants.ScoringThresholds

	if hook < thresholds.HookStrength {
		result = append(result, "Open with a question, a surprising number or a bold claim, and keep the hook between 5 and 15 words.")
	}
	if completion < profile.CompletionThreshold {
		band := profile.Duration
		if !band.Contains(s.EstimatedDurationSeconds) {
			result = append(result, fmt.Sprintf("Bring the runtime to %d-%ds (ideal %ds) for %s.", band.Min, band.Max, band.Ideal, profile.DisplayName))
		} else {
			result = append(result, "Add a pattern interrupt mid-script (a cut, on-screen text or \"but here's the thing\") to hold attention.")
		}
	}
	if engagement < thresholds.EngagementTriggers {
		result = append(result, "Ask viewers a direct question or invite a debate, and make the CTA a clear command such as comment, share or follow.")
	}
	if optimization < profile.OptimizationThreshold {
		if !profile.Hashtags.Contains(len(s.Hashtags)) {
			result = append(result, fmt.Sprintf("Use %d-%d hashtags for %s.", profile.Hashtags.Min, profile.Hashtags.Max, profile.DisplayName))
		} else {
			result = append(result, "Include both a hook and a CTA and note platform-specific optimizations.")
		}
	}
	if loop < thresholds.LoopPotential {
		result = append(result, "End on an open question or a callback to the hook so the video loops.")
	}
	return result
}
