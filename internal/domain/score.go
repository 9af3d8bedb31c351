package domain

type ScoreMetric string

const (
	MetricHookStrength         ScoreMetric = "hook_strength"
	MetricCompletionPotential  ScoreMetric = "completion_potential"
	MetricEngagementTriggers   ScoreMetric = "engagement_triggers"
	MetricPlatformOptimization ScoreMetric = "platform_optimization"
	MetricLoopPotential        ScoreMetric = "loop_potential"
)

type ScoreBreakdown struct {
	Metric   ScoreMetric `json:"metric"`
	Score    int         `json:"score"`
	Feedback string      `json:"feedback"`
}

// AlgorithmScore is the heuristic viral-potential estimate for one script.
type AlgorithmScore struct {
	Platform             Platform         `json:"platform"`
	HookStrength         int              `json:"hook_strength"`
	CompletionPotential  int              `json:"completion_potential"`
	EngagementTriggers   int              `json:"engagement_triggers"`
	PlatformOptimization int              `json:"platform_optimization"`
	LoopPotential        int              `json:"loop_potential"`
	OverallScore         int              `json:"overall_score"`
	Breakdown            []ScoreBreakdown `json:"breakdown"`
	Improvements         []string         `json:"improvements"`
}
