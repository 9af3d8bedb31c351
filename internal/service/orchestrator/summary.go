package orchestrator

import (
	"fmt"
	"strings"

	"github.com/kapu/trend-script-go/internal/domain"
)

type PlatformStatus string

const (
	StatusSuccess  PlatformStatus = "success"
	StatusWarnings PlatformStatus = "success_with_warnings"
	StatusFailed   PlatformStatus = "failed"
)

type PlatformSummary struct {
	Platform   domain.Platform `json:"platform"`
	Status     PlatformStatus  `json:"status"`
	Attempts   int             `json:"attempts"`
	Warnings   int             `json:"warnings"`
	ViralScore *int            `json:"viral_score,omitempty"`
	Error      string          `json:"error,omitempty"`
	Retryable  bool            `json:"retryable,omitempty"`
}

type ComparisonSummary struct {
	Platforms      []PlatformSummary `json:"platforms"`
	Recommendation string            `json:"recommendation"`
	BestPlatform   domain.Platform   `json:"best_platform,omitempty"`
}

// GetComparisonSummary is a read-only projection of result. Viral scores are
// filled in only when a scorer is configured.
func (o *Orchestrator) GetComparisonSummary(result *domain.MultiPlatformResult) ComparisonSummary {
	var summary ComparisonSummary
	if result == nil {
		summary.Recommendation = recommend(0, 0, nil)
		return summary
	}

	succeeded, bestScore := 0, -1
	var retryable []string
	for _, p := range result.Platforms() {
		res := result.Results[p]
		ps := PlatformSummary{
			Platform:  p,
			Status:    StatusFailed,
			Attempts:  res.Attempts,
			Error:     res.Error,
			Retryable: !res.Success && res.Retryable,
		}
		if res.Success {
			succeeded++
			ps.Status = StatusSuccess
			if res.Script != nil && res.Script.HasWarnings() {
				ps.Status = StatusWarnings
				ps.Warnings = len(res.Script.Warnings)
			}
			if o != nil && o.scorer != nil && res.Script != nil {
				score := o.scorer.Score(res.Script).OverallScore
				ps.ViralScore = &score
				if score > bestScore {
					bestScore = score
					summary.BestPlatform = p
				}
			} else if summary.BestPlatform == "" {
				summary.BestPlatform = p
			}
		} else if ps.Retryable {
			retryable = append(retryable, p.DisplayName())
		}
		summary.Platforms = append(summary.Platforms, ps)
	}

	summary.Recommendation = recommend(succeeded, len(summary.Platforms), retryable)
	return summary
}

func recommend(succeeded, total int, retryable []string) string {
	switch {
	case total > 0 && succeeded == total:
		return "All platforms succeeded. Scripts are ready for review."
	case succeeded > 0:
		msg := fmt.Sprintf("%d of %d platforms succeeded.", succeeded, total)
		if len(retryable) > 0 {
			msg += " Retry the failed platforms: " + strings.Join(retryable, ", ") + "."
		} else {
			msg += " The remaining failures are not retryable; check configuration and input."
		}
		return msg
	default:
		if len(retryable) > 0 {
			return "No platform succeeded. The failures look transient; retry later."
		}
		return "No platform succeeded. Check the model configuration and the trend input."
	}
}
