// Package adapter renders pipeline results as plain-text reports.
package adapter

import (
	"fmt"
	"strings"
	"time"

	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/service/orchestrator"
	"github.com/kapu/trend-script-go/internal/util"
)

const maxTitleRunes = 60

type ResponseFormatter struct {
	showScripts bool
}

// NewResponseFormatter returns a formatter. With showScripts off, reports
// list outcomes only.
func NewResponseFormatter(showScripts bool) *ResponseFormatter {
	return &ResponseFormatter{showScripts: showScripts}
}

type platformView struct {
	Name     string
	Status   string
	Attempts int
	Score    string
	Error    string
	Title    string
	Duration int
	Hook     string
	Body     string
	CTA      string
	Hashtags []string
	Warnings []string
}

type resultView struct {
	TrendID        string
	TrendTitle     string
	Mode           string
	Duration       string
	SuccessCount   int
	FailureCount   int
	RetryRounds    int
	Platforms      []platformView
	Recommendation string
	Best           string
	ShowScripts    bool
}

// FormatResult renders one orchestration run with its comparison summary.
func (f *ResponseFormatter) FormatResult(result *domain.MultiPlatformResult, summary orchestrator.ComparisonSummary) string {
	if result == nil {
		return f.FormatError("no result")
	}

	view := resultView{
		TrendID:        result.TrendID,
		Mode:           "direct",
		Duration:       result.Metadata.TotalDuration.Round(time.Millisecond).String(),
		SuccessCount:   result.Metadata.SuccessCount,
		FailureCount:   result.Metadata.FailureCount,
		RetryRounds:    result.Metadata.RetryRounds,
		Recommendation: summary.Recommendation,
		ShowScripts:    f.showScripts,
	}
	if result.Trend != nil {
		view.TrendTitle = f.truncateTitle(result.Trend.Title)
	}
	if result.Metadata.Supervised {
		view.Mode = "supervised"
	}
	if summary.BestPlatform != "" {
		view.Best = summary.BestPlatform.DisplayName()
	}

	for _, ps := range summary.Platforms {
		pv := platformView{
			Name:     ps.Platform.DisplayName(),
			Status:   statusLabel(ps),
			Attempts: ps.Attempts,
			Error:    ps.Error,
		}
		if ps.ViralScore != nil {
			pv.Score = fmt.Sprintf("%d/100", *ps.ViralScore)
		}
		if res := result.Results[ps.Platform]; res != nil && res.Script != nil {
			s := res.Script
			pv.Title = s.Title
			pv.Duration = s.EstimatedDurationSeconds
			pv.Hook = sectionText(s.Sections.Hook)
			pv.Body = sectionText(s.Sections.Body)
			pv.CTA = sectionText(s.Sections.CTA)
			pv.Hashtags = s.Hashtags
			pv.Warnings = s.Warnings
		}
		view.Platforms = append(view.Platforms, pv)
	}

	rendered, err := executeFormatterTemplate("result.tmpl", view)
	if err != nil {
		return f.FormatError(err.Error())
	}
	return rendered
}

type scoreView struct {
	Platform     string
	Overall      int
	Breakdown    []domain.ScoreBreakdown
	Improvements []string
}

// FormatScore renders a viral-potential score with its breakdown.
func (f *ResponseFormatter) FormatScore(score domain.AlgorithmScore) string {
	view := scoreView{
		Platform:     score.Platform.DisplayName(),
		Overall:      score.OverallScore,
		Breakdown:    score.Breakdown,
		Improvements: score.Improvements,
	}
	rendered, err := executeFormatterTemplate("score.tmpl", view)
	if err != nil {
		return f.FormatError(err.Error())
	}
	return rendered
}

func (f *ResponseFormatter) FormatError(message string) string {
	return "error: " + message
}

func (f *ResponseFormatter) truncateTitle(title string) string {
	return util.TruncateString(strings.TrimSpace(title), maxTitleRunes)
}

func statusLabel(ps orchestrator.PlatformSummary) string {
	switch ps.Status {
	case orchestrator.StatusSuccess:
		return "ok"
	case orchestrator.StatusWarnings:
		return fmt.Sprintf("ok, %d warning(s)", ps.Warnings)
	default:
		if ps.Retryable {
			return "failed (retryable)"
		}
		return "failed"
	}
}

func sectionText(s *domain.ScriptSection) string {
	if s.IsEmpty() {
		return ""
	}
	return s.Content
}
