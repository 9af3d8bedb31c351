package domain

import "time"

// PlatformResult is the outcome of one platform task inside an orchestration run.
type PlatformResult struct {
	Platform   Platform          `json:"platform"`
	Success    bool              `json:"success"`
	Script     *PlatformScript   `json:"script,omitempty"`
	Validation *ValidationResult `json:"validation,omitempty"`
	Attempts   int               `json:"attempts,omitempty"`
	Error      string            `json:"error,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// SupervisedScriptResult is one platform's outcome of the generate/validate loop.
type SupervisedScriptResult struct {
	Platform   Platform          `json:"platform"`
	Success    bool              `json:"success"`
	Script     *PlatformScript   `json:"script,omitempty"`
	Validation *ValidationResult `json:"validation,omitempty"`
	Attempts   int               `json:"attempts"`
	Error      string            `json:"error,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// ToPlatformResult projects a supervised outcome into the orchestration shape.
func (r *SupervisedScriptResult) ToPlatformResult() *PlatformResult {
	if r == nil {
		return nil
	}
	return &PlatformResult{
		Platform:   r.Platform,
		Success:    r.Success,
		Script:     r.Script,
		Validation: r.Validation,
		Attempts:   r.Attempts,
		Error:      r.Error,
		Retryable:  r.Retryable,
	}
}

type ResultMetadata struct {
	RequestedAt   time.Time     `json:"requested_at"`
	CompletedAt   time.Time     `json:"completed_at"`
	TotalDuration time.Duration `json:"total_duration"`
	SuccessCount  int           `json:"success_count"`
	FailureCount  int           `json:"failure_count"`
	Supervised    bool          `json:"supervised"`
	RetryRounds   int           `json:"retry_rounds"`
}

type MultiPlatformResult struct {
	RequestID string                       `json:"request_id"`
	TrendID   string                       `json:"trend_id"`
	Trend     *TrendData                   `json:"trend,omitempty"`
	Results   map[Platform]*PlatformResult `json:"results"`
	Metadata  ResultMetadata               `json:"metadata"`
}

// RecountOutcomes recomputes success/failure counts from the results map.
func (r *MultiPlatformResult) RecountOutcomes() {
	success, failure := 0, 0
	for _, res := range r.Results {
		if res == nil {
			continue
		}
		if res.Success {
			success++
		} else {
			failure++
		}
	}
	r.Metadata.SuccessCount = success
	r.Metadata.FailureCount = failure
}

// RetryablePlatforms lists failed platforms that may be re-run, in display order.
func (r *MultiPlatformResult) RetryablePlatforms() []Platform {
	if r == nil {
		return nil
	}
	return orderedPlatforms(r.Results, func(res *PlatformResult) bool {
		return !res.Success && res.Retryable
	})
}

// Platforms returns the platforms present in the result, in display order.
func (r *MultiPlatformResult) Platforms() []Platform {
	if r == nil {
		return nil
	}
	return orderedPlatforms(r.Results, func(*PlatformResult) bool { return true })
}

func orderedPlatforms(results map[Platform]*PlatformResult, keep func(*PlatformResult) bool) []Platform {
	ordered := make([]Platform, 0, len(results))
	for _, p := range AllPlatforms {
		if res, ok := results[p]; ok && res != nil && keep(res) {
			ordered = append(ordered, p)
		}
	}
	for p, res := range results {
		if !p.IsValid() && res != nil && keep(res) {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

type SupervisedResult struct {
	RequestID string                               `json:"request_id"`
	TrendID   string                               `json:"trend_id"`
	Results   map[Platform]*SupervisedScriptResult `json:"results"`
	Metadata  ResultMetadata                       `json:"metadata"`
}

func (r *SupervisedResult) RecountOutcomes() {
	success, failure := 0, 0
	for _, res := range r.Results {
		if res == nil {
			continue
		}
		if res.Success {
			success++
		} else {
			failure++
		}
	}
	r.Metadata.SuccessCount = success
	r.Metadata.FailureCount = failure
}
