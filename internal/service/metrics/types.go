package metrics

import (
	"time"

	"github.com/kapu/trend-script-go/internal/domain"
)

type OperationType string

const (
	OpGeneration           OperationType = "generation"
	OpSupervisedGeneration OperationType = "supervised_generation"
	OpMultiPlatform        OperationType = "multi_platform"
	OpRetry                OperationType = "retry"
)

// ErrorTypeCancelled marks operations closed through CancelOperation.
const ErrorTypeCancelled = "cancelled"

// OperationContext is what is known when an operation starts.
type OperationContext struct {
	Platform domain.Platform
	Category string
	TrendID  string
	Model    string
}

// OperationResult is what is known when it ends.
type OperationResult struct {
	Success      bool
	InputTokens  int64
	OutputTokens int64
	Model        string
	ErrorType    string
}

// AIOperationMetrics is one completed operation.
type AIOperationMetrics struct {
	ID           string          `json:"id"`
	Type         OperationType   `json:"type"`
	Platform     domain.Platform `json:"platform,omitempty"`
	Category     string          `json:"category,omitempty"`
	TrendID      string          `json:"trend_id,omitempty"`
	Model        string          `json:"model,omitempty"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	Duration     time.Duration   `json:"duration"`
	InputTokens  int64           `json:"input_tokens"`
	OutputTokens int64           `json:"output_tokens"`
	TotalTokens  int64           `json:"total_tokens"`
	Success      bool            `json:"success"`
	ErrorType    string          `json:"error_type,omitempty"`
}

// Breakdown aggregates one slice of the history.
type Breakdown struct {
	Count           int           `json:"count"`
	SuccessCount    int           `json:"success_count"`
	SuccessRate     float64       `json:"success_rate"`
	AverageDuration time.Duration `json:"average_duration"`
	TotalTokens     int64         `json:"total_tokens"`
}

type Summary struct {
	TotalOperations int                            `json:"total_operations"`
	SuccessCount    int                            `json:"success_count"`
	FailureCount    int                            `json:"failure_count"`
	SuccessRate     float64                        `json:"success_rate"`
	AverageDuration time.Duration                  `json:"average_duration"`
	// AverageTokens averages over operations that consumed tokens; aggregate
	// records never carry any.
	AverageTokens   float64                        `json:"average_tokens"`
	TotalTokens     int64                          `json:"total_tokens"`
	ByType          map[OperationType]*Breakdown   `json:"by_type"`
	ByPlatform      map[domain.Platform]*Breakdown `json:"by_platform"`
	Errors          map[string]int                 `json:"errors"`
	InProgress      int                            `json:"in_progress"`
}
