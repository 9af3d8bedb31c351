package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/internal/constants"
	"github.com/kapu/trend-script-go/internal/domain"
)

// Observer receives every completed operation. It is called with the
// collector's lock held and must not call back into the collector.
type Observer interface {
	Observe(m AIOperationMetrics)
	SetInFlight(n int)
}

type Option func(*Collector)

func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Collector) {
		c.observer = o
	}
}

// Collector is the in-memory operation ledger. All methods are safe for
// concurrent use and safe on a nil receiver, so callers can run without one.
type Collector struct {
	mu         sync.Mutex
	inProgress map[string]*AIOperationMetrics
	history    []AIOperationMetrics
	head       int
	capacity   int

	seq      atomic.Uint64
	now      func() time.Time
	observer Observer
	logger   *zap.Logger
}

func NewCollector(historySize int, logger *zap.Logger, opts ...Option) *Collector {
	if historySize <= 0 {
		historySize = constants.MetricsConfig.HistorySize
	}
	c := &Collector{
		inProgress: make(map[string]*AIOperationMetrics),
		history:    make([]AIOperationMetrics, 0, historySize),
		capacity:   historySize,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartOperation opens a record and returns its id.
func (c *Collector) StartOperation(opType OperationType, opCtx OperationContext) string {
	if c == nil {
		return ""
	}
	id := fmt.Sprintf("op_%d_%s", c.seq.Add(1), uuid.NewString()[:8])

	c.mu.Lock()
	c.inProgress[id] = &AIOperationMetrics{
		ID:        id,
		Type:      opType,
		Platform:  opCtx.Platform,
		Category:  opCtx.Category,
		TrendID:   opCtx.TrendID,
		Model:     opCtx.Model,
		StartTime: c.now(),
	}
	if c.observer != nil {
		c.observer.SetInFlight(len(c.inProgress))
	}
	c.mu.Unlock()
	return id
}

// EndOperation completes a record. Unknown ids are logged and ignored.
func (c *Collector) EndOperation(id string, result OperationResult) {
	if c == nil {
		return
	}

	c.mu.Lock()
	op, ok := c.inProgress[id]
	if !ok {
		c.mu.Unlock()
		c.logger.Warn("Metrics: end for unknown operation", zap.String("operation_id", id))
		return
	}
	delete(c.inProgress, id)

	op.EndTime = c.now()
	op.Duration = op.EndTime.Sub(op.StartTime)
	op.Success = result.Success
	op.ErrorType = result.ErrorType
	op.InputTokens = result.InputTokens
	op.OutputTokens = result.OutputTokens
	op.TotalTokens = result.InputTokens + result.OutputTokens
	if result.Model != "" {
		op.Model = result.Model
	}
	completed := *op
	c.appendLocked(completed)
	// The gauge is published under the lock so a late writer cannot overwrite a newer count.
	if c.observer != nil {
		c.observer.Observe(completed)
		c.observer.SetInFlight(len(c.inProgress))
	}
	c.mu.Unlock()
}

// CancelOperation ends the record as a failure of type "cancelled".
func (c *Collector) CancelOperation(id, reason string) {
	if c == nil {
		return
	}
	c.logger.Debug("Metrics: operation cancelled", zap.String("operation_id", id), zap.String("reason", reason))
	c.EndOperation(id, OperationResult{Success: false, ErrorType: ErrorTypeCancelled})
}

func (c *Collector) appendLocked(m AIOperationMetrics) {
	if len(c.history) < c.capacity {
		c.history = append(c.history, m)
		return
	}
	c.history[c.head] = m
	c.head = (c.head + 1) % c.capacity
}

// orderedLocked returns the history oldest first.
func (c *Collector) orderedLocked() []AIOperationMetrics {
	out := make([]AIOperationMetrics, 0, len(c.history))
	out = append(out, c.history[c.head:]...)
	out = append(out, c.history[:c.head]...)
	return out
}

// GetRecentMetrics returns up to limit completed operations, oldest first.
func (c *Collector) GetRecentMetrics(limit int) []AIOperationMetrics {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ordered := c.orderedLocked()
	if limit > 0 && limit < len(ordered) {
		ordered = ordered[len(ordered)-limit:]
	}
	return ordered
}

func (c *Collector) InProgressCount() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inProgress)
}

// GetSummary aggregates the history, optionally only operations that ended at
// or after since.
func (c *Collector) GetSummary(since *time.Time) Summary {
	summary := Summary{
		ByType:     make(map[OperationType]*Breakdown),
		ByPlatform: make(map[domain.Platform]*Breakdown),
		Errors:     make(map[string]int),
	}
	if c == nil {
		return summary
	}

	c.mu.Lock()
	ordered := c.orderedLocked()
	summary.InProgress = len(c.inProgress)
	c.mu.Unlock()

	var totalDuration time.Duration
	var tokenized int
	typeDurations := make(map[OperationType]time.Duration)
	platformDurations := make(map[domain.Platform]time.Duration)

	for _, m := range ordered {
		if since != nil && m.EndTime.Before(*since) {
			continue
		}
		summary.TotalOperations++
		summary.TotalTokens += m.TotalTokens
		if m.TotalTokens > 0 {
			tokenized++
		}
		totalDuration += m.Duration
		if m.Success {
			summary.SuccessCount++
		} else {
			summary.FailureCount++
			errorType := m.ErrorType
			if errorType == "" {
				errorType = "unknown"
			}
			summary.Errors[errorType]++
		}

		addTo(summary.ByType, m.Type, m)
		typeDurations[m.Type] += m.Duration
		if m.Platform != "" {
			addTo(summary.ByPlatform, m.Platform, m)
			platformDurations[m.Platform] += m.Duration
		}
	}

	if summary.TotalOperations > 0 {
		n := summary.TotalOperations
		summary.SuccessRate = float64(summary.SuccessCount) / float64(n)
		summary.AverageDuration = totalDuration / time.Duration(n)
	}
	if tokenized > 0 {
		summary.AverageTokens = float64(summary.TotalTokens) / float64(tokenized)
	}
	finish(summary.ByType, typeDurations)
	finish(summary.ByPlatform, platformDurations)
	return summary
}

func addTo[K comparable](m map[K]*Breakdown, key K, op AIOperationMetrics) {
	b, ok := m[key]
	if !ok {
		b = &Breakdown{}
		m[key] = b
	}
	b.Count++
	b.TotalTokens += op.TotalTokens
	if op.Success {
		b.SuccessCount++
	}
}

func finish[K comparable](m map[K]*Breakdown, durations map[K]time.Duration) {
	for key, b := range m {
		b.SuccessRate = float64(b.SuccessCount) / float64(b.Count)
		b.AverageDuration = durations[key] / time.Duration(b.Count)
	}
}
