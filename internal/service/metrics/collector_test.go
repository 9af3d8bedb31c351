package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func TestHistoryIsBounded(t *testing.T) {
	c := NewCollector(1000, zap.NewNop())

	var firstID string
	for i := 0; i < 1001; i++ {
		id := c.StartOperation(OpGeneration, OperationContext{Platform: domain.PlatformTikTok})
		if i == 0 {
			firstID = id
		}
		c.EndOperation(id, OperationResult{Success: true})
	}

	recent := c.GetRecentMetrics(1000)
	if len(recent) != 1000 {
		t.Fatalf("expected 1000 entries, got %d", len(recent))
	}
	for _, m := range recent {
		if m.ID == firstID {
			t.Fatalf("oldest entry %s should have been dropped", firstID)
		}
	}
	if got := len(c.GetRecentMetrics(0)); got != 1000 {
		t.Fatalf("history holds %d entries, want 1000", got)
	}
}

func TestRecentMetricsAreChronological(t *testing.T) {
	clock := newClock()
	c := NewCollector(3, zap.NewNop(), WithClock(clock.Now))

	var ids []string
	for i := 0; i < 5; i++ {
		id := c.StartOperation(OpGeneration, OperationContext{})
		clock.Advance(time.Second)
		c.EndOperation(id, OperationResult{Success: true})
		ids = append(ids, id)
	}

	recent := c.GetRecentMetrics(2)
	if len(recent) != 2 || recent[0].ID != ids[3] || recent[1].ID != ids[4] {
		t.Fatalf("expected last two ids in order, got %+v", recent)
	}
}

func TestEndUnknownOperationIsNoop(t *testing.T) {
	c := NewCollector(10, zap.NewNop())
	c.EndOperation("op_missing", OperationResult{Success: true})

	if len(c.GetRecentMetrics(10)) != 0 {
		t.Fatalf("unknown id must not create a record")
	}

	id := c.StartOperation(OpGeneration, OperationContext{})
	c.EndOperation(id, OperationResult{Success: true})
	c.EndOperation(id, OperationResult{Success: false})
	if got := len(c.GetRecentMetrics(10)); got != 1 {
		t.Fatalf("second end must be ignored, got %d records", got)
	}
}

func TestCancelOperation(t *testing.T) {
	c := NewCollector(10, zap.NewNop())
	id := c.StartOperation(OpSupervisedGeneration, OperationContext{Platform: domain.PlatformReels})
	if c.InProgressCount() != 1 {
		t.Fatalf("expected one in-progress operation")
	}

	c.CancelOperation(id, "context canceled")

	recent := c.GetRecentMetrics(1)
	if len(recent) != 1 || recent[0].Success || recent[0].ErrorType != ErrorTypeCancelled {
		t.Fatalf("unexpected cancelled record: %+v", recent)
	}
	if c.InProgressCount() != 0 {
		t.Fatalf("expected no in-progress operations")
	}
}

func TestSummary(t *testing.T) {
	clock := newClock()
	c := NewCollector(10, zap.NewNop(), WithClock(clock.Now))

	record := func(opType OperationType, p domain.Platform, d time.Duration, res OperationResult) {
		id := c.StartOperation(opType, OperationContext{Platform: p, TrendID: "t1"})
		clock.Advance(d)
		c.EndOperation(id, res)
	}

	record(OpGeneration, domain.PlatformTikTok, 2*time.Second, OperationResult{Success: true, InputTokens: 100, OutputTokens: 50})
	cutoff := clock.Now().Add(time.Nanosecond)
	record(OpGeneration, domain.PlatformReels, 4*time.Second, OperationResult{Success: false, ErrorType: "rate_limited"})
	record(OpMultiPlatform, "", 6*time.Second, OperationResult{Success: true, InputTokens: 10, OutputTokens: 20})

	all := c.GetSummary(nil)
	if all.TotalOperations != 3 || all.SuccessCount != 2 || all.FailureCount != 1 {
		t.Fatalf("unexpected counts: %+v", all)
	}
	if all.AverageDuration != 4*time.Second {
		t.Fatalf("average duration = %s, want 4s", all.AverageDuration)
	}
	// The failed generation consumed nothing and is left out of the token average.
	if all.TotalTokens != 180 || all.AverageTokens != 90 {
		t.Fatalf("unexpected tokens: total=%d avg=%f", all.TotalTokens, all.AverageTokens)
	}
	if gen := all.ByType[OpGeneration]; gen == nil || gen.Count != 2 || gen.SuccessRate != 0.5 {
		t.Fatalf("unexpected generation breakdown: %+v", gen)
	}
	if _, ok := all.ByPlatform[""]; ok {
		t.Fatalf("platform-less operations must not appear in the platform breakdown")
	}
	if all.Errors["rate_limited"] != 1 {
		t.Fatalf("expected rate_limited error count, got %v", all.Errors)
	}

	recentOnly := c.GetSummary(&cutoff)
	if recentOnly.TotalOperations != 2 {
		t.Fatalf("expected 2 operations since cutoff, got %d", recentOnly.TotalOperations)
	}
}

func TestConcurrentRecording(t *testing.T) {
	c := NewCollector(50, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				id := c.StartOperation(OpGeneration, OperationContext{Platform: domain.PlatformShorts})
				c.EndOperation(id, OperationResult{Success: true})
			}
		}()
	}
	wg.Wait()

	if got := len(c.GetRecentMetrics(0)); got != 50 {
		t.Fatalf("expected 50 records kept, got %d", got)
	}
	if c.GetSummary(nil).TotalOperations != 50 {
		t.Fatalf("summary should cover the kept history")
	}
}

func TestAverageTokensSkipsAggregateRecords(t *testing.T) {
	c := NewCollector(10, zap.NewNop())
	for _, tokens := range []int64{40, 60} {
		id := c.StartOperation(OpGeneration, OperationContext{Platform: domain.PlatformTikTok})
		c.EndOperation(id, OperationResult{Success: true, InputTokens: tokens})
	}
	for _, op := range []OperationType{OpSupervisedGeneration, OpMultiPlatform, OpRetry} {
		c.EndOperation(c.StartOperation(op, OperationContext{}), OperationResult{Success: true})
	}

	summary := c.GetSummary(nil)
	if summary.TotalOperations != 5 || summary.AverageTokens != 50 {
		t.Fatalf("average tokens = %f over %d operations, want 50", summary.AverageTokens, summary.TotalOperations)
	}
	if empty := NewCollector(10, zap.NewNop()).GetSummary(nil); empty.AverageTokens != 0 {
		t.Fatalf("empty collector average = %f", empty.AverageTokens)
	}
}

func TestInFlightGaugeSettlesUnderConcurrency(t *testing.T) {
	exporter, err := NewPrometheusExporter(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	c := NewCollector(100, zap.NewNop(), WithObserver(exporter))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := c.StartOperation(OpGeneration, OperationContext{Platform: domain.PlatformReels})
				c.EndOperation(id, OperationResult{Success: true})
			}
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(exporter.InFlight); got != 0 {
		t.Fatalf("in flight gauge = %v after all operations ended", got)
	}
	if got := testutil.ToFloat64(exporter.Operations.WithLabelValues("generation", "reels", "success")); got != 800 {
		t.Fatalf("operations counter = %v, want 800", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	id := c.StartOperation(OpGeneration, OperationContext{})
	c.EndOperation(id, OperationResult{})
	c.CancelOperation(id, "x")
	if c.InProgressCount() != 0 || c.GetRecentMetrics(5) != nil {
		t.Fatalf("nil collector should report nothing")
	}
}

func TestPrometheusExporter(t *testing.T) {
	reg := prometheus.NewRegistry()
	exporter, err := NewPrometheusExporter(reg)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	c := NewCollector(10, zap.NewNop(), WithObserver(exporter))

	id := c.StartOperation(OpGeneration, OperationContext{Platform: domain.PlatformTikTok})
	if got := testutil.ToFloat64(exporter.InFlight); got != 1 {
		t.Fatalf("in flight = %v, want 1", got)
	}
	c.EndOperation(id, OperationResult{Success: true, InputTokens: 30, OutputTokens: 12})

	if got := testutil.ToFloat64(exporter.Operations.WithLabelValues("generation", "tiktok", "success")); got != 1 {
		t.Fatalf("operations counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.Tokens.WithLabelValues("generation", "output")); got != 12 {
		t.Fatalf("output tokens = %v, want 12", got)
	}
	if got := testutil.ToFloat64(exporter.InFlight); got != 0 {
		t.Fatalf("in flight = %v, want 0", got)
	}

	if _, err := NewPrometheusExporter(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}
