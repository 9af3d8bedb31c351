package util

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 2,
		ResetTimeout:     30 * time.Second,
		Now:              func() time.Time { return now },
	}, zap.NewNop())

	cb.RecordFailure(0)
	if !cb.CanExecute() {
		t.Fatalf("expected breaker to stay closed below threshold")
	}

	cb.RecordFailure(0)
	if cb.CanExecute() {
		t.Fatalf("expected breaker to open at threshold")
	}

	status := cb.Status()
	if status.NextRetryTime == nil || !status.NextRetryTime.Equal(now.Add(30*time.Second)) {
		t.Fatalf("unexpected next retry time: %v", status.NextRetryTime)
	}

	now = now.Add(31 * time.Second)
	if got := cb.State(); got != CircuitStateHalfOpen {
		t.Fatalf("expected HALF_OPEN after timeout, got %s", got)
	}

	cb.RecordSuccess()
	if got := cb.State(); got != CircuitStateClosed {
		t.Fatalf("expected CLOSED after success, got %s", got)
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 1,
		ResetTimeout:     time.Second,
		Now:              func() time.Time { return now },
	}, zap.NewNop())

	cb.RecordFailure(0)
	now = now.Add(2 * time.Second)
	if cb.State() != CircuitStateHalfOpen {
		t.Fatalf("expected HALF_OPEN")
	}

	cb.RecordFailure(time.Hour)
	if cb.CanExecute() {
		t.Fatalf("expected failure in HALF_OPEN to reopen")
	}
}
