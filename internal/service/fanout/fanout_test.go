package fanout

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sourcegraph/conc/panics"
)

func recoverAs(key string, r *panics.Recovered) string {
	return fmt.Sprintf("%s panicked: %v", key, r.Value)
}

func TestSettleIsolatesPanics(t *testing.T) {
	results := Settle([]string{"a", "b", "c"}, 0, func(k string) string {
		if k == "b" {
			panic("boom")
		}
		return k + " ok"
	}, recoverAs)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results["a"] != "a ok" || results["c"] != "c ok" {
		t.Fatalf("siblings should complete: %v", results)
	}
	if results["b"] != "b panicked: boom" {
		t.Fatalf("unexpected panic outcome: %q", results["b"])
	}
}

func TestSettleStartsAllTasksBeforeWaiting(t *testing.T) {
	keys := []int{1, 2, 3}
	var started sync.WaitGroup
	started.Add(len(keys))
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	results := Settle(keys, 0, func(k int) bool {
		started.Done()
		select {
		case <-allStarted:
			return true
		case <-time.After(2 * time.Second):
			return false
		}
	}, func(int, *panics.Recovered) bool { return false })

	for k, ok := range results {
		if !ok {
			t.Fatalf("task %d finished before all tasks were running", k)
		}
	}
}

func TestSettleRespectsLimit(t *testing.T) {
	var running, peak atomic.Int32
	keys := []int{1, 2, 3, 4, 5, 6}

	Settle(keys, 2, func(int) struct{} {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return struct{}{}
	}, func(int, *panics.Recovered) struct{} { return struct{}{} })

	if got := peak.Load(); got > 2 {
		t.Fatalf("peak concurrency %d exceeds limit", got)
	}
}

func TestSettleEmpty(t *testing.T) {
	results := Settle(nil, 0, func(string) int { return 1 }, func(string, *panics.Recovered) int { return 0 })
	if len(results) != 0 {
		t.Fatalf("expected empty result map")
	}
}
