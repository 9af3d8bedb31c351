// Package fanout runs one task per key concurrently and waits for all of them
// to settle. A task never cancels or fails its siblings.
package fanout

import (
	"sync"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// Settle calls fn once per distinct key and returns every outcome. When a task
// panics, onPanic turns the recovered value into that key's outcome. A limit
// of zero or less starts all tasks at once.
func Settle[K comparable, V any](keys []K, limit int, fn func(K) V, onPanic func(K, *panics.Recovered) V) map[K]V {
	results := make(map[K]V, len(keys))
	if len(keys) == 0 {
		return results
	}

	width := len(keys)
	if limit > 0 && limit < width {
		width = limit
	}

	p := pool.New().WithMaxGoroutines(width)
	var mu sync.Mutex

	for _, key := range keys {
		p.Go(func() {
			var (
				value V
				pc    panics.Catcher
			)
			pc.Try(func() { value = fn(key) })
			if recovered := pc.Recovered(); recovered != nil {
				value = onPanic(key, recovered)
			}

			mu.Lock()
			results[key] = value
			mu.Unlock()
		})
	}

	p.Wait()
	return results
}
