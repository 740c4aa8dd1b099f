// Package parallel splits independent index ranges across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how For distributes work.
type Config struct {
	Workers  int // Goroutines to use; <= 1 runs sequentially
	MinChunk int // Fewest indices handed to one goroutine
}

// Default uses one worker per CPU and chunks of at least 8 indices.
func Default() Config {
	return Config{Workers: runtime.NumCPU(), MinChunk: 8}
}

// Sequential runs everything on the calling goroutine.
func Sequential() Config {
	return Config{Workers: 1}
}

// For calls f(i) for every i in [0, n) and returns when all calls have
// finished. Calls for distinct i may run concurrently, so f must only write
// state owned by index i. Ranges smaller than two chunks run sequentially.
func For(n int, cfg Config, f func(i int)) {
	chunk := max(cfg.MinChunk, 1)
	if cfg.Workers <= 1 || n < 2*chunk {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk = max((n+cfg.Workers-1)/cfg.Workers, chunk)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}
