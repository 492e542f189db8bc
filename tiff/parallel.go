package tiff

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// effectiveWorkers returns the number of workers to use.
// 0 means runtime.GOMAXPROCS(0).
func effectiveWorkers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// forEachBlock runs fn(i) for i in [0, n) on up to workers goroutines and
// returns the first error. With one worker or one block it runs
// sequentially.
func forEachBlock(n, workers int, fn func(i int) error) error {
	workers = effectiveWorkers(workers)
	if workers == 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return fn(i)
		})
	}
	return g.Wait()
}
