// Package parallel runs bounded fan-out work for the learners.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers resolves an n_jobs style setting: any value below 1 means one
// worker per CPU.
func Workers(nJobs int) int {
	if nJobs < 1 {
		return runtime.NumCPU()
	}
	return nJobs
}

// For calls fn(ctx, i) for i in [0, n) on at most Workers(nJobs) goroutines
// and returns the first error. Remaining work is skipped once ctx is done.
func For(ctx context.Context, n, nJobs int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers(nJobs))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
