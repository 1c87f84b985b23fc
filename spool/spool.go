// Package spool bounds how many tasks run concurrently, failing the whole
// batch fast on the first error — the Go-idiomatic replacement for a
// poll-driven bounded future set.
package spool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run executes tasks with at most limit running concurrently. It returns
// the first error any task returns; once that happens, ctx passed to the
// remaining running tasks is canceled and no new tasks are started.
func Run(ctx context.Context, tasks []func(context.Context) error, limit int) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			return task(gctx)
		})
	}

	return g.Wait()
}
