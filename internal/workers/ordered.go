package workers

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Job produces the result for one input slot.
type Job[T any] func(ctx context.Context, index int) T

// RunOrdered runs n jobs with at most limit in flight and returns their
// results in index order. limit <= 1 runs the jobs one after another on the
// calling goroutine. Jobs must not panic; they report failure in T.
func RunOrdered[T any](ctx context.Context, n, limit int, job Job[T]) []T {
	results := make([]T, n)
	if n == 0 {
		return results
	}
	if limit <= 1 {
		for i := 0; i < n; i++ {
			results[i] = job(ctx, i)
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			results[i] = job(gctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
