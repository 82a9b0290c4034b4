package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// PartialResult holds one function's value or error.
type PartialResult[T any] struct {
	Value T
	Err   error
}

// ParallelPartialLimit runs fns with at most limit in flight and collects
// every result in input order. A failing function does not cancel the
// others. Functions not yet started when ctx is done get ctx.Err().
func ParallelPartialLimit[T any](ctx context.Context, limit int, fns ...func(context.Context) (T, error)) []PartialResult[T] {
	results := make([]PartialResult[T], len(fns))
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, fn := range fns {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			v, err := fn(ctx)
			results[i] = PartialResult[T]{Value: v, Err: err}

			return nil
		})
	}

	_ = g.Wait()

	return results
}
