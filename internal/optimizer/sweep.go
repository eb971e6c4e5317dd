package optimizer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/stitts-dev/fpl-squad/internal/catalog"
)

// Sweep solves the same catalog for every lambda, at most workers at a
// time. Results are returned in the order of lambdas. The first failure
// cancels the solves still running.
func (o *Optimizer) Sweep(ctx context.Context, cat *catalog.Catalog, lambdas []float64, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = 1
	}

	results := make([]*Result, len(lambdas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	o.logger.WithFields(logrus.Fields{
		"lambdas": len(lambdas),
		"workers": workers,
	}).Info("Starting lambda sweep")

	for i, lambda := range lambdas {
		i, lambda := i, lambda
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := o.Optimize(gctx, cat, lambda)
			if err != nil {
				return fmt.Errorf("lambda %g: %w", lambda, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// LambdaGrid returns steps evenly spaced values from..to inclusive.
func LambdaGrid(from, to float64, steps int) ([]float64, error) {
	if steps < 1 {
		return nil, fmt.Errorf("steps must be at least 1, got %d", steps)
	}
	if from < 0 || to < 0 {
		return nil, fmt.Errorf("%w: grid %g..%g", ErrNegativeLambda, from, to)
	}
	if steps == 1 {
		return []float64{from}, nil
	}
	grid := make([]float64, steps)
	step := (to - from) / float64(steps-1)
	for i := range grid {
		grid[i] = from + step*float64(i)
	}
	grid[steps-1] = to
	return grid, nil
}
