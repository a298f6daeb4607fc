package optim

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"
)

// rankAll evaluates every individual with at most workers evaluations in
// flight. Errors are stored by index so ordering matches the population.
// A NaN score counts as +Inf.
func rankAll[G any](ctx context.Context, workers int, population [][]G, eval func(context.Context, []G) (float64, error)) ([]float64, error) {
	errs := make([]float64, len(population))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, genes := range population {
		eg.Go(func() error {
			v, err := eval(ctx, genes)
			if err != nil {
				return fmt.Errorf("individual %d: %w", i, err)
			}
			if math.IsNaN(v) {
				v = math.Inf(1)
			}
			errs[i] = v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return errs, nil
}

func tournament(rng *rand.Rand, errs []float64, size int) int {
	best := rng.IntN(len(errs))
	for k := 1; k < size; k++ {
		if c := rng.IntN(len(errs)); errs[c] < errs[best] {
			best = c
		}
	}
	return best
}

// crossover swaps a random inclusive segment between a and b.
func crossover[G any](rng *rand.Rand, a, b []G) {
	if len(a) < 2 {
		a[0], b[0] = b[0], a[0]
		return
	}
	cut := []int{rng.IntN(len(a)), rng.IntN(len(a))}
	sort.Ints(cut)
	for k := cut[0]; k <= cut[1]; k++ {
		a[k], b[k] = b[k], a[k]
	}
}

// selectAndCross fills a new population by tournament selection and
// crosses consecutive pairs.
func selectAndCross[G any](rng *rand.Rand, p Params, population [][]G, errs []float64) [][]G {
	next := make([][]G, len(population))
	for i := range next {
		next[i] = append([]G(nil), population[tournament(rng, errs, p.TournamentSize)]...)
	}
	for i := 0; i+1 < len(next); i += 2 {
		if rng.Float64() < p.CrossoverRate {
			crossover(rng, next[i], next[i+1])
		}
	}
	return next
}

// summarize returns the index of the lowest error and the mean error.
func summarize(errs []float64) (int, float64) {
	best := 0
	sum := 0.0
	for i, e := range errs {
		if e < errs[best] {
			best = i
		}
		sum += e
	}
	return best, sum / float64(len(errs))
}
