package optim

import (
	"context"
	"errors"
	"math"
)

var ErrNoFeasiblePoint = errors.New("optim: no grid point evaluated successfully")

// GridSearch tries every combination of per-target multiplier levels.
type GridSearch struct {
	names  []string
	levels [][]float64
	failed int
}

func NewGridSearch(names []string, levels [][]float64) *GridSearch {
	return &GridSearch{names: names, levels: levels}
}

// Points is the number of combinations Search will evaluate.
func (g *GridSearch) Points() int {
	n := 1
	for _, l := range g.levels {
		n *= len(l)
	}
	return n
}

// Failed counts grid points whose objective returned an error.
func (g *GridSearch) Failed() int { return g.failed }

// Search returns the multipliers with the lowest objective value. Points
// whose objective fails are skipped; cancellation aborts the search.
func (g *GridSearch) Search(ctx context.Context, obj ObjectiveFunc) ([]float64, float64, error) {
	best := math.Inf(1)
	var bestParams []float64
	g.failed = 0

	err := g.searchRecursive(ctx, 0, make([]float64, 0, len(g.names)), obj, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoFeasiblePoint
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current []float64,
	obj ObjectiveFunc,
	best *float64,
	bestParams *[]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.names) {
		val, err := obj(ctx, current)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.failed++
			return nil
		}
		if val < *best {
			*best = val
			*bestParams = append([]float64(nil), current...)
		}
		return nil
	}

	for _, val := range g.levels[depth] {
		next := append(current[:depth:depth], val)
		if err := g.searchRecursive(ctx, depth+1, next, obj, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

// Levels returns n multipliers spaced evenly in log10 over
// [10^-interval, 10^interval].
func Levels(interval float64, n int) []float64 {
	if n <= 1 {
		return []float64{1}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Pow(10, -interval+2*interval*float64(i)/float64(n-1))
	}
	return out
}
