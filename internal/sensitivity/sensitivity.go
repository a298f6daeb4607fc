// Package sensitivity ranks reactions by how strongly they move one
// species' mole fraction across a set of ignition cases.
package sensitivity

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/kinfit/internal/experiment"
	"github.com/san-kum/kinfit/internal/sim"
)

type Result struct {
	Species string
	// PerCase[c][j] is max |S| of reaction j over case c's trajectory.
	PerCase [][]float64
	// Coefficients[j] is the mean of PerCase[.][j] over all cases.
	Coefficients []float64
	Failed       int
}

// Ranked returns reaction indices ordered by descending coefficient.
// Ties keep index order.
func (r *Result) Ranked() []int {
	idx := make([]int, len(r.Coefficients))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return r.Coefficients[idx[a]] > r.Coefficients[idx[b]]
	})
	return idx
}

type Options struct {
	Species string // defaults to OH
	Logger  *log.Logger
}

// Analyze integrates every runnable case of ds with all reactions registered
// for sensitivity. A case that fails part way contributes the maxima it
// reached before the failure.
func Analyze(ctx context.Context, eng sim.Engine, ds *experiment.IDTDataset, opts Options) (*Result, error) {
	species := opts.Species
	if species == "" {
		species = "OH"
	}
	if !known(eng, species) {
		return nil, fmt.Errorf("sensitivity: species %q not in mechanism", species)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "sensitivity: ", log.LstdFlags)
	}

	n := eng.NumReactions()
	res := &Result{Species: species}
	for _, c := range ds.Cases() {
		r, err := eng.NewReactor(c.Conditions, sim.PlugFlowTolerances())
		if err != nil {
			return nil, fmt.Errorf("group %d point %d: %w", c.Group, c.Point, err)
		}
		for j := 0; j < n; j++ {
			if err := r.AddSensitivityReaction(j); err != nil {
				return nil, err
			}
		}

		peak := make([]float64, n)
		var queryErr error
		d := sim.New(eng)
		d.SetLogger(logger)
		tr, err := d.Integrate(ctx, r, c.Runtime, func(sim.Reactor) {
			for j := range peak {
				s, err := r.Sensitivity(species, j)
				if err != nil {
					queryErr = err
					continue
				}
				peak[j] = math.Max(peak[j], math.Abs(s))
			}
		})
		if err != nil {
			return nil, err
		}
		if queryErr != nil {
			return nil, queryErr
		}
		if tr.Failed() {
			res.Failed++
		}
		res.PerCase = append(res.PerCase, peak)
	}

	res.Coefficients = make([]float64, n)
	if len(res.PerCase) == 0 {
		return res, nil
	}
	col := make([]float64, len(res.PerCase))
	for j := 0; j < n; j++ {
		for c, row := range res.PerCase {
			col[c] = row[j]
		}
		res.Coefficients[j] = stat.Mean(col, nil)
	}
	return res, nil
}

func known(eng sim.Engine, species string) bool {
	for _, s := range eng.SpeciesNames() {
		if s == species {
			return true
		}
	}
	return false
}
