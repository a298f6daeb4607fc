// Package reduction builds skeletal mechanisms: reactions with little
// influence on the tracked species are pruned first, then optional
// species are dropped in fixed-size combinations.
package reduction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sort"

	"github.com/san-kum/kinfit/internal/kinetics"
	"github.com/san-kum/kinfit/internal/optim"
	"github.com/san-kum/kinfit/internal/perm"
)

const (
	// MaxPruneRate caps the fraction of reactions removed by sensitivity.
	MaxPruneRate = 0.5

	// SizePenalty weighs the fraction of species kept against the
	// normalized error when scoring a skeletal mechanism.
	SizePenalty = 3.0

	// AverageRate is the fitness average rate used to score skeletal
	// mechanisms.
	AverageRate = 0.5
)

var ErrTooFewOptional = errors.New("reduction: fewer optional species than requested drops")

// EvalFunc scores a candidate mechanism, lower is better.
type EvalFunc func(ctx context.Context, m *kinetics.Mechanism) (float64, error)

type PruneOptions struct {
	// Delta is the largest tolerated error increase over the full mechanism.
	Delta float64
	// Keep lists species retained even when no kept reaction uses them,
	// such as bath gases and mixture components.
	Keep   []string
	Logger *log.Logger
}

type PruneStep struct {
	Rate    float64
	Removed int
	Error   float64
}

type PruneResult struct {
	Baseline      float64
	KeepReactions []bool
	KeepSpecies   []bool
	Steps         []PruneStep
}

// PruneBySensitivity removes the least sensitive 10%, 20%, ... of
// reactions while the error stays within Delta of the full mechanism and
// the rate is below MaxPruneRate. Duplicate reactions leave together.
// The last accepted mask is returned.
func PruneBySensitivity(ctx context.Context, m *kinetics.Mechanism, sens []float64, eval EvalFunc, opts PruneOptions) (*PruneResult, error) {
	n := m.NumReactions()
	if len(sens) != n {
		return nil, fmt.Errorf("reduction: %d sensitivities for %d reactions", len(sens), n)
	}

	baseline, err := eval(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("evaluate full mechanism: %w", err)
	}
	res := &PruneResult{Baseline: baseline}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return sens[order[a]] < sens[order[b]] })

	accepted := allTrue(n)
	for step := 1; ; step++ {
		rate := float64(step) / 10
		keep := allTrue(n)
		for _, j := range order[:n*step/10] {
			keep[j] = false
		}
		keep = withDuplicates(m, keep)

		sub, err := m.Subset(keep, nil)
		if err != nil {
			return nil, err
		}
		e, err := eval(ctx, sub)
		if err != nil {
			return nil, fmt.Errorf("evaluate at rate %.1f: %w", rate, err)
		}
		removed := countFalse(keep)
		res.Steps = append(res.Steps, PruneStep{Rate: rate, Removed: removed, Error: e})
		if opts.Logger != nil {
			opts.Logger.Printf("prune rate %.1f: %d reactions removed, error %.4f (full %.4f)", rate, removed, e, baseline)
		}

		if e-baseline > opts.Delta || rate >= MaxPruneRate {
			break
		}
		accepted = keep
	}

	res.KeepReactions = accepted
	res.KeepSpecies = m.SpeciesInReactions(accepted)
	for _, name := range opts.Keep {
		if k, ok := m.SpeciesIndex(name); ok {
			res.KeepSpecies[k] = true
		}
	}
	return res, nil
}

// withDuplicates removes every duplicate partner of a removed reaction.
func withDuplicates(m *kinetics.Mechanism, keep []bool) []bool {
	out := append([]bool(nil), keep...)
	for i, ri := range m.Reactions {
		if keep[i] || !ri.Duplicate {
			continue
		}
		for j, rj := range m.Reactions {
			if j != i && rj.Duplicate && kinetics.EquationEqual(ri.Equation, rj.Equation) {
				out[j] = false
			}
		}
	}
	return out
}

// DropCandidates returns one species mask per way of removing exactly drop
// species from those flagged in both keep and optional.
func DropCandidates(keep, optional []bool, drop int) ([][]bool, error) {
	var slots []int
	for i := range keep {
		if keep[i] && optional[i] {
			slots = append(slots, i)
		}
	}
	if drop < 0 || drop > len(slots) {
		return nil, fmt.Errorf("%w: %d optional, %d requested", ErrTooFewOptional, len(slots), drop)
	}

	masks := perm.Masks(drop, len(slots))
	out := make([][]bool, len(masks))
	for c, mask := range masks {
		cand := append([]bool(nil), keep...)
		for s, removed := range mask {
			if removed {
				cand[slots[s]] = false
			}
		}
		out[c] = cand
	}
	return out, nil
}

// Sample picks up to n candidates without replacement.
func Sample(cands [][]bool, n int, rng *rand.Rand) [][]bool {
	if n >= len(cands) {
		return cands
	}
	out := make([][]bool, n)
	for i, c := range rng.Perm(len(cands))[:n] {
		out[i] = cands[c]
	}
	return out
}

// Skeletal keeps the flagged reactions whose species are all kept.
func Skeletal(m *kinetics.Mechanism, keepReactions, keepSpecies []bool) (*kinetics.Mechanism, error) {
	keep := make([]bool, m.NumReactions())
	for j, r := range m.Reactions {
		if keepReactions != nil && !keepReactions[j] {
			continue
		}
		keep[j] = uses(r.Reactants, keepSpecies) && uses(r.Products, keepSpecies)
	}
	return m.Subset(keep, keepSpecies)
}

func uses(terms []kinetics.Term, keepSpecies []bool) bool {
	for _, t := range terms {
		if !keepSpecies[t.Species] {
			return false
		}
	}
	return true
}

// Score is the reduction fitness of a skeletal mechanism: its error relative
// to the full mechanism plus SizePenalty times the fraction of species kept.
// A non-positive baseline leaves the error unnormalized.
func Score(e, baseline float64, kept, total int) float64 {
	if baseline > 0 {
		e /= baseline
	}
	return e + SizePenalty*float64(kept)/float64(total)
}

// Scored wraps eval so it returns Score against the full mechanism m.
func Scored(m *kinetics.Mechanism, baseline float64, eval EvalFunc) EvalFunc {
	total := m.NumSpecies()
	return func(ctx context.Context, sub *kinetics.Mechanism) (float64, error) {
		e, err := eval(ctx, sub)
		if err != nil {
			return 0, err
		}
		return Score(e, baseline, sub.NumSpecies(), total), nil
	}
}

// Evolve searches species masks with a genetic algorithm seeded from
// candidate masks, typically DropCandidates. Only species flagged mutable
// are toggled. Each mask is scored by eval on top of keepReactions.
// onGeneration may be nil.
func Evolve(ctx context.Context, m *kinetics.Mechanism, keepReactions []bool, seeds [][]bool, mutable []bool, eval EvalFunc, p optim.Params, onGeneration func(optim.Generation, [][]bool) error) (*optim.MaskResult, *kinetics.Mechanism, error) {
	ga, err := optim.NewMaskGA(seeds, mutable, p)
	if err != nil {
		return nil, nil, err
	}
	ga.OnGeneration = onGeneration
	res, err := ga.Run(ctx, func(ctx context.Context, keepSpecies []bool) (float64, error) {
		sub, err := Skeletal(m, keepReactions, keepSpecies)
		if err != nil {
			return 0, err
		}
		return eval(ctx, sub)
	})
	if err != nil {
		return nil, nil, err
	}
	best, err := Skeletal(m, keepReactions, res.Best)
	if err != nil {
		return nil, nil, err
	}
	return res, best, nil
}

// Best evaluates every species candidate on top of keepReactions and
// returns the index and error of the lowest scoring one.
func Best(ctx context.Context, m *kinetics.Mechanism, keepReactions []bool, cands [][]bool, eval EvalFunc) (int, float64, error) {
	best, bestErr := -1, 0.0
	for i, keepSpecies := range cands {
		sub, err := Skeletal(m, keepReactions, keepSpecies)
		if err != nil {
			return -1, 0, err
		}
		e, err := eval(ctx, sub)
		if err != nil {
			return -1, 0, err
		}
		if best < 0 || e < bestErr {
			best, bestErr = i, e
		}
	}
	if best < 0 {
		return -1, 0, errors.New("reduction: no candidates")
	}
	return best, bestErr, nil
}

func allTrue(n int) []bool {
	s := make([]bool, n)
	for i := range s {
		s[i] = true
	}
	return s
}

func countFalse(s []bool) int {
	n := 0
	for _, v := range s {
		if !v {
			n++
		}
	}
	return n
}
