// Package fitness turns simulated versus measured values into the scalar
// error the optimizer minimizes. Errors live in log10 space.
package fitness

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// PFRNormalization scales plug-flow case errors down relative to
	// ignition delay errors.
	PFRNormalization = 2.0

	// FailurePenalty replaces a case error that is not finite, such as a
	// simulation that never ignited.
	FailurePenalty = 10.0

	DefaultAverageRate = 0.5
)

var ErrLength = errors.New("fitness: errors and uncertainties differ in length")

// CaseError is log10(sim/truth).
func CaseError(sim, truth float64) float64 {
	return math.Log10(sim / truth)
}

func PFRCaseError(sim, truth float64) float64 {
	return CaseError(sim, truth) / PFRNormalization
}

// Summary reduces one sweep's case errors.
type Summary struct {
	Cases   int
	Average float64 // mean |e|
	Max     float64 // max |e|
	Fitness float64
}

// Aggregate clips every |e| by log10(1+u) so that only error beyond the
// measurement uncertainty counts, then blends the clipped mean and max:
// averageRate*mean + (1-averageRate)*max. An empty input is a zero Summary.
//
// No single rate is right for every use. Callers pick it: optimization and
// mechanism reduction are configured separately and both start at
// DefaultAverageRate.
func Aggregate(errs, uncertainties []float64, averageRate float64) (Summary, error) {
	if uncertainties != nil && len(uncertainties) != len(errs) {
		return Summary{}, ErrLength
	}
	if len(errs) == 0 {
		return Summary{}, nil
	}
	averageRate = math.Max(0, math.Min(1, averageRate))

	abs := make([]float64, len(errs))
	clipped := make([]float64, len(errs))
	for i, e := range errs {
		a := math.Abs(e)
		if math.IsNaN(a) || math.IsInf(a, 0) {
			a = FailurePenalty
		}
		abs[i] = a
		c := a
		if uncertainties != nil {
			c = math.Max(0, a-math.Log10(1+uncertainties[i]))
		}
		clipped[i] = c
	}

	return Summary{
		Cases:   len(errs),
		Average: stat.Mean(abs, nil),
		Max:     floats.Max(abs),
		Fitness: averageRate*stat.Mean(clipped, nil) + (1-averageRate)*floats.Max(clipped),
	}, nil
}

// Combine merges the ignition delay and plug-flow fitness of one candidate.
func Combine(idt, pfr float64) float64 {
	return (idt + pfr) / 2
}
