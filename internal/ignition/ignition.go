// Package ignition estimates ignition delay times from sampled trajectories.
//
// Every estimator takes a value series and its time axis and returns a
// single time. Degenerate input (empty, single sample, no rise) yields a
// time derived from the sample index rather than an error.
package ignition

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrUnknownMethod = errors.New("ignition: unknown method")

// Estimator maps a (values, times) series to an ignition delay.
type Estimator func(values, times []float64) float64

// ByPeak returns the last sample time before the series first decreases,
// the time of its first peak. A series that never decreases yields its
// last time.
func ByPeak(values, times []float64) float64 {
	n := min(len(values), len(times))
	if n == 0 {
		return 0
	}
	for i := 1; i < n; i++ {
		if values[i] < values[i-1] {
			return times[i-1]
		}
	}
	return times[n-1]
}

// ByGradient returns times[i+1] for the interval i with the largest
// forward difference quotient.
func ByGradient(values, times []float64) float64 {
	i, ok := steepest(values, times)
	if !ok {
		return fallback(times)
	}
	return times[i+1]
}

// ByRise extrapolates the tangent at the steepest rise back to zero:
// t_i - c_i/d where d is the largest forward derivative.
//
// The formula is kept as published for the reference datasets. It
// intersects the tangent with zero, not with the pre-ignition baseline, so
// series with a large offset (temperature) ignite earlier than a textbook
// tangent construction would place them. Do not re-derive it.
func ByRise(values, times []float64) float64 {
	i, ok := steepest(values, times)
	if !ok {
		return fallback(times)
	}
	d := (values[i+1] - values[i]) / (times[i+1] - times[i])
	if d <= 0 {
		return times[i+1]
	}
	return (d*times[i] - values[i]) / d
}

func steepest(values, times []float64) (int, bool) {
	n := min(len(values), len(times))
	best, at := math.Inf(-1), -1
	for i := 0; i+1 < n; i++ {
		dt := times[i+1] - times[i]
		if dt <= 0 {
			continue
		}
		if d := (values[i+1] - values[i]) / dt; d > best {
			best, at = d, i
		}
	}
	return at, at >= 0
}

func fallback(times []float64) float64 {
	if len(times) == 0 {
		return 0
	}
	return times[0]
}

// Quantity names the trajectory series an estimator reads.
type Quantity int

const (
	Species Quantity = iota
	Temperature
)

type Method struct {
	Name     string
	Quantity Quantity
	Estimate Estimator
}

var methods = map[string]Method{
	"OH": {Name: "OH", Quantity: Species, Estimate: ByPeak},
	"T":  {Name: "T", Quantity: Temperature, Estimate: ByGradient},
}

// Select resolves a dataset method string. Only "OH" (peak of the tracked
// species) and "T" (steepest temperature rise) are recognized.
func Select(method string) (Method, error) {
	m, ok := methods[method]
	if !ok {
		return Method{}, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	return m, nil
}

func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
