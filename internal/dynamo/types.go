package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an autonomous-or-not ODE right-hand side dX/dt = f(X, t).
type System interface {
	Derive(x State, t float64) State
	Dim() int
}

type Integrator interface {
	Step(sys System, x State, t, dt float64) State
}

// AdaptiveIntegrator takes one error-controlled step. It returns the new
// state, the suggested next step size, and whether the step was accepted.
// A rejected step leaves x untouched; the caller retries with the
// suggested size.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt float64, tol Tolerances) (State, float64, bool)
}

type Tolerances struct {
	RelTol      float64 `yaml:"rel_tol" toml:"rel_tol"`
	AbsTol      float64 `yaml:"abs_tol" toml:"abs_tol"`
	InitialStep float64 `yaml:"initial_step" toml:"initial_step"`
	MaxStep     float64 `yaml:"max_step" toml:"max_step"`
	MinStep     float64 `yaml:"min_step" toml:"min_step"`
	MaxSteps    int     `yaml:"max_steps" toml:"max_steps"`
}

func DefaultTolerances() Tolerances {
	return Tolerances{
		RelTol:      1e-6,
		AbsTol:      1e-12,
		InitialStep: 1e-8,
		MaxStep:     1e-3,
		MinStep:     1e-16,
		MaxSteps:    200000,
	}
}

func (t Tolerances) Validate() error {
	if t.RelTol <= 0 || t.AbsTol <= 0 {
		return fmt.Errorf("tolerances must be positive, got rel=%g abs=%g", t.RelTol, t.AbsTol)
	}
	if t.InitialStep <= 0 {
		return fmt.Errorf("initial step must be positive, got %g", t.InitialStep)
	}
	if t.MaxStep < t.InitialStep {
		return fmt.Errorf("max step %g smaller than initial step %g", t.MaxStep, t.InitialStep)
	}
	if t.MinStep < 0 || t.MinStep >= t.MaxStep {
		return fmt.Errorf("min step %g out of range", t.MinStep)
	}
	if t.MaxSteps <= 0 {
		return fmt.Errorf("max steps must be positive, got %d", t.MaxSteps)
	}
	return nil
}
