package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	sum := a.Add(b)
	if sum[0] != 5 || sum[1] != 7 || sum[2] != 9 {
		t.Errorf("Add failed: got %v", sum)
	}

	diff := b.Sub(a)
	if diff[0] != 3 || diff[1] != 3 || diff[2] != 3 {
		t.Errorf("Sub failed: got %v", diff)
	}

	scaled := a.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}

	if n := (State{3, 4}).Norm(); math.Abs(n-5) > 1e-12 {
		t.Errorf("Norm = %v, want 5", n)
	}
}

func TestTolerancesValidate(t *testing.T) {
	if err := DefaultTolerances().Validate(); err != nil {
		t.Fatalf("default tolerances invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Tolerances)
	}{
		{"zero rel", func(t *Tolerances) { t.RelTol = 0 }},
		{"negative abs", func(t *Tolerances) { t.AbsTol = -1 }},
		{"zero initial", func(t *Tolerances) { t.InitialStep = 0 }},
		{"max below initial", func(t *Tolerances) { t.MaxStep = t.InitialStep / 10 }},
		{"min above max", func(t *Tolerances) { t.MinStep = 1 }},
		{"no step budget", func(t *Tolerances) { t.MaxSteps = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tol := DefaultTolerances()
			tt.mutate(&tol)
			if err := tol.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Step: 150, Time: 1.5, Wrapped: ErrStepTooSmall}
	expected := "step 150 (t=1.5): dynamo: adaptive timestep below minimum"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrStepTooSmall) {
		t.Error("SimulationError does not unwrap to its cause")
	}
}
