package optim

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync/atomic"
	"testing"
)

// bowl has its minimum at multipliers 10^0.5 for every target.
func bowl(_ context.Context, m []float64) (float64, error) {
	sum := 0.0
	for _, v := range m {
		d := math.Log10(v) - 0.5
		sum += d * d
	}
	return sum, nil
}

func testParams() Params {
	p := DefaultParams()
	p.Population = 16
	p.Generations = 15
	p.Workers = 4
	p.Seed = 7
	return p
}

func TestGAImproves(t *testing.T) {
	g, err := NewGA(3, testParams())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, err := g.Run(context.Background(), bowl)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.History) != 15 {
		t.Fatalf("expected 15 generations, got %d", len(res.History))
	}
	for i := 1; i < len(res.History); i++ {
		if res.History[i].BestError > res.History[i-1].BestError+1e-15 {
			t.Errorf("generation %d best %g worse than previous %g", i, res.History[i].BestError, res.History[i-1].BestError)
		}
	}
	if res.BestError > res.History[0].BestError {
		t.Errorf("final best %g worse than first generation %g", res.BestError, res.History[0].BestError)
	}
	if res.BestError > 0.2 {
		t.Errorf("expected convergence near the minimum, best error %g", res.BestError)
	}
	if len(res.BestMultipliers) != 3 {
		t.Errorf("best multipliers = %v", res.BestMultipliers)
	}
}

func TestGADeterministic(t *testing.T) {
	run := func() *Result {
		g, err := NewGA(2, testParams())
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		res, err := g.Run(context.Background(), bowl)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return res
	}
	a, b := run(), run()
	if !reflect.DeepEqual(a.BestGenes, b.BestGenes) || a.BestError != b.BestError {
		t.Errorf("same seed gave different results: %v vs %v", a.BestGenes, b.BestGenes)
	}
}

func TestGAObjectiveError(t *testing.T) {
	g, _ := NewGA(2, testParams())
	boom := errors.New("boom")
	var calls atomic.Int32
	_, err := g.Run(context.Background(), func(context.Context, []float64) (float64, error) {
		if calls.Add(1) == 3 {
			return 0, boom
		}
		return 1, nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected objective error, got %v", err)
	}
}

func TestGAOnGeneration(t *testing.T) {
	p := testParams()
	p.Generations = 3
	g, _ := NewGA(2, p)
	if err := g.Resume([][]float64{{0.5, 0.5}, {0.25, 0.75}}, nil, 10); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if got := g.Population()[1]; math.Abs(got[0]-0.25) > 1e-12 || math.Abs(got[1]-0.75) > 1e-12 {
		t.Errorf("resumed individual = %v", got)
	}
	if _, err := g.Run(context.Background(), bowl); err != nil {
		t.Fatalf("run: %v", err)
	}

	var seen []int
	stop := errors.New("stop")

	g.OnGeneration = func(gen Generation, pop [][]float64) error {
		seen = append(seen, gen.Index)
		if len(pop) != p.Population {
			t.Errorf("population size %d", len(pop))
		}
		if len(seen) == 2 {
			return stop
		}
		return nil
	}
	if _, err := g.Run(context.Background(), bowl); !errors.Is(err, stop) {
		t.Errorf("expected callback error, got %v", err)
	}
	if !reflect.DeepEqual(seen, []int{10, 11}) {
		t.Errorf("generation indices = %v, want [10 11]", seen)
	}
}

func TestGAResumeValidation(t *testing.T) {
	g, _ := NewGA(2, testParams())
	if err := g.Resume(nil, nil, 0); err == nil {
		t.Error("expected error for empty population")
	}
	if err := g.Resume([][]float64{{0.1}}, nil, 0); err == nil {
		t.Error("expected error for wrong gene count")
	}
	if err := g.Resume([][]float64{{0.1, 0.2}}, []float64{1, 2}, 0); err == nil {
		t.Error("expected error for error count mismatch")
	}
}

func TestGAResumeFromCheckpoint(t *testing.T) {
	p := testParams()
	p.Generations = 1

	var saved [][]float64
	var savedErrs []float64
	first, _ := NewGA(2, p)
	first.OnGeneration = func(gen Generation, pop [][]float64) error {
		for _, genes := range pop {
			saved = append(saved, append([]float64(nil), genes...))
		}
		savedErrs = gen.Errors
		return nil
	}
	firstRes, err := first.Run(context.Background(), bowl)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	resumed, _ := NewGA(2, p)
	if err := resumed.Resume(saved, savedErrs, 1); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if reflect.DeepEqual(resumed.Population(), saved) {
		t.Fatal("resumed population equals the checkpoint; the finished generation would run again")
	}
	if len(resumed.Population()) != p.Population {
		t.Errorf("population size %d, want %d", len(resumed.Population()), p.Population)
	}
	if !reflect.DeepEqual(resumed.Population()[0], firstRes.BestGenes) {
		t.Errorf("best individual not carried over: %v, want %v", resumed.Population()[0], firstRes.BestGenes)
	}

	var ranked [][]float64
	resumed.OnGeneration = func(gen Generation, pop [][]float64) error {
		if gen.Index != 1 {
			t.Errorf("generation index %d, want 1", gen.Index)
		}
		ranked = pop
		return nil
	}
	res, err := resumed.Run(context.Background(), bowl)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if reflect.DeepEqual(ranked, saved) {
		t.Error("first resumed generation re-ranked the checkpointed population")
	}
	if res.BestError > firstRes.BestError {
		t.Errorf("best error %g regressed past checkpoint best %g", res.BestError, firstRes.BestError)
	}
}

func TestMultipliers(t *testing.T) {
	p := testParams()
	p.Interval = 2
	g, _ := NewGA(3, p)
	got := g.Multipliers([]float64{0, 0.5, 1})
	want := []float64{0.01, 1, 100}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12*want[i] {
			t.Errorf("multiplier %d = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestQuantize(t *testing.T) {
	p := testParams()
	p.Precision = 0.25
	g, _ := NewGA(1, p)
	tests := []struct{ in, want float64 }{
		{0.1, 0}, {0.13, 0.25}, {0.6, 0.5}, {0.9, 1}, {1.2, 1}, {-0.3, 0},
	}
	for _, tt := range tests {
		if got := g.quantize(tt.in); got != tt.want {
			t.Errorf("quantize(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
	for _, genes := range g.Population() {
		if r := math.Mod(genes[0], 0.25); r != 0 {
			t.Errorf("initial gene %g not on the grid", genes[0])
		}
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"tiny population", func(p *Params) { p.Population = 1 }},
		{"no generations", func(p *Params) { p.Generations = 0 }},
		{"mutation above one", func(p *Params) { p.MutationRate = 1.5 }},
		{"negative crossover", func(p *Params) { p.CrossoverRate = -0.1 }},
		{"zero precision", func(p *Params) { p.Precision = 0 }},
		{"zero interval", func(p *Params) { p.Interval = 0 }},
		{"zero tournament", func(p *Params) { p.TournamentSize = 0 }},
	}

	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
