package optim

import (
	"context"
	"testing"
)

// keptCount scores a mask by how many positions are set.
func keptCount(_ context.Context, mask []bool) (float64, error) {
	n := 0.0
	for _, v := range mask {
		if v {
			n++
		}
	}
	return n, nil
}

func TestMaskGAShrinks(t *testing.T) {
	seeds := [][]bool{
		{true, true, true, true, true, false},
		{true, true, false, true, true, true},
	}
	mutable := []bool{false, true, true, true, true, true}

	p := testParams()
	p.MutationRate = 0.2
	g, err := NewMaskGA(seeds, mutable, p)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if len(g.Population()) != p.Population {
		t.Fatalf("population size %d", len(g.Population()))
	}

	res, err := g.Run(context.Background(), keptCount)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.BestError > res.History[0].BestError {
		t.Errorf("best %g worse than first generation %g", res.BestError, res.History[0].BestError)
	}
	if res.BestError > 2 {
		t.Errorf("expected most mutable positions dropped, best error %g", res.BestError)
	}
	if !res.Best[0] {
		t.Error("immutable position changed")
	}
	for _, mask := range g.Population() {
		if !mask[0] {
			t.Fatal("immutable position changed in population")
		}
	}
}

func TestMaskGAValidation(t *testing.T) {
	if _, err := NewMaskGA(nil, []bool{true}, testParams()); err == nil {
		t.Error("expected error without seeds")
	}
	if _, err := NewMaskGA([][]bool{{true, false}}, []bool{true}, testParams()); err == nil {
		t.Error("expected error for seed length mismatch")
	}
}

func TestMaskGenes(t *testing.T) {
	got := MaskGenes([]bool{true, false, true})
	if got[0] != 1 || got[1] != 0 || got[2] != 1 {
		t.Errorf("MaskGenes = %v", got)
	}
}
