package sensitivity

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/san-kum/kinfit/internal/dynamo"
	"github.com/san-kum/kinfit/internal/experiment"
	"github.com/san-kum/kinfit/internal/kinetics"
	"github.com/san-kum/kinfit/internal/sim"
)

func toyEngine(t *testing.T) sim.Engine {
	t.Helper()
	mech, err := kinetics.LoadMechanism(filepath.Join("..", "..", "data", "toy", "mechanism.yaml"))
	if err != nil {
		t.Fatalf("load mechanism: %v", err)
	}
	return sim.FromKinetics(kinetics.NewEngine(mech, dynamo.DefaultTolerances()))
}

func singleCase(T float64) *experiment.IDTDataset {
	return &experiment.IDTDataset{
		Method:  "OH",
		Tracked: "OH",
		Species: []string{"F", "OX", "N2"},
		Groups: []experiment.IDTGroup{{
			Runtime: 0.003,
			Points: []experiment.IDTPoint{
				{Run: true, Temperature: T, Pressure: kinetics.OneAtm, Fractions: []float64{0.1, 0.2, 0.7}},
				{Run: false, Temperature: T + 100, Pressure: kinetics.OneAtm, Fractions: []float64{0.1, 0.2, 0.7}},
			},
		}},
	}
}

func TestAnalyze(t *testing.T) {
	eng := toyEngine(t)
	opts := Options{Logger: log.New(io.Discard, "", 0)}

	res, err := Analyze(context.Background(), eng, singleCase(1400), opts)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.PerCase) != 1 || len(res.Coefficients) != eng.NumReactions() {
		t.Fatalf("unexpected shape: %d cases, %d coefficients", len(res.PerCase), len(res.Coefficients))
	}
	if res.Species != "OH" || res.Failed != 0 {
		t.Errorf("unexpected result header %+v", res)
	}

	c := res.Coefficients
	if c[0] < 0.1 || c[1] < 0.1 {
		t.Errorf("initiation and branching should dominate, got %v", c)
	}
	if c[3] >= c[1] {
		t.Errorf("minor duplicate channel %g should rank below branching %g", c[3], c[1])
	}
	for j, v := range c {
		if v < 0 || v != v {
			t.Errorf("coefficient %d = %g", j, v)
		}
	}
}

func TestAnalyzeUnknownSpecies(t *testing.T) {
	_, err := Analyze(context.Background(), toyEngine(t), singleCase(1400), Options{Species: "CH"})
	if err == nil {
		t.Error("expected error for unknown species")
	}
}

func TestRanked(t *testing.T) {
	r := &Result{Coefficients: []float64{0.5, 2, 0.5, 3}}
	if got, want := r.Ranked(), []int{3, 1, 0, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("Ranked() = %v, want %v", got, want)
	}
}
