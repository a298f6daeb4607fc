package evaluate

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"path/filepath"
	"testing"

	"github.com/san-kum/kinfit/internal/dynamo"
	"github.com/san-kum/kinfit/internal/experiment"
	"github.com/san-kum/kinfit/internal/ignition"
	"github.com/san-kum/kinfit/internal/kinetics"
	"github.com/san-kum/kinfit/internal/sim"
)

var dataDir = filepath.Join("..", "..", "data", "toy")

func quiet() Options {
	return Options{AverageRate: 0.5, Logger: log.New(io.Discard, "", 0)}
}

func loadFixtures(t *testing.T) (*kinetics.Mechanism, *experiment.IDTDataset, *experiment.PFRDataset) {
	t.Helper()
	mech, err := kinetics.LoadMechanism(filepath.Join(dataDir, "mechanism.yaml"))
	if err != nil {
		t.Fatalf("load mechanism: %v", err)
	}
	idt, err := experiment.LoadIDT(filepath.Join(dataDir, "idt.yaml"))
	if err != nil {
		t.Fatalf("load idt: %v", err)
	}
	pfr, err := experiment.LoadPFR(filepath.Join(dataDir, "pfr.yaml"))
	if err != nil {
		t.Fatalf("load pfr: %v", err)
	}
	return mech, idt, pfr
}

func engineFor(m *kinetics.Mechanism) sim.Engine {
	return sim.FromKinetics(kinetics.NewEngine(m, dynamo.DefaultTolerances()))
}

func TestIDTSweep(t *testing.T) {
	mech, ds, _ := loadFixtures(t)

	report, err := IDT(context.Background(), engineFor(mech), ds, quiet())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(report.Cases) != 4 {
		t.Fatalf("expected 4 case results, got %d", len(report.Cases))
	}
	for _, c := range report.Cases {
		if c.Failed {
			t.Errorf("case (%d, %d) failed", c.Case.Group, c.Case.Point)
		}
		if c.Simulated <= 1e-5 || c.Simulated >= ds.Groups[c.Case.Group].Runtime {
			t.Errorf("case (%d, %d) ignition delay %g out of range", c.Case.Group, c.Case.Point, c.Simulated)
		}
	}
	// hotter mixtures ignite sooner
	if report.Cases[0].Simulated <= report.Cases[2].Simulated {
		t.Errorf("1200 K delay %g should exceed 1400 K delay %g", report.Cases[0].Simulated, report.Cases[2].Simulated)
	}

	res := report.Results
	if got := res.Get(0, 2, experiment.FieldFinalTemperature); got < 2000 {
		t.Errorf("final temperature %g, expected ignition", got)
	}
	if got := res.Get(0, 0, experiment.FieldPeakConcentration); got <= 0 {
		t.Errorf("peak OH concentration %g", got)
	}
	if !math.IsNaN(res.Get(1, 1, experiment.FieldIDT)) {
		t.Error("skipped case should stay NaN")
	}
	if s := report.Summary; s.Cases != 4 || math.IsNaN(s.Fitness) || s.Fitness < 0 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestIDTUnknownMethod(t *testing.T) {
	mech, ds, _ := loadFixtures(t)
	ds.Method = "CO"

	_, err := IDT(context.Background(), engineFor(mech), ds, quiet())
	if !errors.Is(err, ignition.ErrUnknownMethod) {
		t.Errorf("expected ErrUnknownMethod, got %v", err)
	}
}

func TestIDTUnknownTrackedSpecies(t *testing.T) {
	mech, ds, _ := loadFixtures(t)
	ds.Tracked = "CH"

	if _, err := IDT(context.Background(), engineFor(mech), ds, quiet()); err == nil {
		t.Error("expected error for unknown tracked species")
	}
}

func TestPFRSweep(t *testing.T) {
	mech, _, ds := loadFixtures(t)

	report, err := PFR(context.Background(), engineFor(mech), ds, quiet())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(report.Cases) != 2 {
		t.Fatalf("expected 2 case results, got %d", len(report.Cases))
	}
	for _, c := range report.Cases {
		if len(c.Simulated) != 2 || len(c.Errors) != 2 {
			t.Fatalf("unexpected case result %+v", c)
		}
		ohPeak, oxMin := c.Simulated[0], c.Simulated[1]
		if ohPeak <= 0 || ohPeak >= ds.ResidenceTime {
			t.Errorf("OH peak time %g should fall inside the reactor", ohPeak)
		}
		if math.Abs(oxMin-ds.ResidenceTime) > 1e-9 {
			t.Errorf("OX keeps falling, min time %g should be the outlet", oxMin)
		}
	}
	if report.Summary.Cases != 4 {
		t.Errorf("expected 4 scored measurements, got %d", report.Summary.Cases)
	}
}

func TestObjective(t *testing.T) {
	mech, idt, pfr := loadFixtures(t)
	obj := &Objective{
		Base:    mech,
		Targets: []int{0, 1},
		IDT:     []*experiment.IDTDataset{idt},
		PFR:     []*experiment.PFRDataset{pfr},
		Options: quiet(),
	}
	if err := obj.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	ctx := context.Background()
	base, err := obj.Evaluate(ctx, []float64{1, 1})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	slow, err := obj.Evaluate(ctx, []float64{1, 0.01})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if slow <= base {
		t.Errorf("crippling the branching step should worsen the fit: %g <= %g", slow, base)
	}

	if _, err := obj.Evaluate(ctx, []float64{1}); err == nil {
		t.Error("expected error for wrong multiplier count")
	}
}

func TestObjectiveValidate(t *testing.T) {
	mech, idt, _ := loadFixtures(t)

	tests := []struct {
		name string
		obj  Objective
	}{
		{"no mechanism", Objective{IDT: []*experiment.IDTDataset{idt}}},
		{"no datasets", Objective{Base: mech}},
		{"target out of range", Objective{Base: mech, Targets: []int{99}, IDT: []*experiment.IDTDataset{idt}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.obj.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
