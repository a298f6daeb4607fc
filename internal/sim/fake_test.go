package sim

import (
	"errors"
	"io"
	"log"

	"github.com/san-kum/kinfit/internal/dynamo"
	"github.com/san-kum/kinfit/internal/kinetics"
)

// fakeReactor advances time by a fixed dt. A is consumed linearly into B.
type fakeReactor struct {
	t, dt  float64
	steps  int
	failAt int
	fail   error
	sens   map[int]bool
}

func (f *fakeReactor) Step() (float64, error) {
	if f.fail != nil && f.steps == f.failAt {
		return f.t, f.fail
	}
	f.t += f.dt
	f.steps++
	return f.t, nil
}

func (f *fakeReactor) AdvanceTo(target float64) error {
	for f.t < target-1e-12 {
		if _, err := f.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeReactor) Time() float64 { return f.t }

func (f *fakeReactor) Snapshot() kinetics.Snapshot {
	a := max(0, 1-f.t)
	return kinetics.Snapshot{
		Time:          f.t,
		Temperature:   1000 + 100*f.t,
		Pressure:      kinetics.OneAtm,
		Volume:        1,
		Density:       1,
		MassFractions: []float64{a, 1 - a},
		MoleFractions: []float64{a, 1 - a},
		Concentration: []float64{a, 1 - a},
	}
}

func (f *fakeReactor) AddSensitivityReaction(j int) error {
	if f.sens == nil {
		f.sens = make(map[int]bool)
	}
	f.sens[j] = true
	return nil
}

func (f *fakeReactor) Sensitivity(species string, j int) (float64, error) {
	if !f.sens[j] {
		return 0, kinetics.ErrNotRegistered
	}
	return float64(j+1) * f.t, nil
}

type fakeEngine struct {
	dt     float64
	failAt int
	fail   error
	last   *fakeReactor
	tol    dynamo.Tolerances
}

func (e *fakeEngine) SpeciesNames() []string { return []string{"A", "B"} }
func (e *fakeEngine) NumReactions() int      { return 2 }

func (e *fakeEngine) NewReactor(c kinetics.Conditions, tol dynamo.Tolerances) (SensitiveReactor, error) {
	if c.Temperature <= 0 {
		return nil, errors.New("bad temperature")
	}
	e.tol = tol
	e.last = &fakeReactor{dt: e.dt, failAt: e.failAt, fail: e.fail}
	return e.last, nil
}

func quietDriver(eng Engine) *Driver {
	d := New(eng)
	d.SetLogger(log.New(io.Discard, "", 0))
	return d
}

var testConditions = kinetics.Conditions{Temperature: 1000, Pressure: kinetics.OneAtm, Mixture: "A:1"}
