package evaluate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/kinfit/internal/dynamo"
	"github.com/san-kum/kinfit/internal/experiment"
	"github.com/san-kum/kinfit/internal/fitness"
	"github.com/san-kum/kinfit/internal/kinetics"
	"github.com/san-kum/kinfit/internal/sim"
)

var ErrNoDatasets = errors.New("evaluate: objective has no datasets")

// Objective scores a candidate set of rate multipliers. Multipliers are
// applied to the pre-exponential factors of Targets, in order.
type Objective struct {
	Base    *kinetics.Mechanism
	Targets []int
	Tol     dynamo.Tolerances
	IDT     []*experiment.IDTDataset
	PFR     []*experiment.PFRDataset
	Options Options
}

func (o *Objective) Validate() error {
	if o.Base == nil {
		return errors.New("evaluate: objective has no mechanism")
	}
	if len(o.IDT) == 0 && len(o.PFR) == 0 {
		return ErrNoDatasets
	}
	for _, j := range o.Targets {
		if j < 0 || j >= o.Base.NumReactions() {
			return fmt.Errorf("evaluate: target reaction %d out of range", j)
		}
	}
	return nil
}

// Mechanism returns the base mechanism with multipliers applied.
func (o *Objective) Mechanism(multipliers []float64) (*kinetics.Mechanism, error) {
	if len(multipliers) != len(o.Targets) {
		return nil, fmt.Errorf("evaluate: %d multipliers for %d targets", len(multipliers), len(o.Targets))
	}
	scale := make(map[int]float64, len(o.Targets))
	for i, j := range o.Targets {
		scale[j] = multipliers[i]
	}
	return o.Base.Scaled(scale), nil
}

// Evaluate returns the combined error of every dataset. Ignition delay and
// plug-flow sweeps are each averaged over their datasets before combining.
func (o *Objective) Evaluate(ctx context.Context, multipliers []float64) (float64, error) {
	mech, err := o.Mechanism(multipliers)
	if err != nil {
		return 0, err
	}
	tol := o.Tol
	if tol == (dynamo.Tolerances{}) {
		tol = dynamo.DefaultTolerances()
	}
	eng := sim.FromKinetics(kinetics.NewEngine(mech, tol))

	idt := math.NaN()
	if len(o.IDT) > 0 {
		idt = 0
		for _, ds := range o.IDT {
			r, err := IDT(ctx, eng, ds, o.Options)
			if err != nil {
				return 0, err
			}
			idt += r.Summary.Fitness / float64(len(o.IDT))
		}
	}

	pfr := math.NaN()
	if len(o.PFR) > 0 {
		pfr = 0
		for _, ds := range o.PFR {
			r, err := PFR(ctx, eng, ds, o.Options)
			if err != nil {
				return 0, err
			}
			pfr += r.Summary.Fitness / float64(len(o.PFR))
		}
	}

	switch {
	case math.IsNaN(pfr):
		return idt, nil
	case math.IsNaN(idt):
		return pfr, nil
	}
	return fitness.Combine(idt, pfr), nil
}
