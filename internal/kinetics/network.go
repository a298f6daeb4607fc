package kinetics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/kinfit/internal/dynamo"
	"github.com/san-kum/kinfit/internal/integrators"
)

var (
	// ErrRuntime marks an unexpected failure inside a step, such as a
	// panic in rate evaluation. It is distinct from *dynamo.SimulationError.
	ErrRuntime = errors.New("kinetics: runtime failure")

	ErrNotRegistered = errors.New("kinetics: reaction not registered for sensitivity")
)

// SensitivityPerturbation is the relative change applied to a rate
// constant when estimating its sensitivity coefficient.
const SensitivityPerturbation = 0.01

// Network advances a single constant-pressure reactor in time.
type Network struct {
	ode   *reactorODE
	integ *integrators.RK45
	tol   dynamo.Tolerances

	x     dynamo.State
	t     float64
	dt    float64
	steps int
	mass  float64

	sens []*sensitivityCopy
}

type sensitivityCopy struct {
	reaction int
	ode      *reactorODE
	integ    *integrators.RK45
	x        dynamo.State
}

func newNetwork(m *Mechanism, gas *Gas, tol dynamo.Tolerances) (*Network, error) {
	if err := tol.Validate(); err != nil {
		return nil, err
	}
	ode := newReactorODE(m, gas.P)
	x := make(dynamo.State, ode.Dim())
	x[0] = gas.T
	copy(x[1:], gas.Y)

	return &Network{
		ode:   ode,
		integ: integrators.NewRK45(),
		tol:   tol,
		x:     x,
		dt:    tol.InitialStep,
		mass:  gas.Density(), // 1 m3 of initial mixture
	}, nil
}

func (n *Network) Time() float64 { return n.t }

func (n *Network) Snapshot() Snapshot {
	return n.ode.snapshot(n.x, n.t, n.mass)
}

// AddSensitivityReaction registers reaction j for sensitivity tracking.
// Registration must happen before the first step.
func (n *Network) AddSensitivityReaction(j int) error {
	if j < 0 || j >= n.ode.mech.NumReactions() {
		return fmt.Errorf("kinetics: reaction index %d out of range", j)
	}
	if n.steps > 0 {
		return errors.New("kinetics: sensitivity registration after integration started")
	}
	ode := newReactorODE(n.ode.mech, n.ode.P)
	ode.mult = make([]float64, n.ode.mech.NumReactions())
	for i := range ode.mult {
		ode.mult[i] = 1
	}
	ode.mult[j] = 1 + SensitivityPerturbation
	n.sens = append(n.sens, &sensitivityCopy{
		reaction: j,
		ode:      ode,
		integ:    integrators.NewRK45(),
		x:        n.x.Clone(),
	})
	return nil
}

// Sensitivity returns d ln C_species / d ln k_j at the current time, with C
// the molar concentration. At constant pressure this includes the density
// change from heat release, unlike a mole fraction sensitivity.
func (n *Network) Sensitivity(species string, j int) (float64, error) {
	k, ok := n.ode.mech.SpeciesIndex(species)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSpecies, species)
	}
	for _, c := range n.sens {
		if c.reaction != j {
			continue
		}
		base := n.concentration(n.x, k)
		pert := n.concentration(c.x, k)
		if !(base > 0) || !(pert > 0) {
			return 0, nil
		}
		return (math.Log(pert) - math.Log(base)) / math.Log1p(SensitivityPerturbation), nil
	}
	return 0, fmt.Errorf("%w: %d", ErrNotRegistered, j)
}

func (n *Network) concentration(x dynamo.State, k int) float64 {
	return n.ode.density(x[0], x[1:]) * x[1+k] / n.ode.mech.Species[k].MolarMass
}

// Step takes one accepted adaptive step and returns the new time.
func (n *Network) Step() (float64, error) {
	if err := n.step(math.Inf(1)); err != nil {
		return n.t, err
	}
	return n.t, nil
}

// AdvanceTo integrates until exactly time target.
func (n *Network) AdvanceTo(target float64) error {
	for budget := n.tol.MaxSteps; n.t < target; budget-- {
		if budget == 0 {
			return &dynamo.SimulationError{Step: n.steps, Time: n.t, Wrapped: dynamo.ErrTooManySteps}
		}
		if err := n.step(target); err != nil {
			return err
		}
	}
	return nil
}

func (n *Network) step(limit float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRuntime, r)
		}
	}()

	dt := math.Min(n.dt, n.tol.MaxStep)
	capped := false
	if n.t+dt >= limit {
		dt = limit - n.t
		capped = true
	}

	for {
		if n.t+dt == n.t {
			return &dynamo.SimulationError{Step: n.steps, Time: n.t, Wrapped: dynamo.ErrStepTooSmall}
		}
		xNew, dtNext, ok := n.integ.StepAdaptive(n.ode, n.x, n.t, dt, n.tol)
		if ok {
			for _, c := range n.sens {
				c.x = c.integ.Step(c.ode, c.x, n.t, dt)
			}
			n.x = xNew
			if capped {
				n.t = limit
			} else {
				n.t += dt
			}
			n.steps++
			if !capped || dtNext < n.dt {
				n.dt = math.Min(dtNext, n.tol.MaxStep)
			}
			return nil
		}
		if dtNext < n.tol.MinStep || dtNext <= 0 {
			return &dynamo.SimulationError{Step: n.steps, Time: n.t, Wrapped: dynamo.ErrStepTooSmall}
		}
		dt = dtNext
		capped = false
	}
}
