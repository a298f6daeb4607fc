package sim

import (
	"github.com/san-kum/kinfit/internal/dynamo"
	"github.com/san-kum/kinfit/internal/kinetics"
)

type kineticsEngine struct {
	e *kinetics.Engine
}

// FromKinetics adapts the built-in engine to the Engine boundary.
func FromKinetics(e *kinetics.Engine) Engine {
	return kineticsEngine{e: e}
}

func (k kineticsEngine) SpeciesNames() []string { return k.e.Mechanism().SpeciesNames() }

func (k kineticsEngine) NumReactions() int { return k.e.Mechanism().NumReactions() }

func (k kineticsEngine) NewReactor(c kinetics.Conditions, tol dynamo.Tolerances) (SensitiveReactor, error) {
	n, err := k.e.NewReactor(c, tol)
	if err != nil {
		return nil, err
	}
	return n, nil
}
