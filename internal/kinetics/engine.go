package kinetics

import (
	"github.com/san-kum/kinfit/internal/dynamo"
)

// Engine builds reactor networks for one mechanism.
type Engine struct {
	mech *Mechanism
	tol  dynamo.Tolerances
}

func NewEngine(m *Mechanism, tol dynamo.Tolerances) *Engine {
	return &Engine{mech: m, tol: tol}
}

func (e *Engine) Mechanism() *Mechanism { return e.mech }

func (e *Engine) Tolerances() dynamo.Tolerances { return e.tol }

// NewReactor sets a gas to the given conditions and wraps it in a
// constant-pressure reactor network. A zero tol uses the engine default.
func (e *Engine) NewReactor(c Conditions, tol dynamo.Tolerances) (*Network, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	gas := NewGas(e.mech)
	if err := gas.SetTPX(c.Temperature, c.Pressure, c.Mixture); err != nil {
		return nil, err
	}
	if tol == (dynamo.Tolerances{}) {
		tol = e.tol
	}
	return newNetwork(e.mech, gas, tol)
}
