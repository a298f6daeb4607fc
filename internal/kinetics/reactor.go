package kinetics

import (
	"math"

	"github.com/san-kum/kinfit/internal/dynamo"
)

// reactorODE is the constant-pressure ideal-gas reactor: state is
// [T, Y_1 .. Y_K]. A reactor behind a frictionless wall to a reservoir at
// fixed pressure obeys the same equations.
type reactorODE struct {
	mech *Mechanism
	P    float64
	// mult scales forward and reverse rates per reaction; nil means 1.
	mult []float64

	conc, wdot []float64
}

func newReactorODE(m *Mechanism, P float64) *reactorODE {
	k := m.NumSpecies()
	return &reactorODE{
		mech: m,
		P:    P,
		conc: make([]float64, k),
		wdot: make([]float64, k),
	}
}

func (r *reactorODE) Dim() int { return r.mech.NumSpecies() + 1 }

func (r *reactorODE) Derive(x dynamo.State, t float64) dynamo.State {
	m := r.mech
	T := x[0]
	y := x[1:]

	rho := r.density(T, y)
	for i := range r.conc {
		r.conc[i] = math.Max(rho*y[i]/m.Species[i].MolarMass, 0)
		r.wdot[i] = 0
	}

	for j := range m.Reactions {
		q := r.progress(j, T)
		for _, term := range m.Reactions[j].Reactants {
			r.wdot[term.Species] -= term.Coeff * q
		}
		for _, term := range m.Reactions[j].Products {
			r.wdot[term.Species] += term.Coeff * q
		}
	}

	// The integrator keeps references to returned derivatives between
	// stages, so every call needs a fresh slice.
	dx := make(dynamo.State, len(x))
	cpMass := 0.0
	heat := 0.0
	for i, sp := range m.Species {
		dx[i+1] = r.wdot[i] * sp.MolarMass / rho
		cpMass += y[i] * sp.Cp / sp.MolarMass
		heat += r.wdot[i] * (sp.Enthalpy + sp.Cp*(T-RefTemperature))
	}
	if cpMass > 0 {
		dx[0] = -heat / (rho * cpMass)
	}
	return dx
}

// progress is the net rate of progress of reaction j, kmol/(m3 s).
func (r *reactorODE) progress(j int, T float64) float64 {
	rxn := &r.mech.Reactions[j]
	f := 1.0
	if r.mult != nil {
		f = r.mult[j]
	}

	q := rxn.Rate.Rate(T) * f
	for _, term := range rxn.Reactants {
		q *= math.Pow(r.conc[term.Species], term.Coeff)
	}
	if rxn.Reversible && rxn.Reverse != nil {
		qr := rxn.Reverse.Rate(T) * f
		for _, term := range rxn.Products {
			qr *= math.Pow(r.conc[term.Species], term.Coeff)
		}
		q -= qr
	}
	return q
}

func (r *reactorODE) density(T float64, y []float64) float64 {
	return r.P * meanMolarMass(r.mech, y) / (GasConstant * T)
}

// Snapshot is the thermodynamic state of a reactor at one instant.
type Snapshot struct {
	Time          float64
	Temperature   float64   // K
	Pressure      float64   // Pa
	Volume        float64   // m3
	Density       float64   // kg/m3
	MassFractions []float64 // Y
	MoleFractions []float64 // X
	Concentration []float64 // kmol/m3
}

// StateRow flattens the snapshot as [T, P, V, Y_1 .. Y_K].
func (s Snapshot) StateRow() []float64 {
	row := make([]float64, 0, 3+len(s.MassFractions))
	row = append(row, s.Temperature, s.Pressure, s.Volume)
	return append(row, s.MassFractions...)
}

func (r *reactorODE) snapshot(x dynamo.State, t, mass float64) Snapshot {
	y := append([]float64(nil), x[1:]...)
	rho := r.density(x[0], y)
	conc := make([]float64, len(y))
	for i := range y {
		conc[i] = rho * y[i] / r.mech.Species[i].MolarMass
	}
	return Snapshot{
		Time:          t,
		Temperature:   x[0],
		Pressure:      r.P,
		Volume:        mass / rho,
		Density:       rho,
		MassFractions: y,
		MoleFractions: massToMole(r.mech, y),
		Concentration: conc,
	}
}
