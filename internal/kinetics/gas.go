package kinetics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadComposition = errors.New("kinetics: bad composition")

// Conditions is the initial state of one simulated case.
type Conditions struct {
	Temperature float64 // K
	Pressure    float64 // Pa
	Mixture     string  // "NAME:value, ..." mole fractions, normalized on use
}

func (c Conditions) Validate() error {
	if c.Temperature <= 0 {
		return fmt.Errorf("temperature must be positive, got %g", c.Temperature)
	}
	if c.Pressure <= 0 {
		return fmt.Errorf("pressure must be positive, got %g", c.Pressure)
	}
	if strings.TrimSpace(c.Mixture) == "" {
		return fmt.Errorf("%w: empty mixture", ErrBadComposition)
	}
	return nil
}

// Gas is an ideal-gas mixture state.
type Gas struct {
	mech *Mechanism
	T, P float64
	Y    []float64 // mass fractions
}

func NewGas(m *Mechanism) *Gas {
	return &Gas{mech: m, T: RefTemperature, P: OneAtm, Y: make([]float64, m.NumSpecies())}
}

// OneAtm in Pa.
const OneAtm = 101325.0

func (g *Gas) SetTPX(T, P float64, composition string) error {
	x, err := ParseComposition(g.mech, composition)
	if err != nil {
		return err
	}
	if T <= 0 || P <= 0 {
		return fmt.Errorf("kinetics: non-positive T=%g or P=%g", T, P)
	}
	g.T, g.P = T, P
	g.Y = moleToMass(g.mech, x)
	return nil
}

func (g *Gas) MoleFractions() []float64 { return massToMole(g.mech, g.Y) }

func (g *Gas) MeanMolarMass() float64 { return meanMolarMass(g.mech, g.Y) }

func (g *Gas) Density() float64 {
	return g.P * g.MeanMolarMass() / (GasConstant * g.T)
}

// ParseComposition reads "CH4:1, O2:2" into normalized mole fractions.
func ParseComposition(m *Mechanism, s string) ([]float64, error) {
	x := make([]float64, m.NumSpecies())
	total := 0.0
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, val, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q has no ':'", ErrBadComposition, part)
		}
		name = strings.TrimSpace(name)
		i, ok := m.SpeciesIndex(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSpecies, name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("%w: bad amount %q for %s", ErrBadComposition, val, name)
		}
		x[i] += v
		total += v
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: amounts sum to zero in %q", ErrBadComposition, s)
	}
	for i := range x {
		x[i] /= total
	}
	return x, nil
}

func moleToMass(m *Mechanism, x []float64) []float64 {
	y := make([]float64, len(x))
	sum := 0.0
	for i, xi := range x {
		y[i] = xi * m.Species[i].MolarMass
		sum += y[i]
	}
	for i := range y {
		y[i] /= sum
	}
	return y
}

func massToMole(m *Mechanism, y []float64) []float64 {
	x := make([]float64, len(y))
	wbar := meanMolarMass(m, y)
	for i, yi := range y {
		x[i] = yi / m.Species[i].MolarMass * wbar
	}
	return x
}

func meanMolarMass(m *Mechanism, y []float64) float64 {
	inv := 0.0
	for i, yi := range y {
		inv += yi / m.Species[i].MolarMass
	}
	return 1 / inv
}
