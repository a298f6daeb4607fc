package kinetics

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// GasConstant in J/(kmol K).
	GasConstant = 8314.462618
	// RefTemperature for formation enthalpies, K.
	RefTemperature = 298.15
)

var (
	ErrUnknownSpecies = errors.New("kinetics: unknown species")
	ErrBadEquation    = errors.New("kinetics: malformed reaction equation")
	ErrMissingReverse = errors.New("kinetics: reversible reaction without reverse rate")
)

type Species struct {
	Name      string  `yaml:"name"`
	MolarMass float64 `yaml:"molar_mass"`  // kg/kmol
	Cp        float64 `yaml:"cp"`          // J/(kmol K)
	Enthalpy  float64 `yaml:"h_formation"` // J/kmol at RefTemperature
}

// Arrhenius is k = A T^b exp(-Ea / (R T)) with Ea in J/kmol.
type Arrhenius struct {
	A  float64 `yaml:"A"`
	B  float64 `yaml:"b"`
	Ea float64 `yaml:"Ea"`
}

func (a Arrhenius) Rate(T float64) float64 {
	k := a.A * math.Exp(-a.Ea/(GasConstant*T))
	if a.B != 0 {
		k *= math.Pow(T, a.B)
	}
	return k
}

type Term struct {
	Species int
	Coeff   float64
}

type Reaction struct {
	Equation  string     `yaml:"equation"`
	Rate      Arrhenius  `yaml:"rate"`
	Reverse   *Arrhenius `yaml:"reverse,omitempty"`
	Duplicate bool       `yaml:"duplicate,omitempty"`

	Reversible bool   `yaml:"-"`
	Reactants  []Term `yaml:"-"`
	Products   []Term `yaml:"-"`
}

type Mechanism struct {
	Name      string     `yaml:"name"`
	Species   []Species  `yaml:"species"`
	Reactions []Reaction `yaml:"reactions"`

	index map[string]int
}

func LoadMechanism(path string) (*Mechanism, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseMechanism(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func ParseMechanism(data []byte) (*Mechanism, error) {
	var m Mechanism
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if err := m.compile(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes the mechanism in the same schema LoadMechanism reads.
func (m *Mechanism) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (m *Mechanism) compile() error {
	if len(m.Species) == 0 {
		return errors.New("kinetics: mechanism has no species")
	}
	m.index = make(map[string]int, len(m.Species))
	for i, sp := range m.Species {
		if sp.Name == "" {
			return fmt.Errorf("kinetics: species %d has no name", i)
		}
		if _, dup := m.index[sp.Name]; dup {
			return fmt.Errorf("kinetics: duplicate species %q", sp.Name)
		}
		if sp.MolarMass <= 0 || sp.Cp <= 0 {
			return fmt.Errorf("kinetics: species %q needs positive molar_mass and cp", sp.Name)
		}
		m.index[sp.Name] = i
	}
	for i := range m.Reactions {
		r := &m.Reactions[i]
		if err := r.compile(m.index); err != nil {
			return fmt.Errorf("reaction %d (%s): %w", i, r.Equation, err)
		}
	}
	return nil
}

func (r *Reaction) compile(index map[string]int) error {
	eq, err := parseEquation(r.Equation)
	if err != nil {
		return err
	}
	r.Reversible = eq.reversible
	if r.Reversible && r.Reverse == nil {
		return ErrMissingReverse
	}
	if r.Reactants, err = eq.lhs.terms(index); err != nil {
		return err
	}
	if r.Products, err = eq.rhs.terms(index); err != nil {
		return err
	}
	return nil
}

func (m *Mechanism) SpeciesIndex(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

func (m *Mechanism) SpeciesNames() []string {
	names := make([]string, len(m.Species))
	for i, sp := range m.Species {
		names[i] = sp.Name
	}
	return names
}

func (m *Mechanism) NumSpecies() int   { return len(m.Species) }
func (m *Mechanism) NumReactions() int { return len(m.Reactions) }

// Scaled returns a copy whose forward and reverse pre-exponential factors
// are multiplied by multipliers[reaction]. Reactions not in the map keep
// their rate.
func (m *Mechanism) Scaled(multipliers map[int]float64) *Mechanism {
	c := m.clone()
	for j, f := range multipliers {
		if j < 0 || j >= len(c.Reactions) {
			continue
		}
		c.Reactions[j].Rate.A *= f
		if c.Reactions[j].Reverse != nil {
			rev := *c.Reactions[j].Reverse
			rev.A *= f
			c.Reactions[j].Reverse = &rev
		}
	}
	return c
}

// Subset returns a skeletal mechanism keeping the flagged reactions and
// species. A nil mask keeps everything. Kept reactions must only involve
// kept species.
func (m *Mechanism) Subset(keepReactions, keepSpecies []bool) (*Mechanism, error) {
	sub := &Mechanism{Name: m.Name}
	for i, sp := range m.Species {
		if keepSpecies == nil || keepSpecies[i] {
			sub.Species = append(sub.Species, sp)
		}
	}
	for j, r := range m.Reactions {
		if keepReactions != nil && !keepReactions[j] {
			continue
		}
		cp := r
		if r.Reverse != nil {
			rev := *r.Reverse
			cp.Reverse = &rev
		}
		sub.Reactions = append(sub.Reactions, cp)
	}
	if err := sub.compile(); err != nil {
		return nil, err
	}
	return sub, nil
}

func (m *Mechanism) clone() *Mechanism {
	c := &Mechanism{
		Name:      m.Name,
		Species:   append([]Species(nil), m.Species...),
		Reactions: make([]Reaction, len(m.Reactions)),
		index:     m.index,
	}
	for j, r := range m.Reactions {
		c.Reactions[j] = r
		if r.Reverse != nil {
			rev := *r.Reverse
			c.Reactions[j].Reverse = &rev
		}
	}
	return c
}

// SpeciesInReactions flags every species that takes part in at least one
// of the flagged reactions.
func (m *Mechanism) SpeciesInReactions(keepReactions []bool) []bool {
	used := make([]bool, len(m.Species))
	for j, r := range m.Reactions {
		if keepReactions != nil && !keepReactions[j] {
			continue
		}
		for _, t := range r.Reactants {
			used[t.Species] = true
		}
		for _, t := range r.Products {
			used[t.Species] = true
		}
	}
	return used
}
