package sim

import (
	"github.com/san-kum/kinfit/internal/dynamo"
	"github.com/san-kum/kinfit/internal/kinetics"
)

// Reactor is a running reactor network.
type Reactor interface {
	Step() (float64, error)
	AdvanceTo(t float64) error
	Time() float64
	Snapshot() kinetics.Snapshot
}

// SensitiveReactor can track d ln X / d ln k for registered reactions.
type SensitiveReactor interface {
	Reactor
	AddSensitivityReaction(j int) error
	Sensitivity(species string, j int) (float64, error)
}

// Engine is the boundary to the chemical kinetics library.
type Engine interface {
	SpeciesNames() []string
	NumReactions() int
	// NewReactor sets a gas to c and builds a constant-pressure reactor.
	// A zero tol selects the engine default.
	NewReactor(c kinetics.Conditions, tol dynamo.Tolerances) (SensitiveReactor, error)
}

type Metric interface {
	Name() string
	Observe(s kinetics.Snapshot)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s kinetics.Snapshot)
}

// StepFunc is called after every recorded sample with the live reactor.
type StepFunc func(r Reactor)

// Trajectory is the recorded history of one case. When integration failed
// part way, Err holds the cause and the samples up to the failure remain.
type Trajectory struct {
	Species     []string
	Times       []float64
	Temperature []float64
	Pressure    []float64
	Volume      []float64
	X           [][]float64 // mole fractions, one row per sample
	C           [][]float64 // concentrations, kmol/m3
	Rows        [][]float64 // full state rows, plug flow only
	Metrics     map[string]float64
	StepsTaken  int
	Err         error
}

func newTrajectory(species []string) *Trajectory {
	return &Trajectory{
		Species: species,
		Metrics: make(map[string]float64),
	}
}

func (tr *Trajectory) record(s kinetics.Snapshot, full bool) {
	tr.Times = append(tr.Times, s.Time)
	tr.Temperature = append(tr.Temperature, s.Temperature)
	tr.Pressure = append(tr.Pressure, s.Pressure)
	tr.Volume = append(tr.Volume, s.Volume)
	tr.X = append(tr.X, s.MoleFractions)
	tr.C = append(tr.C, s.Concentration)
	if full {
		tr.Rows = append(tr.Rows, s.StateRow())
	}
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

func (tr *Trajectory) Failed() bool { return tr.Err != nil }

func (tr *Trajectory) index(species string) int {
	for i, name := range tr.Species {
		if name == species {
			return i
		}
	}
	return -1
}

// MoleFraction returns the mole fraction history of one species, or nil
// when the species is unknown.
func (tr *Trajectory) MoleFraction(species string) []float64 {
	return column(tr.X, tr.index(species))
}

func (tr *Trajectory) Concentration(species string) []float64 {
	return column(tr.C, tr.index(species))
}

func column(rows [][]float64, k int) []float64 {
	if k < 0 {
		return nil
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = row[k]
	}
	return out
}
