package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/kinfit/internal/experiment"
	"github.com/san-kum/kinfit/internal/kinetics"
)

// ExtremumTime records when one species' mole fraction reaches its minimum
// or maximum. The first occurrence wins on ties.
type ExtremumTime struct {
	name    string
	species int
	kind    experiment.Extremum
	best    float64
	at      float64
	samples int
}

func NewExtremumTime(species string, index int, kind experiment.Extremum) *ExtremumTime {
	return &ExtremumTime{
		name:    fmt.Sprintf("t_%s_%s", kind, species),
		species: index,
		kind:    kind,
	}
}

func (e *ExtremumTime) Name() string { return e.name }

func (e *ExtremumTime) Observe(s kinetics.Snapshot) {
	if e.species < 0 || e.species >= len(s.MoleFractions) {
		return
	}
	x := s.MoleFractions[e.species]
	if e.samples == 0 || e.better(x) {
		e.best = x
		e.at = s.Time
	}
	e.samples++
}

func (e *ExtremumTime) better(x float64) bool {
	if e.kind == experiment.Min {
		return x < e.best
	}
	return x > e.best
}

// Value is NaN until a sample has been observed.
func (e *ExtremumTime) Value() float64 {
	if e.samples == 0 {
		return math.NaN()
	}
	return e.at
}

func (e *ExtremumTime) Reset() {
	e.best = 0
	e.at = 0
	e.samples = 0
}

// PeakValue tracks the largest concentration of one species in kmol/m3.
type PeakValue struct {
	name    string
	species int
	peak    float64
}

func NewPeakValue(species string, index int) *PeakValue {
	return &PeakValue{name: "peak_" + species, species: index}
}

func (p *PeakValue) Name() string { return p.name }

func (p *PeakValue) Observe(s kinetics.Snapshot) {
	if p.species < 0 || p.species >= len(s.Concentration) {
		return
	}
	p.peak = math.Max(p.peak, s.Concentration[p.species])
}

func (p *PeakValue) Value() float64 { return p.peak }
func (p *PeakValue) Reset()         { p.peak = 0 }

type FinalTemperature struct {
	last float64
}

func NewFinalTemperature() *FinalTemperature { return &FinalTemperature{last: math.NaN()} }

func (f *FinalTemperature) Name() string                { return "final_temperature" }
func (f *FinalTemperature) Observe(s kinetics.Snapshot) { f.last = s.Temperature }
func (f *FinalTemperature) Value() float64              { return f.last }
func (f *FinalTemperature) Reset()                      { f.last = math.NaN() }
