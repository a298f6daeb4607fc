package experiment

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/kinfit/internal/kinetics"
)

// ErrShape reports a descriptor whose tables do not line up.
var ErrShape = errors.New("experiment: inconsistent table shape")

// IDTDataset describes a set of ignition delay measurements, grouped the way
// shock-tube campaigns are usually reported: a group shares a mixture
// family and a runtime limit, each point is one (T, P, X) case.
type IDTDataset struct {
	Name    string     `yaml:"name" toml:"name"`
	Method  string     `yaml:"method" toml:"method"`
	Tracked string     `yaml:"tracked" toml:"tracked"`
	Species []string   `yaml:"species" toml:"species"`
	Groups  []IDTGroup `yaml:"groups" toml:"groups"`
}

type IDTGroup struct {
	Name    string     `yaml:"name" toml:"name"`
	Runtime float64    `yaml:"runtime" toml:"runtime"` // s
	Points  []IDTPoint `yaml:"points" toml:"points"`
}

type IDTPoint struct {
	Run         bool      `yaml:"run" toml:"run"`
	Temperature float64   `yaml:"temperature" toml:"temperature"` // K
	Pressure    float64   `yaml:"pressure" toml:"pressure"`       // Pa
	Fractions   []float64 `yaml:"fractions" toml:"fractions"`
	IDT         float64   `yaml:"idt" toml:"idt"`                 // s
	Uncertainty float64   `yaml:"uncertainty" toml:"uncertainty"` // relative
}

// PFRDataset describes plug-flow reactor profiles. Each group names two
// measured species and whether the measured quantity is the time of the
// species' minimum or maximum mole fraction.
type PFRDataset struct {
	Name          string     `yaml:"name" toml:"name"`
	Species       []string   `yaml:"species" toml:"species"`
	ResidenceTime float64    `yaml:"residence_time" toml:"residence_time"` // s
	Steps         int        `yaml:"steps" toml:"steps"`
	Groups        []PFRGroup `yaml:"groups" toml:"groups"`
}

type PFRGroup struct {
	Name         string        `yaml:"name" toml:"name"`
	Measurements []Measurement `yaml:"measurements" toml:"measurements"`
	Points       []PFRPoint    `yaml:"points" toml:"points"`
}

type Extremum string

const (
	Min Extremum = "min"
	Max Extremum = "max"
)

type Measurement struct {
	Species string   `yaml:"species" toml:"species"`
	Kind    Extremum `yaml:"kind" toml:"kind"`
}

type PFRPoint struct {
	Run         bool      `yaml:"run" toml:"run"`
	Temperature float64   `yaml:"temperature" toml:"temperature"`
	Pressure    float64   `yaml:"pressure" toml:"pressure"`
	Fractions   []float64 `yaml:"fractions" toml:"fractions"`
	Truth       []float64 `yaml:"truth" toml:"truth"` // one time per measurement, s
}

// decode picks the format from the file extension: .toml is TOML, anything
// else is YAML.
func decode(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err = toml.Decode(string(data), v)
	} else {
		err = yaml.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func LoadIDT(path string) (*IDTDataset, error) {
	ds := &IDTDataset{}
	if err := decode(path, ds); err != nil {
		return nil, err
	}
	if ds.Tracked == "" {
		ds.Tracked = "OH"
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

func LoadPFR(path string) (*PFRDataset, error) {
	ds := &PFRDataset{}
	if err := decode(path, ds); err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Validate checks array shapes, and that every runnable point has a positive
// measured delay and a non-negative uncertainty. The ignition method string
// is checked when an estimator is selected.
func (ds *IDTDataset) Validate() error {
	if len(ds.Species) == 0 {
		return fmt.Errorf("%w: no species", ErrShape)
	}
	for g, grp := range ds.Groups {
		if grp.Runtime <= 0 {
			return fmt.Errorf("group %d: runtime must be positive", g)
		}
		for p, pt := range grp.Points {
			if len(pt.Fractions) != len(ds.Species) {
				return fmt.Errorf("%w: group %d point %d has %d fractions for %d species",
					ErrShape, g, p, len(pt.Fractions), len(ds.Species))
			}
			if !pt.Run {
				continue
			}
			if !(pt.IDT > 0) || math.IsInf(pt.IDT, 0) {
				return fmt.Errorf("group %d point %d: idt must be positive, got %g", g, p, pt.IDT)
			}
			if !(pt.Uncertainty >= 0) || math.IsInf(pt.Uncertainty, 0) {
				return fmt.Errorf("group %d point %d: uncertainty must not be negative, got %g", g, p, pt.Uncertainty)
			}
		}
	}
	return nil
}

func (ds *PFRDataset) Validate() error {
	if len(ds.Species) == 0 {
		return fmt.Errorf("%w: no species", ErrShape)
	}
	if ds.ResidenceTime <= 0 || ds.Steps <= 0 {
		return fmt.Errorf("residence_time and steps must be positive")
	}
	for g, grp := range ds.Groups {
		if len(grp.Measurements) != 2 {
			return fmt.Errorf("%w: group %d needs two measurements, has %d", ErrShape, g, len(grp.Measurements))
		}
		for _, m := range grp.Measurements {
			if m.Kind != Min && m.Kind != Max {
				return fmt.Errorf("group %d: measurement kind %q is not min or max", g, m.Kind)
			}
		}
		for p, pt := range grp.Points {
			if len(pt.Fractions) != len(ds.Species) {
				return fmt.Errorf("%w: group %d point %d has %d fractions for %d species",
					ErrShape, g, p, len(pt.Fractions), len(ds.Species))
			}
			if len(pt.Truth) != len(grp.Measurements) {
				return fmt.Errorf("%w: group %d point %d has %d truth values", ErrShape, g, p, len(pt.Truth))
			}
			for _, v := range pt.Truth {
				if pt.Run && !(v > 0) {
					return fmt.Errorf("group %d point %d: truth times must be positive, got %g", g, p, v)
				}
			}
		}
	}
	return nil
}

// IDTCase is one runnable ignition delay case.
type IDTCase struct {
	Group, Point int
	Conditions   kinetics.Conditions
	Runtime      float64
	IDT          float64
	Uncertainty  float64
}

// Cases lists the runnable cases in group, point order.
func (ds *IDTDataset) Cases() []IDTCase {
	var out []IDTCase
	for g, grp := range ds.Groups {
		for p, pt := range grp.Points {
			if !pt.Run {
				continue
			}
			out = append(out, IDTCase{
				Group:       g,
				Point:       p,
				Conditions:  Conditions(ds.Species, pt.Temperature, pt.Pressure, pt.Fractions),
				Runtime:     grp.Runtime,
				IDT:         pt.IDT,
				Uncertainty: pt.Uncertainty,
			})
		}
	}
	return out
}

// Shape returns the group count and the largest point count, the
// dimensions of a ResultMatrix for this dataset.
func (ds *IDTDataset) Shape() (int, int) {
	points := 0
	for _, grp := range ds.Groups {
		points = max(points, len(grp.Points))
	}
	return len(ds.Groups), points
}

type PFRCase struct {
	Group, Point int
	Conditions   kinetics.Conditions
	Measurements []Measurement
	Truth        []float64
}

func (ds *PFRDataset) Cases() []PFRCase {
	var out []PFRCase
	for g, grp := range ds.Groups {
		for p, pt := range grp.Points {
			if !pt.Run {
				continue
			}
			out = append(out, PFRCase{
				Group:        g,
				Point:        p,
				Conditions:   Conditions(ds.Species, pt.Temperature, pt.Pressure, pt.Fractions),
				Measurements: grp.Measurements,
				Truth:        pt.Truth,
			})
		}
	}
	return out
}
