package config

import (
	"sort"

	"github.com/san-kum/kinfit/internal/dynamo"
	"github.com/san-kum/kinfit/internal/optim"
)

func gaParams(population, generations int, interval float64) optim.Params {
	p := optim.DefaultParams()
	p.Population = population
	p.Generations = generations
	p.Interval = interval
	return p
}

// Presets are grouped by data set family, then by preset name.
var Presets = map[string]map[string]*Config{
	"toy": {
		"idt": {
			Mechanism: "mechanism.yaml", IDT: []string{"idt.yaml"}, DataDir: "data/toy",
			Targets: []int{0, 1, 2}, AverageRate: 0.5,
			GA: gaParams(20, 10, 1), Tolerances: dynamo.DefaultTolerances(),
		},
		"full": {
			Mechanism: "mechanism.yaml", IDT: []string{"idt.yaml"}, PFR: []string{"pfr.yaml"}, DataDir: "data/toy",
			Targets: []int{0, 1, 2, 3, 4}, AverageRate: 0.5,
			GA: gaParams(40, 25, 1), Tolerances: dynamo.DefaultTolerances(),
		},
		"quick": {
			Mechanism: "mechanism.yaml", IDT: []string{"idt.yaml"}, DataDir: "data/toy",
			Targets: []int{1}, AverageRate: 0.5,
			GA: gaParams(6, 3, 0.5), Tolerances: dynamo.DefaultTolerances(),
		},
		"reduce": {
			Mechanism: "mechanism.yaml", IDT: []string{"idt.yaml"}, DataDir: "data/toy",
			AverageRate: 0.5,
			Reduction: ReductionConfig{
				Delta: 0.05, Drop: 1, Optional: []string{"Q"}, Keep: []string{"F", "OX", "N2"},
				Output: "skeletal.yaml", AverageRate: DefaultReductionRate,
			},
			GA: optim.DefaultParams(), Tolerances: dynamo.DefaultTolerances(),
		},
	},
}

// GetPreset returns a copy of the named preset with unset fields filled
// from DefaultConfig, or nil.
func GetPreset(family, preset string) *Config {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	p, ok := familyPresets[preset]
	if !ok {
		return nil
	}
	cfg := *p
	def := DefaultConfig()
	if cfg.RunsDir == "" {
		cfg.RunsDir = def.RunsDir
	}
	if cfg.Sensitivity.Species == "" {
		cfg.Sensitivity = def.Sensitivity
	}
	if cfg.Reduction.Output == "" {
		cfg.Reduction = def.Reduction
	}
	return &cfg
}

func ListPresets(family string) []string {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(familyPresets))
	for name := range familyPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Families() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
