package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/kinfit/internal/dynamo"
	"github.com/san-kum/kinfit/internal/fitness"
	"github.com/san-kum/kinfit/internal/optim"
)

const (
	DefaultDataDir  = "data/toy"
	DefaultRunsDir  = "runs"
	DefaultSpecies  = "OH"
	DefaultDelta    = 0.1
	DefaultDrop     = 1
	DefaultMechFile = "mechanism.yaml"
)

// DefaultReductionRate blends ignition delay errors when scoring skeletal
// mechanisms. Optimization uses Config.AverageRate instead.
const DefaultReductionRate = 0.5

type Config struct {
	Mechanism string   `yaml:"mechanism" toml:"mechanism" env:"KINFIT_MECHANISM"`
	IDT       []string `yaml:"idt" toml:"idt" env:"KINFIT_IDT"`
	PFR       []string `yaml:"pfr" toml:"pfr" env:"KINFIT_PFR"`
	DataDir   string   `yaml:"data_dir" toml:"data_dir" env:"KINFIT_DATA_DIR"`
	RunsDir   string   `yaml:"runs_dir" toml:"runs_dir" env:"KINFIT_RUNS_DIR"`

	// Targets are the reaction indices whose rate constants are optimized.
	Targets     []int   `yaml:"targets" toml:"targets" env:"KINFIT_TARGETS"`
	AverageRate float64 `yaml:"average_rate" toml:"average_rate" env:"KINFIT_AVERAGE_RATE"`

	Sensitivity SensitivityConfig `yaml:"sensitivity" toml:"sensitivity"`
	Reduction   ReductionConfig   `yaml:"reduction" toml:"reduction"`
	GA          optim.Params      `yaml:"ga" toml:"ga" envPrefix:"KINFIT_GA_"`
	Tolerances  dynamo.Tolerances `yaml:"tolerances" toml:"tolerances"`
}

type SensitivityConfig struct {
	Species string `yaml:"species" toml:"species" env:"KINFIT_SENS_SPECIES"`
	// File caches coefficients so reduction can skip the analysis.
	File string `yaml:"file" toml:"file" env:"KINFIT_SENS_FILE"`
}

type ReductionConfig struct {
	Delta    float64  `yaml:"delta" toml:"delta" env:"KINFIT_REDUCTION_DELTA"`
	Drop     int      `yaml:"drop" toml:"drop" env:"KINFIT_REDUCTION_DROP"`
	Optional []string `yaml:"optional" toml:"optional" env:"KINFIT_REDUCTION_OPTIONAL"`
	Keep     []string `yaml:"keep" toml:"keep" env:"KINFIT_REDUCTION_KEEP"`
	Output   string   `yaml:"output" toml:"output" env:"KINFIT_REDUCTION_OUTPUT"`
	// AverageRate weighs IDT errors during reduction, independent of the
	// top level rate used by evaluate and optimize.
	AverageRate float64 `yaml:"average_rate" toml:"average_rate" env:"KINFIT_REDUCTION_AVERAGE_RATE"`
	// Exhaustive scores every drop candidate instead of evolving masks.
	Exhaustive bool `yaml:"exhaustive" toml:"exhaustive" env:"KINFIT_REDUCTION_EXHAUSTIVE"`
}

func DefaultConfig() *Config {
	return &Config{
		Mechanism:   DefaultMechFile,
		IDT:         []string{"idt.yaml"},
		DataDir:     DefaultDataDir,
		RunsDir:     DefaultRunsDir,
		AverageRate: fitness.DefaultAverageRate,
		Sensitivity: SensitivityConfig{Species: DefaultSpecies},
		Reduction: ReductionConfig{
			Delta:  DefaultDelta,
			Drop:        DefaultDrop,
			Output:      "skeletal.yaml",
			AverageRate: DefaultReductionRate,
		},
		GA:         optim.DefaultParams(),
		Tolerances: dynamo.DefaultTolerances(),
	}
}

// Load reads a YAML or TOML file (chosen by extension) over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		_, err = toml.Decode(string(data), cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if isTOML(path) {
		return toml.NewEncoder(f).Encode(cfg)
	}
	enc := yaml.NewEncoder(f)
	defer enc.Close()
	return enc.Encode(cfg)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// ApplyEnv overrides fields from KINFIT_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Mechanism == "" {
		return fmt.Errorf("no mechanism configured")
	}
	if c.AverageRate < 0 || c.AverageRate > 1 {
		return fmt.Errorf("average_rate must be in [0, 1], got %g", c.AverageRate)
	}
	if c.Reduction.AverageRate < 0 || c.Reduction.AverageRate > 1 {
		return fmt.Errorf("reduction average_rate must be in [0, 1], got %g", c.Reduction.AverageRate)
	}
	if c.Reduction.Delta < 0 {
		return fmt.Errorf("reduction delta must not be negative, got %g", c.Reduction.Delta)
	}
	if err := c.GA.Validate(); err != nil {
		return fmt.Errorf("ga: %w", err)
	}
	if err := c.Tolerances.Validate(); err != nil {
		return fmt.Errorf("tolerances: %w", err)
	}
	return nil
}

// Resolve makes a relative path relative to DataDir.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.DataDir == "" {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

func (c *Config) MechanismPath() string { return c.Resolve(c.Mechanism) }

func (c *Config) IDTPaths() []string { return c.resolveAll(c.IDT) }

func (c *Config) PFRPaths() []string { return c.resolveAll(c.PFR) }

func (c *Config) resolveAll(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = c.Resolve(p)
	}
	return out
}
