package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/kinfit/internal/config"
	"github.com/san-kum/kinfit/internal/kinetics"
)

func testCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	configFile, preset, dataDir = "", "", ""
	cmd := &cobra.Command{Use: "optimize"}
	cmd.Flags().StringVar(&preset, "preset", "", "")
	cmd.Flags().StringVar(&dataDir, "data", "", "")
	cmd.Flags().IntVar(&population, "population", 0, "")
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestLoadConfigPrecedence(t *testing.T) {
	t.Setenv("KINFIT_GA_POPULATION", "9")
	t.Setenv("KINFIT_GA_GENERATIONS", "2")

	cmd := testCommand(t, "--preset", "toy/quick", "--population", "5", "--data", "elsewhere")
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.GA.Population != 5 {
		t.Errorf("flag should override env, got population %d", cfg.GA.Population)
	}
	if cfg.GA.Generations != 2 {
		t.Errorf("env should override preset, got generations %d", cfg.GA.Generations)
	}
	if cfg.MechanismPath() != filepath.Join("elsewhere", "mechanism.yaml") {
		t.Errorf("unexpected mechanism path %s", cfg.MechanismPath())
	}
}

func TestLoadConfigUnknownPreset(t *testing.T) {
	cmd := testCommand(t, "--preset", "toy/none")
	if _, err := loadConfig(cmd); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestLoadInputs(t *testing.T) {
	cfg := config.GetPreset("toy", "full")
	cfg.DataDir = filepath.Join("..", "..", "data", "toy")

	in, err := loadInputs(cfg)
	if err != nil {
		t.Fatalf("loadInputs: %v", err)
	}
	if len(in.idt) != 1 || len(in.pfr) != 1 {
		t.Errorf("expected one dataset of each kind, got %d idt %d pfr", len(in.idt), len(in.pfr))
	}
	if got := targets(config.DefaultConfig(), in.mech); len(got) != in.mech.NumReactions() {
		t.Errorf("empty targets should select every reaction, got %v", got)
	}

	cfg.IDT, cfg.PFR = nil, nil
	if _, err := loadInputs(cfg); err == nil {
		t.Error("expected error without datasets")
	}
}

func TestReductionObjective(t *testing.T) {
	cfg := config.GetPreset("toy", "full")
	cfg.DataDir = filepath.Join("..", "..", "data", "toy")
	cfg.AverageRate = 0.9

	in, err := loadInputs(cfg)
	if err != nil {
		t.Fatalf("loadInputs: %v", err)
	}
	obj := in.reductionObjective(cfg, in.mech)
	if len(obj.PFR) != 0 || len(obj.IDT) != 1 {
		t.Errorf("reduction should score ignition delays only, got %d idt %d pfr", len(obj.IDT), len(obj.PFR))
	}
	if obj.Options.AverageRate != config.DefaultReductionRate {
		t.Errorf("reduction rate = %g, want %g", obj.Options.AverageRate, config.DefaultReductionRate)
	}
	if full := in.objective(cfg, in.mech, nil); full.Options.AverageRate != 0.9 || len(full.PFR) != 1 {
		t.Errorf("optimization objective changed: rate %g, %d pfr", full.Options.AverageRate, len(full.PFR))
	}
}

func TestSameEquations(t *testing.T) {
	m := &kinetics.Mechanism{Reactions: []kinetics.Reaction{
		{Equation: "A + B <=> C"},
		{Equation: "C => A"},
	}}
	if !sameEquations([]string{"B + A <=> C", "C => A"}, equations(m)) {
		t.Error("reordered reactants should match")
	}
	if sameEquations([]string{"A + B <=> C"}, equations(m)) {
		t.Error("length mismatch should not match")
	}
}
