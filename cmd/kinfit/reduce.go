package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/kinfit/internal/config"
	"github.com/san-kum/kinfit/internal/evaluate"
	"github.com/san-kum/kinfit/internal/kinetics"
	"github.com/san-kum/kinfit/internal/optim"
	"github.com/san-kum/kinfit/internal/plot"
	"github.com/san-kum/kinfit/internal/reduction"
	"github.com/san-kum/kinfit/internal/sensitivity"
	"github.com/san-kum/kinfit/internal/storage"
)

func runSensitivity(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	in, err := loadInputs(cfg)
	if err != nil {
		return err
	}
	coeffs, err := analyze(cmd.Context(), cfg, in)
	if err != nil {
		return err
	}

	out := sensOut
	if out == "" {
		out = cfg.Resolve(cfg.Sensitivity.File)
	}
	if out != "" {
		if err := storage.SaveSensitivities(out, equations(in.mech), coeffs.Coefficients); err != nil {
			return err
		}
	}

	fields := []plot.Field{{Label: "species", Value: coeffs.Species}}
	for rank, j := range coeffs.Ranked() {
		if rank >= topN {
			break
		}
		fields = append(fields, plot.Field{
			Label: fmt.Sprintf("%2d. k%d", rank+1, j),
			Value: fmt.Sprintf("%.4e  %s", coeffs.Coefficients[j], in.mech.Reactions[j].Equation),
		})
	}
	if coeffs.Failed > 0 {
		fields = append(fields, plot.Field{Label: "failed cases", Value: plot.Warn.Render(fmt.Sprint(coeffs.Failed))})
	}
	fmt.Println(plot.Summary("sensitivity", fields))
	return nil
}

func analyze(ctx context.Context, cfg *config.Config, in *inputs) (*sensitivity.Result, error) {
	if len(in.idt) == 0 {
		return nil, errors.New("sensitivity analysis needs an ignition delay dataset")
	}
	return sensitivity.Analyze(ctx, in.engine(cfg), in.idt[0], sensitivity.Options{
		Species: cfg.Sensitivity.Species,
		Logger:  newLogger("sensitivity: "),
	})
}

// coefficients reads cached coefficients when the configured file matches
// the mechanism, otherwise runs the analysis.
func coefficients(ctx context.Context, cfg *config.Config, in *inputs) ([]float64, error) {
	if path := cfg.Resolve(cfg.Sensitivity.File); path != "" {
		eqs, coeffs, err := storage.LoadSensitivities(path)
		switch {
		case err == nil && sameEquations(eqs, equations(in.mech)):
			return coeffs, nil
		case err == nil:
			fmt.Fprintf(os.Stderr, "%s does not match the mechanism, recomputing\n", path)
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}
	res, err := analyze(ctx, cfg, in)
	if err != nil {
		return nil, err
	}
	return res.Coefficients, nil
}

func runReduce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	in, err := loadInputs(cfg)
	if err != nil {
		return err
	}
	if len(in.idt) == 0 {
		return errors.New("reduce: no ignition delay datasets configured")
	}
	ctx := cmd.Context()
	logger := newLogger("reduce: ")

	coeffs, err := coefficients(ctx, cfg, in)
	if err != nil {
		return err
	}
	eval := func(ctx context.Context, m *kinetics.Mechanism) (float64, error) {
		return in.reductionObjective(cfg, m).Evaluate(ctx, nil)
	}

	pruned, err := reduction.PruneBySensitivity(ctx, in.mech, coeffs, eval, reduction.PruneOptions{
		Delta:  cfg.Reduction.Delta,
		Keep:   cfg.Reduction.Keep,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	keepSpecies := pruned.KeepSpecies
	score := math.NaN()
	if cfg.Reduction.Drop > 0 && len(cfg.Reduction.Optional) > 0 {
		optional := make([]bool, in.mech.NumSpecies())
		mutable := make([]bool, in.mech.NumSpecies())
		for _, name := range cfg.Reduction.Optional {
			k, ok := in.mech.SpeciesIndex(name)
			if !ok {
				return fmt.Errorf("optional species %q not in mechanism", name)
			}
			optional[k] = true
			mutable[k] = pruned.KeepSpecies[k]
		}
		cands, err := reduction.DropCandidates(pruned.KeepSpecies, optional, cfg.Reduction.Drop)
		if err != nil {
			return err
		}
		if sampleN > 0 {
			rng := rand.New(rand.NewPCG(cfg.GA.Seed, cfg.GA.Seed^0x9e3779b97f4a7c15))
			cands = reduction.Sample(cands, sampleN, rng)
		}
		scored := reduction.Scored(in.mech, pruned.Baseline, eval)

		if cfg.Reduction.Exhaustive {
			best, e, err := reduction.Best(ctx, in.mech, pruned.KeepReactions, cands, scored)
			if err != nil {
				return err
			}
			keepSpecies, score = cands[best], e
		} else {
			bar := evaluate.NewProgressBar(cfg.GA.Generations, "reduce")
			res, _, err := reduction.Evolve(ctx, in.mech, pruned.KeepReactions, cands, mutable, scored, cfg.GA,
				func(gen optim.Generation, _ [][]bool) error {
					bar.Describe(fmt.Sprintf("[cyan]reduce[reset] best %.4f", gen.BestError))
					return bar.Add(1)
				})
			bar.Finish()
			if err != nil {
				return err
			}
			keepSpecies, score = res.Best, res.BestError
			logger.Printf("species masks: best score %.4f after %d generations", score, len(res.History))
		}
	}

	skeletal, err := reduction.Skeletal(in.mech, pruned.KeepReactions, keepSpecies)
	if err != nil {
		return err
	}
	finalErr, err := eval(ctx, skeletal)
	if err != nil {
		return err
	}
	if err := skeletal.Save(cfg.Reduction.Output); err != nil {
		return err
	}

	fields := []plot.Field{
		{Label: "reactions", Value: fmt.Sprintf("%d -> %d", in.mech.NumReactions(), skeletal.NumReactions())},
		{Label: "species", Value: fmt.Sprintf("%d -> %d", in.mech.NumSpecies(), skeletal.NumSpecies())},
		{Label: "full error", Value: fmt.Sprintf("%.4f", pruned.Baseline)},
		{Label: "skeletal error", Value: fmt.Sprintf("%.4f", finalErr)},
	}
	if !math.IsNaN(score) {
		fields = append(fields, plot.Field{Label: "score", Value: fmt.Sprintf("%.4f", score)})
	}
	fields = append(fields, plot.Field{Label: "written", Value: cfg.Reduction.Output})
	fmt.Println(plot.Summary("reduce", fields))
	return nil
}

func equations(m *kinetics.Mechanism) []string {
	eqs := make([]string, m.NumReactions())
	for j, r := range m.Reactions {
		eqs[j] = r.Equation
	}
	return eqs
}

func sameEquations(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !kinetics.EquationEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
