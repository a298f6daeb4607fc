package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/kinfit/internal/evaluate"
	"github.com/san-kum/kinfit/internal/optim"
	"github.com/san-kum/kinfit/internal/plot"
	"github.com/san-kum/kinfit/internal/storage"
)

const historyTable = "history.csv"

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	in, err := loadInputs(cfg)
	if err != nil {
		return err
	}
	tgts := targets(cfg, in.mech)
	obj := in.objective(cfg, in.mech, tgts)
	if err := obj.Validate(); err != nil {
		return err
	}

	store := storage.New(cfg.RunsDir)
	if err := store.Init(); err != nil {
		return err
	}

	ga, err := optim.NewGA(len(tgts), cfg.GA)
	if err != nil {
		return err
	}

	var runID string
	var history [][]float64
	if resumeRun != "" {
		runID = resumeRun
		pop, errs, iter, err := store.LoadCheckpoint(runID, -1)
		if err != nil {
			return fmt.Errorf("resume %s: %w", runID, err)
		}
		if err := ga.Resume(pop, errs, iter+1); err != nil {
			return err
		}
		if _, rows, err := store.LoadTable(runID, historyTable); err == nil {
			history = rows
		}
		fmt.Printf("resuming run %s from generation %d\n", runID, iter+1)
	} else {
		runID, err = store.Create(storage.RunMetadata{
			Kind:      "optimize",
			Mechanism: cfg.MechanismPath(),
			Datasets:  append(cfg.IDTPaths(), cfg.PFRPaths()...),
			Targets:   tgts,
			Seed:      cfg.GA.Seed,
		})
		if err != nil {
			return err
		}
	}

	bar := evaluate.NewProgressBar(cfg.GA.Generations, "optimize")
	ga.OnGeneration = func(gen optim.Generation, population [][]float64) error {
		if err := store.SaveCheckpoint(runID, gen.Index, population, gen.Errors); err != nil {
			return err
		}
		history = append(history, []float64{float64(gen.Index), gen.BestError, gen.AverageError})
		if err := store.SaveTable(runID, historyTable, []string{"generation", "best", "average"}, history); err != nil {
			return err
		}
		bar.Describe(fmt.Sprintf("[cyan]optimize[reset] best %.4f", gen.BestError))
		return bar.Add(1)
	}

	res, err := ga.Run(cmd.Context(), obj.Evaluate)
	bar.Finish()
	if err != nil {
		return err
	}

	best, err := obj.Mechanism(res.BestMultipliers)
	if err != nil {
		return err
	}
	if err := best.Save(store.Path(runID, "optimized.yaml")); err != nil {
		return err
	}

	meta, err := store.Load(runID)
	if err != nil {
		return err
	}
	meta.Metrics = map[string]float64{"best_error": res.BestError}
	if err := store.SaveMetadata(*meta); err != nil {
		return err
	}

	fields := []plot.Field{
		{Label: "run", Value: runID},
		{Label: "best error", Value: fmt.Sprintf("%.4f", res.BestError)},
	}
	for i, j := range tgts {
		fields = append(fields, plot.Field{
			Label: fmt.Sprintf("k%d multiplier", j),
			Value: fmt.Sprintf("%.4g  %s", res.BestMultipliers[i], in.mech.Reactions[j].Equation),
		})
	}
	fmt.Println(plot.Summary("optimize", fields))
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	in, err := loadInputs(cfg)
	if err != nil {
		return err
	}
	tgts := targets(cfg, in.mech)
	obj := in.objective(cfg, in.mech, tgts)
	if err := obj.Validate(); err != nil {
		return err
	}

	names := make([]string, len(tgts))
	levels := make([][]float64, len(tgts))
	for i, j := range tgts {
		names[i] = in.mech.Reactions[j].Equation
		levels[i] = optim.Levels(cfg.GA.Interval, scanLevels)
	}
	gs := optim.NewGridSearch(names, levels)
	fmt.Printf("scanning %d points\n", gs.Points())

	best, score, err := gs.Search(cmd.Context(), obj.Evaluate)
	if err != nil {
		return err
	}

	parts := make([]string, len(best))
	for i, m := range best {
		parts[i] = fmt.Sprintf("%.3g", m)
	}
	fmt.Println(plot.Summary("scan", []plot.Field{
		{Label: "best error", Value: fmt.Sprintf("%.4f", score)},
		{Label: "multipliers", Value: strings.Join(parts, " ")},
		{Label: "failed points", Value: fmt.Sprintf("%d", gs.Failed())},
	}))
	return nil
}
