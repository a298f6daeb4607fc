package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/san-kum/kinfit/internal/evaluate"
	"github.com/san-kum/kinfit/internal/fitness"
	"github.com/san-kum/kinfit/internal/plot"
	"github.com/san-kum/kinfit/internal/storage"
)

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	in, err := loadInputs(cfg)
	if err != nil {
		return err
	}
	eng := in.engine(cfg)
	ctx := cmd.Context()
	opts := evaluate.Options{
		AverageRate:      cfg.AverageRate,
		Progress:         !quiet,
		Logger:           newLogger("sim: "),
		KeepTrajectories: saveRun,
	}

	var store *storage.Store
	var runID string
	if saveRun {
		store = storage.New(cfg.RunsDir)
		if err := store.Init(); err != nil {
			return err
		}
		runID, err = store.Create(storage.RunMetadata{
			Kind:      "evaluate",
			Mechanism: cfg.MechanismPath(),
			Datasets:  append(cfg.IDTPaths(), cfg.PFRPaths()...),
		})
		if err != nil {
			return err
		}
	}

	metrics := make(map[string]float64)
	idt, pfr := math.NaN(), math.NaN()
	for i, ds := range in.idt {
		r, err := evaluate.IDT(ctx, eng, ds, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", ds.Name, err)
		}
		printIDTReport(r)
		metrics["idt_"+ds.Name] = r.Summary.Fitness
		if i == 0 {
			idt = 0
		}
		idt += r.Summary.Fitness / float64(len(in.idt))

		if store != nil {
			if err := saveIDTReport(store, runID, r); err != nil {
				return err
			}
		}
	}
	for i, ds := range in.pfr {
		r, err := evaluate.PFR(ctx, eng, ds, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", ds.Name, err)
		}
		printPFRReport(r)
		metrics["pfr_"+ds.Name] = r.Summary.Fitness
		if i == 0 {
			pfr = 0
		}
		pfr += r.Summary.Fitness / float64(len(in.pfr))
	}

	total := idt
	switch {
	case math.IsNaN(idt):
		total = pfr
	case !math.IsNaN(pfr):
		total = fitness.Combine(idt, pfr)
	}
	metrics["fitness"] = total
	fmt.Println(plot.Summary("total", []plot.Field{{Label: "fitness", Value: fmt.Sprintf("%.4f", total)}}))

	if store != nil {
		meta, err := store.Load(runID)
		if err != nil {
			return err
		}
		meta.Metrics = metrics
		if err := store.SaveMetadata(*meta); err != nil {
			return err
		}
		fmt.Printf("saved run %s\n", runID)
	}
	return nil
}

func printIDTReport(r *evaluate.IDTReport) {
	fmt.Println(plot.Summary(r.Dataset, []plot.Field{
		{Label: "method", Value: r.Method},
		{Label: "cases", Value: fmt.Sprintf("%d", r.Summary.Cases)},
		{Label: "average |error|", Value: fmt.Sprintf("%.4f", r.Summary.Average)},
		{Label: "max |error|", Value: fmt.Sprintf("%.4f", r.Summary.Max)},
		{Label: "fitness", Value: fmt.Sprintf("%.4f", r.Summary.Fitness)},
	}))
	for _, c := range r.Cases {
		note := ""
		if c.Failed {
			note = plot.Warn.Render(" (partial)")
		}
		fmt.Printf("  g%d p%d  T=%7.1f K  sim %.4e s  exp %.4e s  %s%s\n",
			c.Case.Group, c.Case.Point, c.Case.Conditions.Temperature,
			c.Simulated, c.Case.IDT, plot.ErrorValue(c.Error), note)
	}
	fmt.Println()
}

func printPFRReport(r *evaluate.PFRReport) {
	fmt.Println(plot.Summary(r.Dataset, []plot.Field{
		{Label: "cases", Value: fmt.Sprintf("%d", len(r.Cases))},
		{Label: "average |error|", Value: fmt.Sprintf("%.4f", r.Summary.Average)},
		{Label: "max |error|", Value: fmt.Sprintf("%.4f", r.Summary.Max)},
		{Label: "fitness", Value: fmt.Sprintf("%.4f", r.Summary.Fitness)},
	}))
	for _, c := range r.Cases {
		fmt.Printf("  g%d p%d  T=%7.1f K", c.Case.Group, c.Case.Point, c.Case.Conditions.Temperature)
		for i, m := range c.Case.Measurements {
			fmt.Printf("  t_%s_%s %.4e s %s", m.Kind, m.Species, c.Simulated[i], plot.ErrorValue(c.Errors[i]))
		}
		fmt.Println()
	}
	fmt.Println()
}

func saveIDTReport(store *storage.Store, runID string, r *evaluate.IDTReport) error {
	header := []string{"group", "point", "idt", "temperature", "pressure", "peak_concentration", "final_temperature"}
	groups, points, _ := r.Results.Shape()
	var rows [][]float64
	for g := 0; g < groups; g++ {
		for p := 0; p < points; p++ {
			rows = append(rows, append([]float64{float64(g), float64(p)}, r.Results.Row(g, p)...))
		}
	}
	if err := store.SaveTable(runID, r.Dataset+"_results.csv", header, rows); err != nil {
		return err
	}
	for _, c := range r.Cases {
		if c.Trajectory == nil {
			continue
		}
		name := fmt.Sprintf("%s_g%d_p%d.csv", r.Dataset, c.Case.Group, c.Case.Point)
		if err := store.SaveTrajectory(runID, name, c.Trajectory); err != nil {
			return err
		}
	}
	return nil
}
