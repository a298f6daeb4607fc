package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/kinfit/internal/config"
	"github.com/san-kum/kinfit/internal/experiment"
	"github.com/san-kum/kinfit/internal/ignition"
	"github.com/san-kum/kinfit/internal/plot"
	"github.com/san-kum/kinfit/internal/sim"
	"github.com/san-kum/kinfit/internal/storage"
)

func runPlot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		return plotHistory(storage.New(cfg.RunsDir), args[0])
	}

	in, err := loadInputs(cfg)
	if err != nil {
		return err
	}
	if len(in.idt) == 0 {
		return errors.New("plot needs an ignition delay dataset")
	}
	ds := in.idt[0]
	var c *experiment.IDTCase
	for _, cand := range ds.Cases() {
		if cand.Group == plotGroup && cand.Point == plotPoint {
			c = &cand
			break
		}
	}
	if c == nil {
		return fmt.Errorf("%s has no runnable case at group %d point %d", ds.Name, plotGroup, plotPoint)
	}
	method, err := ignition.Select(ds.Method)
	if err != nil {
		return err
	}

	d := sim.New(in.engine(cfg))
	d.SetLogger(newLogger("sim: "))
	tr, err := d.RunBatch(cmd.Context(), c.Conditions, c.Runtime)
	if err != nil {
		return err
	}
	series := tr.Temperature
	if method.Quantity == ignition.Species {
		series = tr.Concentration(ds.Tracked)
	}
	idt := method.Estimate(series, tr.Times)

	species := []string{ds.Tracked}
	fmt.Print(plot.Profiles(tr, species))
	fmt.Println(plot.Summary(fmt.Sprintf("%s g%d p%d", ds.Name, c.Group, c.Point), []plot.Field{
		{Label: "mixture", Value: c.Conditions.Mixture},
		{Label: "samples", Value: fmt.Sprint(tr.Len())},
		{Label: "simulated idt", Value: fmt.Sprintf("%.4e s", idt)},
		{Label: "measured idt", Value: fmt.Sprintf("%.4e s", c.IDT)},
	}))

	if pngOut != "" {
		if err := plot.SaveConcentrations(pngOut, tr, species, idt); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngOut)
	}
	return nil
}

func plotHistory(store *storage.Store, runID string) error {
	meta, err := store.Load(runID)
	if err != nil {
		return err
	}
	_, rows, err := store.LoadTable(runID, historyTable)
	if err != nil {
		return fmt.Errorf("run %s has no history: %w", runID, err)
	}
	best := make([]float64, len(rows))
	for i, row := range rows {
		best[i] = row[1]
	}
	fmt.Println(plot.ASCII(best, "best error per generation"))
	fmt.Println()
	fmt.Println(plot.Summary(meta.ID, []plot.Field{
		{Label: "kind", Value: meta.Kind},
		{Label: "generations", Value: fmt.Sprint(len(rows))},
		{Label: "best error", Value: fmt.Sprintf("%.4f", meta.Metrics["best_error"])},
	}))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := storage.New(cfg.RunsDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tMECHANISM\tMETRICS")

	for _, run := range runs {
		keys := make([]string, 0, len(run.Metrics))
		for k := range run.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%.4f", k, run.Metrics[k])
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			run.ID,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Mechanism,
			strings.Join(parts, " "),
		)
	}

	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	families := config.Families()
	if len(args) == 1 {
		families = args[:1]
	}
	for _, family := range families {
		presets := config.ListPresets(family)
		if len(presets) == 0 {
			fmt.Printf("no presets for family: %s\n", family)
			continue
		}
		fmt.Printf("presets for %s:\n", family)
		for _, p := range presets {
			fmt.Printf("  - %s/%s\n", family, p)
		}
	}
	return nil
}
