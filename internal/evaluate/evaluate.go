// Package evaluate sweeps experiment datasets through the simulation
// driver and scores the results against the measurements.
package evaluate

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/san-kum/kinfit/internal/experiment"
	"github.com/san-kum/kinfit/internal/fitness"
	"github.com/san-kum/kinfit/internal/ignition"
	"github.com/san-kum/kinfit/internal/metrics"
	"github.com/san-kum/kinfit/internal/sim"
)

type Options struct {
	AverageRate float64
	Progress    bool
	Logger      *log.Logger
	// KeepTrajectories retains every case's trajectory in the report.
	KeepTrajectories bool
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(os.Stderr, "evaluate: ", log.LstdFlags)
}

func (o Options) bar(n int, description string) *progressbar.ProgressBar {
	if !o.Progress {
		return newBar(io.Discard, n, description)
	}
	return NewProgressBar(n, description)
}

type IDTCaseResult struct {
	Case       experiment.IDTCase
	Simulated  float64
	Error      float64
	Failed     bool
	Trajectory *sim.Trajectory
}

type IDTReport struct {
	Dataset string
	Method  string
	Results *experiment.ResultMatrix
	Cases   []IDTCaseResult
	Summary fitness.Summary
}

// IDT runs every runnable ignition delay case in order. An unknown method
// string is returned before any simulation starts. Engine failures inside
// a case keep the partial trajectory and are scored from it.
func IDT(ctx context.Context, eng sim.Engine, ds *experiment.IDTDataset, opts Options) (*IDTReport, error) {
	method, err := ignition.Select(ds.Method)
	if err != nil {
		return nil, err
	}
	tracked, ok := speciesIndex(eng, ds.Tracked)
	if !ok {
		return nil, fmt.Errorf("tracked species %q not in mechanism", ds.Tracked)
	}

	groups, points := ds.Shape()
	report := &IDTReport{
		Dataset: ds.Name,
		Method:  method.Name,
		Results: experiment.NewResultMatrix(groups, points),
	}
	cases := ds.Cases()
	bar := opts.bar(len(cases), ds.Name)
	defer bar.Finish()

	errs := make([]float64, 0, len(cases))
	unc := make([]float64, 0, len(cases))
	for _, c := range cases {
		d := sim.New(eng)
		d.SetLogger(opts.logger())
		peak := metrics.NewPeakValue(ds.Tracked, tracked)
		final := metrics.NewFinalTemperature()
		d.AddMetric(peak)
		d.AddMetric(final)

		tr, err := d.RunBatch(ctx, c.Conditions, c.Runtime)
		if err != nil {
			return nil, fmt.Errorf("group %d point %d: %w", c.Group, c.Point, err)
		}

		series := tr.Temperature
		if method.Quantity == ignition.Species {
			series = tr.Concentration(ds.Tracked)
		}
		idt := method.Estimate(series, tr.Times)

		res := report.Results
		res.Set(c.Group, c.Point, experiment.FieldIDT, idt)
		res.Set(c.Group, c.Point, experiment.FieldTemperature, c.Conditions.Temperature)
		res.Set(c.Group, c.Point, experiment.FieldPressure, c.Conditions.Pressure)
		res.Set(c.Group, c.Point, experiment.FieldPeakConcentration, tr.Metrics[peak.Name()])
		res.Set(c.Group, c.Point, experiment.FieldFinalTemperature, tr.Metrics[final.Name()])

		cr := IDTCaseResult{
			Case:      c,
			Simulated: idt,
			Error:     fitness.CaseError(idt, c.IDT),
			Failed:    tr.Failed(),
		}
		if opts.KeepTrajectories {
			cr.Trajectory = tr
		}
		report.Cases = append(report.Cases, cr)
		errs = append(errs, cr.Error)
		unc = append(unc, c.Uncertainty)
		bar.Add(1)
	}

	report.Summary, err = fitness.Aggregate(errs, unc, opts.AverageRate)
	if err != nil {
		return nil, err
	}
	return report, nil
}

type PFRCaseResult struct {
	Case      experiment.PFRCase
	Simulated []float64
	Errors    []float64
	Failed    bool
}

type PFRReport struct {
	Dataset string
	Cases   []PFRCaseResult
	Summary fitness.Summary
}

// PFR runs every runnable plug-flow case and scores the time of each
// group's two measured extrema.
func PFR(ctx context.Context, eng sim.Engine, ds *experiment.PFRDataset, opts Options) (*PFRReport, error) {
	report := &PFRReport{Dataset: ds.Name}
	cases := ds.Cases()
	bar := opts.bar(len(cases), ds.Name)
	defer bar.Finish()

	var errs []float64
	for _, c := range cases {
		d := sim.New(eng)
		d.SetLogger(opts.logger())
		tracked := make([]*metrics.ExtremumTime, len(c.Measurements))
		for i, m := range c.Measurements {
			k, ok := speciesIndex(eng, m.Species)
			if !ok {
				return nil, fmt.Errorf("measured species %q not in mechanism", m.Species)
			}
			tracked[i] = metrics.NewExtremumTime(m.Species, k, m.Kind)
			d.AddMetric(tracked[i])
		}

		tr, err := d.RunPlugFlow(ctx, c.Conditions, ds.ResidenceTime, ds.Steps)
		if err != nil {
			return nil, fmt.Errorf("group %d point %d: %w", c.Group, c.Point, err)
		}

		cr := PFRCaseResult{Case: c, Failed: tr.Failed()}
		for i, m := range tracked {
			v := tr.Metrics[m.Name()]
			e := fitness.PFRCaseError(v, c.Truth[i])
			cr.Simulated = append(cr.Simulated, v)
			cr.Errors = append(cr.Errors, e)
			errs = append(errs, e)
		}
		report.Cases = append(report.Cases, cr)
		bar.Add(1)
	}

	var err error
	report.Summary, err = fitness.Aggregate(errs, nil, opts.AverageRate)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func speciesIndex(eng sim.Engine, name string) (int, bool) {
	for i, s := range eng.SpeciesNames() {
		if s == name {
			return i, true
		}
	}
	return -1, false
}
