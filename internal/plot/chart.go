package plot

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/san-kum/kinfit/internal/sim"
)

// ConcentrationFloor replaces non-positive concentrations before taking log10.
const ConcentrationFloor = 1e-30

var ErrTooFewSamples = errors.New("plot: trajectory needs at least two samples")

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	{R: 255, G: 165, B: 0, A: 255},
	chart.ColorBlack,
}

// LogConcentration returns log10 of the species concentration, floored.
func LogConcentration(tr *sim.Trajectory, species string) []float64 {
	c := tr.Concentration(species)
	if c == nil {
		return nil
	}
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = math.Log10(math.Max(v, ConcentrationFloor))
	}
	return out
}

// Concentrations renders log10 concentration against time for each species
// as a PNG. A positive idt adds a vertical marker at the ignition time.
func Concentrations(w io.Writer, tr *sim.Trajectory, species []string, idt float64) error {
	return render(w, chart.PNG, tr, species, idt)
}

func render(w io.Writer, format chart.RendererProvider, tr *sim.Trajectory, species []string, idt float64) error {
	if tr.Len() < 2 || tr.Times[tr.Len()-1] <= tr.Times[0] {
		return ErrTooFewSamples
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	var series []chart.Series
	for i, name := range species {
		y := LogConcentration(tr, name)
		if y == nil {
			return fmt.Errorf("plot: unknown species %q", name)
		}
		for _, v := range y {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: tr.Times,
			YValues: y,
			Style:   chart.Style{StrokeColor: palette[i%len(palette)], StrokeWidth: 2.0},
		})
	}
	if len(series) == 0 {
		return errors.New("plot: no species to plot")
	}
	lo, hi = lo-0.5, hi+0.5

	if idt > 0 {
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("IDT %.3g s", idt),
			XValues: []float64{idt, idt},
			YValues: []float64{lo, hi},
			Style: chart.Style{
				StrokeColor:     chart.ColorAlternateGray,
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 5.0},
			},
		})
	}

	graph := chart.Chart{
		Width:  800,
		Height: 480,
		XAxis: chart.XAxis{
			Name:  "t [s]",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.2g", v.(float64))
			},
		},
		YAxis: chart.YAxis{
			Name:  "log10 C [kmol/m3]",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(format, w)
}

// SaveConcentrations writes the concentration chart, as SVG when path ends
// in .svg and PNG otherwise.
func SaveConcentrations(path string, tr *sim.Trajectory, species []string, idt float64) error {
	format := chart.PNG
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		format = chart.SVG
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f, format, tr, species, idt); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
