package plot

import (
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/kinfit/internal/sim"
)

const (
	asciiHeight = 10
	asciiWidth  = 80
)

func ASCII(data []float64, caption string) string {
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(asciiHeight),
		asciigraph.Width(asciiWidth),
		asciigraph.Caption(caption),
	)
}

// Profiles renders temperature and log10 concentration of each species.
func Profiles(tr *sim.Trajectory, species []string) string {
	var b strings.Builder
	if g := ASCII(tr.Temperature, "T [K]"); g != "" {
		b.WriteString(g + "\n\n")
	}
	for _, name := range species {
		if g := ASCII(LogConcentration(tr, name), "log10 ["+name+"]"); g != "" {
			b.WriteString(g + "\n\n")
		}
	}
	return b.String()
}
