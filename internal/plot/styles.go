package plot

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86"))

	Label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("242")).
		Width(18)

	Value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("255")).
		Bold(true)

	Good = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	Warn = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	Bad  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("238")).
		Padding(0, 1)
)

// Field is one labelled line of a summary panel.
type Field struct {
	Label string
	Value string
}

func Summary(title string, fields []Field) string {
	var b strings.Builder
	b.WriteString(Title.Render(title))
	for _, f := range fields {
		b.WriteString("\n" + Label.Render(f.Label) + Value.Render(f.Value))
	}
	return Panel.Render(b.String())
}

// ErrorValue colors a log-error by magnitude: within a factor of 2 is good,
// within a factor of 10 is a warning.
func ErrorValue(e float64) string {
	s := fmt.Sprintf("%+.4f", e)
	switch a := math.Abs(e); {
	case math.IsNaN(e):
		return Bad.Render("failed")
	case a <= math.Log10(2):
		return Good.Render(s)
	case a <= 1:
		return Warn.Render(s)
	default:
		return Bad.Render(s)
	}
}
