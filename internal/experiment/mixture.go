package experiment

import (
	"strconv"
	"strings"

	"github.com/san-kum/kinfit/internal/kinetics"
)

// MixtureString renders species and mole fractions as "F:0.1, OX:0.2".
// Zero entries are skipped, order is preserved.
func MixtureString(species []string, fractions []float64) string {
	var sb strings.Builder
	for i, name := range species {
		if i >= len(fractions) || fractions[i] == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(name)
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(fractions[i], 'g', -1, 64))
	}
	return sb.String()
}

func Conditions(species []string, T, P float64, fractions []float64) kinetics.Conditions {
	return kinetics.Conditions{
		Temperature: T,
		Pressure:    P,
		Mixture:     MixtureString(species, fractions),
	}
}
