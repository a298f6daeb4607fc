package experiment

import "math"

// Field indexes the per-case values held by a ResultMatrix.
type Field int

const (
	FieldIDT Field = iota
	FieldTemperature
	FieldPressure
	FieldPeakConcentration
	FieldFinalTemperature
	numFields
)

func (f Field) String() string {
	switch f {
	case FieldIDT:
		return "idt"
	case FieldTemperature:
		return "temperature"
	case FieldPressure:
		return "pressure"
	case FieldPeakConcentration:
		return "peak_concentration"
	case FieldFinalTemperature:
		return "final_temperature"
	}
	return "unknown"
}

// ResultMatrix is a group x point x field table filled as cases complete.
// Cases that never ran stay NaN.
type ResultMatrix struct {
	groups, points int
	data           []float64
}

func NewResultMatrix(groups, points int) *ResultMatrix {
	data := make([]float64, groups*points*int(numFields))
	for i := range data {
		data[i] = math.NaN()
	}
	return &ResultMatrix{groups: groups, points: points, data: data}
}

func (m *ResultMatrix) Shape() (groups, points, fields int) {
	return m.groups, m.points, int(numFields)
}

func (m *ResultMatrix) offset(g, p int, f Field) int {
	if g < 0 || g >= m.groups || p < 0 || p >= m.points || f < 0 || f >= numFields {
		panic("experiment: result matrix index out of range")
	}
	return (g*m.points+p)*int(numFields) + int(f)
}

func (m *ResultMatrix) Set(g, p int, f Field, v float64) {
	m.data[m.offset(g, p, f)] = v
}

func (m *ResultMatrix) Get(g, p int, f Field) float64 {
	return m.data[m.offset(g, p, f)]
}

// Row returns a copy of every field for one case.
func (m *ResultMatrix) Row(g, p int) []float64 {
	start := m.offset(g, p, 0)
	return append([]float64(nil), m.data[start:start+int(numFields)]...)
}
