package sim

import (
	"testing"

	"github.com/san-kum/kinfit/internal/kinetics"
)

func TestTrajectoryColumns(t *testing.T) {
	tr := newTrajectory([]string{"A", "B"})
	tr.record(kinetics.Snapshot{Time: 0, MoleFractions: []float64{1, 0}, Concentration: []float64{2, 0}}, false)
	tr.record(kinetics.Snapshot{Time: 1, MoleFractions: []float64{0.25, 0.75}, Concentration: []float64{0.5, 1.5}}, false)

	tests := []struct {
		name string
		got  []float64
		want []float64
	}{
		{"mole fraction A", tr.MoleFraction("A"), []float64{1, 0.25}},
		{"mole fraction B", tr.MoleFraction("B"), []float64{0, 0.75}},
		{"concentration B", tr.Concentration("B"), []float64{0, 1.5}},
		{"unknown", tr.MoleFraction("C"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.got) != len(tt.want) {
				t.Fatalf("got %v, want %v", tt.got, tt.want)
			}
			for i := range tt.want {
				if tt.got[i] != tt.want[i] {
					t.Errorf("[%d] = %g, want %g", i, tt.got[i], tt.want[i])
				}
			}
		})
	}
}
