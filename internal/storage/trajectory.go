package storage

import (
	"github.com/san-kum/kinfit/internal/sim"
)

// TrajectoryHeader is time,T,P,V followed by one X_<species> column each.
func TrajectoryHeader(species []string) []string {
	header := []string{"time", "T", "P", "V"}
	for _, name := range species {
		header = append(header, "X_"+name)
	}
	return header
}

func (s *Store) SaveTrajectory(runID, name string, tr *sim.Trajectory) error {
	rows := make([][]float64, tr.Len())
	for i := range rows {
		row := []float64{tr.Times[i], tr.Temperature[i], tr.Pressure[i], tr.Volume[i]}
		rows[i] = append(row, tr.X[i]...)
	}
	return s.SaveTable(runID, name, TrajectoryHeader(tr.Species), rows)
}
