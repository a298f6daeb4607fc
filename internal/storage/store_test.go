package storage

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/kinfit/internal/sim"
)

func TestStoreCreateLoadList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	older, err := st.Create(RunMetadata{Kind: "evaluate", Mechanism: "toy", Timestamp: time.Now().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := uuid.Parse(older); err != nil {
		t.Errorf("run id %q is not a uuid: %v", older, err)
	}
	newer, err := st.Create(RunMetadata{Kind: "optimize", Mechanism: "toy", Targets: []int{0, 2}})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	meta, err := st.Load(newer)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Kind != "optimize" || !reflect.DeepEqual(meta.Targets, []int{0, 2}) {
		t.Errorf("unexpected metadata %+v", meta)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != newer || runs[1].ID != older {
		t.Errorf("List() order = %v", runs)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("List() = %v, %v", runs, err)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	id, err := st.Create(RunMetadata{Kind: "optimize"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := st.LatestCheckpoint(id); !errors.Is(err, ErrNoCheckpoint) {
		t.Errorf("expected ErrNoCheckpoint, got %v", err)
	}

	pop := [][]float64{{0.1, 0.2}, {0.75, 1}}
	if err := st.SaveCheckpoint(id, 0, pop, []float64{0.5, 0.25}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.SaveCheckpoint(id, 3, pop[:1], []float64{0.125}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, errs, iter, err := st.LoadCheckpoint(id, -1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if iter != 3 || len(got) != 1 || errs[0] != 0.125 {
		t.Errorf("latest checkpoint = %d %v %v", iter, got, errs)
	}

	got, errs, _, err = st.LoadCheckpoint(id, 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, pop) || !reflect.DeepEqual(errs, []float64{0.5, 0.25}) {
		t.Errorf("checkpoint 0 = %v %v", got, errs)
	}

	if err := st.SaveCheckpoint(id, 1, pop, []float64{1}); err == nil {
		t.Error("expected error for mismatched errors")
	}
}

func TestSaveTrajectory(t *testing.T) {
	st := New(t.TempDir())
	id, _ := st.Create(RunMetadata{Kind: "plot"})

	tr := &sim.Trajectory{
		Species:     []string{"A", "B"},
		Times:       []float64{0, 1e-4},
		Temperature: []float64{1200, 1250},
		Pressure:    []float64{101325, 101325},
		Volume:      []float64{1, 1.04},
		X:           [][]float64{{1, 0}, {0.9, 0.1}},
	}
	if err := st.SaveTrajectory(id, "case.csv", tr); err != nil {
		t.Fatalf("save: %v", err)
	}

	header, rows, err := st.LoadTable(id, "case.csv")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(header, []string{"time", "T", "P", "V", "X_A", "X_B"}) {
		t.Errorf("header = %v", header)
	}
	if len(rows) != 2 || rows[1][1] != 1250 || rows[1][5] != 0.1 {
		t.Errorf("rows = %v", rows)
	}
}

func TestSensitivitiesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sens.csv")
	eqs := []string{"F + OX => OH + P", "OH + F => 2 OH"}
	coeffs := []float64{1.25, math.Pi}

	if err := SaveSensitivities(path, eqs, coeffs); err != nil {
		t.Fatalf("save: %v", err)
	}
	gotEqs, gotCoeffs, err := LoadSensitivities(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(gotEqs, eqs) || !reflect.DeepEqual(gotCoeffs, coeffs) {
		t.Errorf("round trip = %v %v", gotEqs, gotCoeffs)
	}

	if err := os.WriteFile(path, []byte("equation,sensitivity\nA => B,abc\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadSensitivities(path); err == nil {
		t.Error("expected parse error")
	}
}
