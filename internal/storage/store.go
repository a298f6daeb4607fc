package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNoCheckpoint = errors.New("storage: no checkpoint")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	Timestamp time.Time          `json:"timestamp"`
	Mechanism string             `json:"mechanism"`
	Datasets  []string           `json:"datasets,omitempty"`
	Targets   []int              `json:"targets,omitempty"`
	Seed      uint64             `json:"seed,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Notes     string             `json:"notes,omitempty"`
}

// Create allocates a run directory and writes its metadata. An empty ID
// gets a fresh UUID.
func (s *Store) Create(meta RunMetadata) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if err := os.MkdirAll(s.runDir(meta.ID), 0755); err != nil {
		return "", err
	}
	if err := s.SaveMetadata(meta); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *Store) SaveMetadata(meta RunMetadata) error {
	f, err := os.Create(filepath.Join(s.runDir(meta.ID), "metadata.json"))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// Path returns a file path inside the run directory.
func (s *Store) Path(runID, name string) string {
	return filepath.Join(s.runDir(runID), name)
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func checkpointName(iteration int) string {
	return fmt.Sprintf("checkpoint_%04d.csv", iteration)
}

// SaveCheckpoint writes one ranked population as index,error,g0..gn rows.
func (s *Store) SaveCheckpoint(runID string, iteration int, population [][]float64, errs []float64) error {
	if len(errs) != len(population) {
		return fmt.Errorf("storage: %d errors for %d individuals", len(errs), len(population))
	}
	header := []string{"index", "error"}
	if len(population) > 0 {
		for k := range population[0] {
			header = append(header, fmt.Sprintf("g%d", k))
		}
	}
	rows := make([][]float64, len(population))
	for i, genes := range population {
		rows[i] = append([]float64{float64(i), errs[i]}, genes...)
	}
	return writeCSV(s.Path(runID, checkpointName(iteration)), header, rows)
}

// LatestCheckpoint returns the highest saved iteration of a run.
func (s *Store) LatestCheckpoint(runID string) (int, error) {
	matches, err := filepath.Glob(s.Path(runID, "checkpoint_*.csv"))
	if err != nil {
		return 0, err
	}
	latest := -1
	for _, m := range matches {
		base := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "checkpoint_"), ".csv")
		if n, err := strconv.Atoi(base); err == nil && n > latest {
			latest = n
		}
	}
	if latest < 0 {
		return 0, fmt.Errorf("%w for run %s", ErrNoCheckpoint, runID)
	}
	return latest, nil
}

// LoadCheckpoint reads a population saved by SaveCheckpoint. A negative
// iteration selects the latest one.
func (s *Store) LoadCheckpoint(runID string, iteration int) ([][]float64, []float64, int, error) {
	if iteration < 0 {
		var err error
		if iteration, err = s.LatestCheckpoint(runID); err != nil {
			return nil, nil, 0, err
		}
	}
	_, rows, err := readCSV(s.Path(runID, checkpointName(iteration)))
	if err != nil {
		return nil, nil, 0, err
	}
	population := make([][]float64, 0, len(rows))
	errs := make([]float64, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			return nil, nil, 0, fmt.Errorf("storage: checkpoint row %d has %d columns", i, len(row))
		}
		errs = append(errs, row[1])
		population = append(population, row[2:])
	}
	return population, errs, iteration, nil
}

// SaveTable writes named columns, one row per sample.
func (s *Store) SaveTable(runID, name string, header []string, rows [][]float64) error {
	return writeCSV(s.Path(runID, name), header, rows)
}

func (s *Store) LoadTable(runID, name string) ([]string, [][]float64, error) {
	return readCSV(s.Path(runID, name))
}

// SaveSensitivities writes one equation,coefficient row per reaction.
func SaveSensitivities(path string, equations []string, coeffs []float64) error {
	if len(equations) != len(coeffs) {
		return fmt.Errorf("storage: %d equations for %d coefficients", len(equations), len(coeffs))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"equation", "sensitivity"}); err != nil {
		return err
	}
	for j, eq := range equations {
		if err := w.Write([]string{eq, strconv.FormatFloat(coeffs[j], 'g', -1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// LoadSensitivities reads a file written by SaveSensitivities.
func LoadSensitivities(path string) ([]string, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("storage: %s is empty", path)
	}
	var equations []string
	var coeffs []float64
	for i, rec := range records[1:] {
		if len(rec) != 2 {
			return nil, nil, fmt.Errorf("storage: %s line %d has %d fields", path, i+2, len(rec))
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: %s line %d: %w", path, i+2, err)
		}
		equations = append(equations, rec[0])
		coeffs = append(coeffs, v)
	}
	return equations, coeffs, nil
}

func writeCSV(path string, header []string, rows [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readCSV(path string) ([]string, [][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	rows := make([][]float64, 0, len(records)-1)
	for i, rec := range records[1:] {
		row := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: %s line %d: %w", path, i+2, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return records[0], rows, nil
}
