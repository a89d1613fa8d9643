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

	"github.com/san-kum/powerlink/internal/config"
	"github.com/san-kum/powerlink/internal/network"
)

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
	ID                   string              `json:"id"`
	Scenario             string              `json:"scenario"`
	Timestamp            time.Time           `json:"timestamp"`
	Dt                   float64             `json:"dt"`
	Duration             float64             `json:"duration"`
	MaxMinorSteps        int                 `json:"max_minor_steps"`
	ConvergenceTolerance float64             `json:"convergence_tolerance"`
	Steps                int                 `json:"steps"`
	Nodes                []string            `json:"nodes"`
	Trips                []network.TripEvent `json:"trips"`
	Errors               []string            `json:"errors,omitempty"`
	Metrics              map[string]float64  `json:"metrics"`
}

// Save writes metadata.json and potentials.csv under a new run directory
// and returns the run ID.
func (s *Store) Save(scenario string, solver config.SolverConfig, result *network.Result) (string, error) {
	runID, runDir, err := s.newRunDir(scenario)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:                   runID,
		Scenario:             scenario,
		Timestamp:            time.Now(),
		Dt:                   solver.Dt,
		Duration:             solver.Duration,
		MaxMinorSteps:        solver.MaxMinorSteps,
		ConvergenceTolerance: solver.ConvergenceTolerance,
		Steps:                result.StepsTaken,
		Nodes:                result.Nodes,
		Trips:                result.Trips,
		Metrics:              result.Metrics,
	}
	for _, e := range result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "potentials.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)

	header := append([]string{"time", "minor_steps"}, result.Nodes...)
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range result.Potentials {
		minor := 0
		if i > 0 && i-1 < len(result.MinorSteps) {
			minor = result.MinorSteps[i-1]
		}
		row := []string{
			strconv.FormatFloat(result.Times[i], 'f', 6, 64),
			strconv.Itoa(minor),
		}
		for _, val := range result.Potentials[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	return runID, w.Error()
}

// newRunDir creates a fresh run directory named after the scenario and
// the current time.
func (s *Store) newRunDir(scenario string) (string, string, error) {
	base := fmt.Sprintf("%s_%d", strings.ReplaceAll(scenario, "/", "-"), time.Now().UnixMilli())
	for n := 0; ; n++ {
		runID := base
		if n > 0 {
			runID = fmt.Sprintf("%s_%d", base, n)
		}
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
	}
}

// List returns every readable run, oldest first.
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

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Potentials is a run's node-potential history as stored on disk.
type Potentials struct {
	Nodes      []string
	Times      []float64
	MinorSteps []int
	Values     [][]float64
}

// Series returns the history of one node, or nil if the node is unknown.
func (p *Potentials) Series(node string) []float64 {
	col := -1
	for i, n := range p.Nodes {
		if n == node {
			col = i
		}
	}
	if col < 0 {
		return nil
	}
	out := make([]float64, 0, len(p.Values))
	for _, row := range p.Values {
		if col < len(row) {
			out = append(out, row[col])
		}
	}
	return out
}

func (s *Store) LoadPotentials(runID string) (*Potentials, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "potentials.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	p := &Potentials{}
	if len(records) == 0 {
		return p, nil
	}
	if len(records[0]) < 2 {
		return nil, fmt.Errorf("malformed header in run %s", runID)
	}
	p.Nodes = records[0][2:]

	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		minor, err := strconv.Atoi(record[1])
		if err != nil {
			continue
		}

		row := make([]float64, 0, len(record)-2)
		for _, field := range record[2:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			row = append(row, val)
		}
		p.Times = append(p.Times, t)
		p.MinorSteps = append(p.MinorSteps, minor)
		p.Values = append(p.Values, row)
	}

	return p, nil
}
