package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Metadata   RunMetadata `json:"metadata"`
	Times      []float64   `json:"times"`
	MinorSteps []int       `json:"minor_steps"`
	Potentials [][]float64 `json:"potentials"`
}

// Export writes a stored run as one JSON document.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	p, err := s.LoadPotentials(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Metadata:   *meta,
		Times:      p.Times,
		MinorSteps: p.MinorSteps,
		Potentials: p.Values,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
