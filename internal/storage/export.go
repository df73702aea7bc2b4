package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	ThermoMode string             `json:"thermo_mode"`
	Frames     int                `json:"frames"`
	Columns    []string           `json:"columns"`
	Times      []float64          `json:"times"`
	Rows       [][]float64        `json:"rows"`
	Metrics    map[string]float64 `json:"metrics"`
}

// ExportJSON writes a saved run as a single JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	trace, columns, err := s.LoadTrace(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		ID:         meta.ID,
		Preset:     meta.Preset,
		Dt:         meta.Dt,
		Duration:   meta.Duration,
		ThermoMode: meta.ThermoMode,
		Frames:     len(trace.Times),
		Columns:    columns,
		Times:      trace.Times,
		Rows:       trace.Rows,
		Metrics:    meta.Metrics,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportCSV copies the raw states file of a saved run.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	file, err := os.Open(s.statesPath(runID))
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(w, file)
	return err
}
