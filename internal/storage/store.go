package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/barmaleii77-hub/pneumostab/internal/worker"
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

func (s *Store) statesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, "states.csv")
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	ThermoMode string             `json:"thermo_mode"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Trace is the recorded time history of a run, one row per frame.
type Trace struct {
	Times []float64
	Rows  [][]float64
}

// Append folds one snapshot into the trace in header column order.
func (t *Trace) Append(s *worker.StateSnapshot) {
	row := []float64{
		s.Body.Heave, s.Body.Roll, s.Body.Pitch,
		s.Body.HeaveVel, s.Body.RollVel, s.Body.PitchVel,
		s.Receiver.Pressure,
	}
	for _, c := range s.Corners {
		row = append(row, c.Head.Pressure, c.Stroke, c.Force)
	}
	t.Times = append(t.Times, s.Time)
	t.Rows = append(t.Rows, row)
}

// Header lists the state columns after the leading time column.
func (t *Trace) Header() []string {
	h := []string{
		"heave", "roll", "pitch",
		"heave_vel", "roll_vel", "pitch_vel",
		"recv_pressure",
	}
	for _, name := range []string{"fl", "fr", "rl", "rr"} {
		h = append(h,
			fmt.Sprintf("%s_head_p", name),
			fmt.Sprintf("%s_stroke", name),
			fmt.Sprintf("%s_force", name),
		)
	}
	return h
}

func (s *Store) Save(preset, thermoMode string, dt, duration float64, metrics map[string]float64, trace *Trace) (string, error) {
	runID := fmt.Sprintf("%s_%d", preset, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Preset:     preset,
		Timestamp:  time.Now(),
		Dt:         dt,
		Duration:   duration,
		ThermoMode: thermoMode,
		Metrics:    metrics,
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "states.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := append([]string{"time"}, trace.Header()...)
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range trace.Rows {
		row := []string{strconv.FormatFloat(trace.Times[i], 'f', 6, 64)}
		for _, val := range trace.Rows[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

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

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadTrace(runID string) (*Trace, []string, error) {
	file, err := os.Open(s.statesPath(runID))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	trace := &Trace{}
	if len(records) < 2 {
		return trace, nil, nil
	}
	header := records[0][1:]

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}

		row := make([]float64, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			row = append(row, val)
		}
		trace.Times = append(trace.Times, t)
		trace.Rows = append(trace.Rows, row)
	}

	return trace, header, nil
}
