package recorders

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/planktosim/planktosim/internal/plankton"
)

// csvHeader is the column layout of the tabular export. The energy
// column is empty for phytoplankton.
var csvHeader = []string{"step", "agent_id", "species", "x", "y", "energy"}

// CSVRecorder appends one row per live agent per step to a CSV file —
// the tabular export collaborator that population-over-time analysis
// reads. It never reaches back into the engine; it only sees snapshots.
type CSVRecorder struct {
	id   string
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

// NewCSVRecorder creates (or truncates) the file at path and writes the
// header row.
func NewCSVRecorder(id, path string) (*CSVRecorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating csv output: %w", err)
	}

	w := csv.NewWriter(file)
	if err := w.Write(csvHeader); err != nil {
		file.Close()
		return nil, fmt.Errorf("writing csv header: %w", err)
	}

	return &CSVRecorder{id: id, file: file, w: w}, nil
}

// ID returns the recorder ID
func (r *CSVRecorder) ID() string {
	return r.id
}

// Type returns the recorder type
func (r *CSVRecorder) Type() string {
	return "csv"
}

// Record appends the snapshot's agents as rows and flushes.
func (r *CSVRecorder) Record(ctx context.Context, snap plankton.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range snap.Agents {
		energy := ""
		if rec.Energy != nil {
			energy = strconv.Itoa(*rec.Energy)
		}
		row := []string{
			strconv.Itoa(snap.Step),
			strconv.FormatInt(int64(rec.ID), 10),
			string(rec.Species),
			strconv.FormatFloat(rec.X, 'g', -1, 64),
			strconv.FormatFloat(rec.Y, 'g', -1, 64),
			energy,
		}
		if err := r.w.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	r.w.Flush()
	return r.w.Error()
}

// Close flushes and closes the underlying file.
func (r *CSVRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}
