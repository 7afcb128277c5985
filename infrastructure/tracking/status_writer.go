// Package tracking surfaces ingestion progress to external observers.
package tracking

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/luminate-data/leadsearch/domain/ingest"
)

// DefaultWriteInterval is the minimum delay between status file writes.
const DefaultWriteInterval = 500 * time.Millisecond

// statusDocument is the on-disk status shape. External dashboards poll
// this file, so field names are part of the interface.
type statusDocument struct {
	Dataset          string  `json:"dataset"`
	CurrentFile      string  `json:"current_file"`
	CurrentState     string  `json:"current_state"`
	RowsProcessed    int64   `json:"rows_processed"`
	RowsSkipped      int64   `json:"rows_skipped"`
	FilesCompleted   int     `json:"files_completed"`
	FilesTotal       int     `json:"files_total"`
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	UpdatedAt        string  `json:"updated_at"`
}

// StatusWriter writes progress snapshots to a JSON file. Writes are
// throttled and atomic (temp file + rename) so pollers never read a
// half-written document. Write failures are logged, never propagated;
// status reporting must not fail an ingestion run.
type StatusWriter struct {
	path     string
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	lastWrite time.Time
}

var _ ingest.ProgressSink = (*StatusWriter)(nil)

// StatusWriterOption configures a StatusWriter.
type StatusWriterOption func(*StatusWriter)

// WithWriteInterval overrides the throttle interval.
func WithWriteInterval(d time.Duration) StatusWriterOption {
	return func(w *StatusWriter) { w.interval = d }
}

// NewStatusWriter creates a StatusWriter targeting the given path.
func NewStatusWriter(path string, logger *slog.Logger, opts ...StatusWriterOption) *StatusWriter {
	if logger == nil {
		logger = slog.Default()
	}
	w := &StatusWriter{
		path:     path,
		interval: DefaultWriteInterval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Update writes the snapshot if the throttle interval has passed since
// the previous write, or unconditionally when force is set.
func (w *StatusWriter) Update(p ingest.Progress, force bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if !force && now.Sub(w.lastWrite) < w.interval {
		return
	}

	doc := statusDocument{
		Dataset:          p.Dataset(),
		CurrentFile:      p.CurrentFile(),
		CurrentState:     string(p.State()),
		RowsProcessed:    p.RowsProcessed(),
		RowsSkipped:      p.RowsSkipped(),
		FilesCompleted:   p.FilesCompleted(),
		FilesTotal:       p.FilesTotal(),
		ElapsedSeconds:   p.Elapsed().Seconds(),
		RemainingSeconds: p.Remaining().Seconds(),
		UpdatedAt:        p.UpdatedAt().UTC().Format(time.RFC3339),
	}

	if err := w.write(doc); err != nil {
		w.logger.Warn("failed to write status file",
			slog.String("path", w.path),
			slog.String("error", err.Error()),
		)
		return
	}
	w.lastWrite = now
}

func (w *StatusWriter) write(doc statusDocument) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.path), filepath.Base(w.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), w.path)
}

// ReadStatus loads the last written status document. Used by the status
// command; returns os.ErrNotExist when no run has written one yet.
func ReadStatus(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
