package ingest

import "time"

// Progress is a point-in-time snapshot of an ingestion run, written
// periodically for external UIs to poll. It is write-only from the
// pipeline's perspective.
type Progress struct {
	dataset        string
	currentFile    string
	state          FileState
	rowsProcessed  int64
	rowsSkipped    int64
	filesCompleted int
	filesTotal     int
	elapsed        time.Duration
	remaining      time.Duration
	updatedAt      time.Time
}

// NewProgress creates a Progress snapshot.
func NewProgress(
	dataset, currentFile string,
	state FileState,
	rowsProcessed, rowsSkipped int64,
	filesCompleted, filesTotal int,
	elapsed, remaining time.Duration,
) Progress {
	return Progress{
		dataset:        dataset,
		currentFile:    currentFile,
		state:          state,
		rowsProcessed:  rowsProcessed,
		rowsSkipped:    rowsSkipped,
		filesCompleted: filesCompleted,
		filesTotal:     filesTotal,
		elapsed:        elapsed,
		remaining:      remaining,
		updatedAt:      time.Now(),
	}
}

// Dataset returns the dataset being ingested.
func (p Progress) Dataset() string { return p.dataset }

// CurrentFile returns the archive member being streamed, empty between files.
func (p Progress) CurrentFile() string { return p.currentFile }

// State returns the current file's position in the ingestion state machine.
func (p Progress) State() FileState { return p.state }

// RowsProcessed returns the rows stored so far in this run.
func (p Progress) RowsProcessed() int64 { return p.rowsProcessed }

// RowsSkipped returns the rows dropped by schema errors so far.
func (p Progress) RowsSkipped() int64 { return p.rowsSkipped }

// FilesCompleted returns the number of files finished this run.
func (p Progress) FilesCompleted() int { return p.filesCompleted }

// FilesTotal returns the number of files selected from the archive.
func (p Progress) FilesTotal() int { return p.filesTotal }

// Elapsed returns the wall time since the run started.
func (p Progress) Elapsed() time.Duration { return p.elapsed }

// Remaining returns the estimated remaining time, zero when unknown.
func (p Progress) Remaining() time.Duration { return p.remaining }

// UpdatedAt returns when the snapshot was taken.
func (p Progress) UpdatedAt() time.Time { return p.updatedAt }

// ProgressSink consumes progress snapshots. Implementations decide how to
// surface them (status file, log line).
type ProgressSink interface {
	// Update records a snapshot. Implementations may throttle writes;
	// force bypasses the throttle for run boundaries.
	Update(p Progress, force bool)
}
