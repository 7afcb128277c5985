package ingest

// FileState tracks a source file through the ingestion state machine.
// Failed is reachable from any state; one bad file never aborts the run.
type FileState string

// FileState values.
const (
	StatePending         FileState = "pending"
	StateSkipped         FileState = "skipped"
	StateStreaming       FileState = "streaming"
	StateBatchCommitting FileState = "batch_committing"
	StateVectorAppending FileState = "vector_appending"
	StateCompleted       FileState = "completed"
	StateFailed          FileState = "failed"
)

// Terminal reports whether the state is final.
func (s FileState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// FileReport summarizes one file's outcome for the end-of-run report.
type FileReport struct {
	fileName   string
	state      FileState
	rowCount   int64
	errorCount int64
	failure    string
}

// NewFileReport creates a FileReport.
func NewFileReport(fileName string, state FileState, rowCount, errorCount int64, failure string) FileReport {
	return FileReport{
		fileName:   fileName,
		state:      state,
		rowCount:   rowCount,
		errorCount: errorCount,
		failure:    failure,
	}
}

// FileName returns the archive member name.
func (r FileReport) FileName() string { return r.fileName }

// State returns the file's terminal state.
func (r FileReport) State() FileState { return r.state }

// RowCount returns the number of rows stored.
func (r FileReport) RowCount() int64 { return r.rowCount }

// ErrorCount returns the number of rows skipped due to schema errors.
func (r FileReport) ErrorCount() int64 { return r.errorCount }

// Failure returns the failure message for failed files, empty otherwise.
func (r FileReport) Failure() string { return r.failure }

// RunReport aggregates per-file outcomes for one ingestion run.
type RunReport struct {
	files []FileReport
}

// NewRunReport creates a RunReport.
func NewRunReport(files []FileReport) RunReport {
	copied := make([]FileReport, len(files))
	copy(copied, files)
	return RunReport{files: copied}
}

// Files returns the per-file reports.
func (r RunReport) Files() []FileReport {
	copied := make([]FileReport, len(r.files))
	copy(copied, r.files)
	return copied
}

// Completed returns the number of files that finished successfully.
func (r RunReport) Completed() int {
	n := 0
	for _, f := range r.files {
		if f.State() == StateCompleted {
			n++
		}
	}
	return n
}

// Failed returns the number of files that failed.
func (r RunReport) Failed() int {
	n := 0
	for _, f := range r.files {
		if f.State() == StateFailed {
			n++
		}
	}
	return n
}

// Skipped returns the number of files skipped via the ledger.
func (r RunReport) Skipped() int {
	n := 0
	for _, f := range r.files {
		if f.State() == StateSkipped {
			n++
		}
	}
	return n
}

// Rows returns the total number of rows stored across all files.
func (r RunReport) Rows() int64 {
	var n int64
	for _, f := range r.files {
		n += f.RowCount()
	}
	return n
}

// RowErrors returns the total number of rows skipped due to schema errors.
func (r RunReport) RowErrors() int64 {
	var n int64
	for _, f := range r.files {
		n += f.ErrorCount()
	}
	return n
}
