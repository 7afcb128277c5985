// Package ingest provides the ingestion ledger, per-file processing states,
// and progress reporting types.
package ingest

import (
	"context"
	"time"
)

// ProcessedFile records that one archive member was fully ingested.
// Its presence in the ledger means the file is skipped on every later run;
// the whole file, not the row, is the unit of idempotence.
type ProcessedFile struct {
	dataset     string
	fileName    string
	rowCount    int64
	errorCount  int64
	vectorized  bool
	completedAt time.Time
}

// NewProcessedFile creates a ledger record for a completed file.
func NewProcessedFile(dataset, fileName string, rowCount, errorCount int64, vectorized bool, completedAt time.Time) ProcessedFile {
	return ProcessedFile{
		dataset:     dataset,
		fileName:    fileName,
		rowCount:    rowCount,
		errorCount:  errorCount,
		vectorized:  vectorized,
		completedAt: completedAt,
	}
}

// Dataset returns the dataset identifier.
func (p ProcessedFile) Dataset() string { return p.dataset }

// FileName returns the archive member name.
func (p ProcessedFile) FileName() string { return p.fileName }

// RowCount returns the number of rows stored from the file.
func (p ProcessedFile) RowCount() int64 { return p.rowCount }

// ErrorCount returns the number of rows skipped due to schema errors.
func (p ProcessedFile) ErrorCount() int64 { return p.errorCount }

// Vectorized reports whether the file's rows were embedded during ingestion
// (false when vectorization was deferred).
func (p ProcessedFile) Vectorized() bool { return p.vectorized }

// CompletedAt returns when the file finished processing.
func (p ProcessedFile) CompletedAt() time.Time { return p.completedAt }

// Ledger is the per-source-file completion record. Only fully processed
// files are recorded; failed files are absent so a rerun retries them.
type Ledger interface {
	// IsComplete reports whether the file was already fully ingested.
	IsComplete(ctx context.Context, dataset, fileName string) (bool, error)

	// MarkComplete records a fully processed file. Recording the same
	// (dataset, fileName) twice is an error.
	MarkComplete(ctx context.Context, record ProcessedFile) error

	// Completed lists the ledger records for a dataset (empty means all).
	Completed(ctx context.Context, dataset string) ([]ProcessedFile, error)
}

// Meta keys recorded by the pipeline and validated at startup.
const (
	MetaSchemaVersion         = "schema_version"
	MetaEmbeddingModel        = "embedding_model"
	MetaVectorDim             = "vector_dim"
	MetaUnvectorizedWatermark = "unvectorized_watermark"
)

// SchemaVersion is the current canonical row schema version.
const SchemaVersion = "1"

// Meta is a small key-value table for configuration recorded at
// index-build time. The embedding model identifier stored here must match
// the provider's identifier at query time; vectors from different models
// are not comparable.
type Meta interface {
	// Get returns the value for key, with ok=false when the key is unset.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores or replaces the value for key.
	Set(ctx context.Context, key, value string) error
}
