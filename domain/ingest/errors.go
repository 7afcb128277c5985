package ingest

import "errors"

// Error taxonomy for the ingestion pipeline. Row-level schema errors are
// recovered locally (see lead.SchemaError); these sentinels classify
// everything above row level.
var (
	// ErrStoreTransaction indicates a batch commit failed. The batch is
	// retried from the same input offset a bounded number of times before
	// the file is marked failed.
	ErrStoreTransaction = errors.New("store transaction failed")

	// ErrVectorIndex indicates a vector append failed mid-run. The append
	// is retried; on repeated failure the file's vector stage is left
	// incomplete and surfaced for a manual vectorize pass.
	ErrVectorIndex = errors.New("vector index append failed")

	// ErrConfiguration indicates mismatched or missing configuration
	// (embedding model identifier, vector dimension). Fatal at startup:
	// proceeding would silently corrupt search relevance.
	ErrConfiguration = errors.New("configuration error")

	// ErrNoMembers indicates no archive member matched the file pattern.
	ErrNoMembers = errors.New("no archive members match pattern")
)
