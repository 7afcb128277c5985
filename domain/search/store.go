package search

import "context"

// Lexical is ranked keyword search over the full-text index. Results are
// ordered by descending relevance; scores are the index's native ranking
// (BM25-style), positive, higher is better.
type Lexical interface {
	Search(ctx context.Context, query string, datasets []string, limit int) ([]Candidate, error)
}

// VectorIndex is the append-only contract over the ANN library. The ids
// present in the index are always a subset of ids present in the store:
// vectors are added only after the corresponding rows are durably stored.
type VectorIndex interface {
	// Add appends vectors under the given lead ids. Re-adding a present
	// id is an error.
	Add(ids []int64, vectors [][]float32) error

	// Search returns up to k (id, distance) candidates ordered by
	// ascending distance.
	Search(vector []float32, k int) ([]Candidate, error)

	// Flush durably persists the index. A crash loses at most the vectors
	// appended since the last flush.
	Flush() error

	// Count returns the number of indexed vectors.
	Count() int
}

// Embedder turns texts into fixed-dimension vectors. Determinism is
// assumed per model version only; the model identifier is recorded in the
// meta table at first use and validated on every later open.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ModelID() string
	Dimension() int
}
