package lead

import "context"

// Store is the durable home for leads. Implementations must insert rows
// and their lexical-index entries in one transaction, assign ids in
// insertion order, and never expose a half-written batch.
type Store interface {
	// InsertBatch stores the leads and returns their assigned ids in
	// insertion order.
	InsertBatch(ctx context.Context, leads []Lead) ([]int64, error)

	// FetchByIDs hydrates leads preserving the caller-supplied id order.
	// Ids with no matching row are silently skipped.
	FetchByIDs(ctx context.Context, ids []int64) ([]Lead, error)

	// FetchAfter returns up to limit leads with id > afterID in ascending
	// id order. Used by the deferred vectorization pass.
	FetchAfter(ctx context.Context, afterID int64, limit int) ([]Lead, error)

	// Count returns the number of stored leads, optionally scoped to a
	// dataset (empty means all).
	Count(ctx context.Context, dataset string) (int64, error)

	// Datasets returns the distinct dataset identifiers with their row counts.
	Datasets(ctx context.Context) (map[string]int64, error)
}
