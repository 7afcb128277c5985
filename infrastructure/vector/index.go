// Package vector persists lead embeddings in an HNSW graph on local disk.
package vector

import (
	"container/heap"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hupe1980/vecgo/hnsw"
	"github.com/luminate-data/leadsearch/domain/ingest"
	"github.com/luminate-data/leadsearch/domain/search"
)

const (
	graphFileName = "vectors.gob"
	idsFileName   = "ids.gob"
	metaFileName  = "meta.json"
)

// ErrDuplicateID indicates an id was added to the index twice.
var ErrDuplicateID = errors.New("vector id already indexed")

// ErrDimensionMismatch indicates a vector of the wrong width.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// indexMeta is the sidecar describing the persisted graph. Model and
// dimension are validated on open so an index built under one embedding
// model is never searched with another.
type indexMeta struct {
	ModelID   string `json:"model_id"`
	Dimension int    `json:"dimension"`
	Count     int    `json:"count"`
}

// Index is an append-only ANN index over lead embeddings. Internal graph
// node ids are assigned sequentially on insert; the ids slice maps them
// back to lead ids by insertion order. Safe for one writer and many
// readers.
type Index struct {
	dir     string
	modelID string
	dim     int
	logger  *slog.Logger

	mu    sync.RWMutex
	graph *hnsw.HNSW
	ids   []int64
	seen  map[int64]struct{}
}

var _ search.VectorIndex = (*Index)(nil)

// Open loads the index from dir, or creates an empty one when no
// persisted files exist yet. A persisted index built with a different
// model or dimension is a configuration error, not data to migrate.
func Open(dir, modelID string, dim int, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dim <= 0 {
		return nil, errors.Join(ingest.ErrConfiguration, fmt.Errorf("invalid vector dimension %d", dim))
	}

	idx := &Index{
		dir:     dir,
		modelID: modelID,
		dim:     dim,
		logger:  logger,
		graph:   hnsw.New(dim),
		ids:     nil,
		seen:    map[int64]struct{}{},
	}

	metaPath := filepath.Join(dir, metaFileName)
	raw, err := os.ReadFile(metaPath)
	if errors.Is(err, os.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return nil, err
	}

	var meta indexMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("corrupt index metadata %s: %w", metaPath, err)
	}
	if meta.ModelID != modelID {
		return nil, errors.Join(ingest.ErrConfiguration,
			fmt.Errorf("index built with embedding model %q, configured model is %q", meta.ModelID, modelID))
	}
	if meta.Dimension != dim {
		return nil, errors.Join(ingest.ErrConfiguration,
			fmt.Errorf("index dimension %d, configured dimension %d", meta.Dimension, dim))
	}

	if err := idx.load(); err != nil {
		return nil, err
	}
	if len(idx.ids) != meta.Count {
		return nil, fmt.Errorf("index holds %d vectors, metadata says %d", len(idx.ids), meta.Count)
	}

	logger.Debug("opened vector index", slog.String("dir", dir), slog.Int("count", meta.Count))
	return idx, nil
}

func (x *Index) load() error {
	if err := decodeGobFile(filepath.Join(x.dir, graphFileName), x.graph); err != nil {
		return err
	}
	if err := decodeGobFile(filepath.Join(x.dir, idsFileName), &x.ids); err != nil {
		return err
	}
	x.seen = make(map[int64]struct{}, len(x.ids))
	for _, id := range x.ids {
		x.seen[id] = struct{}{}
	}
	return nil
}

// Add appends vectors under the given lead ids.
func (x *Index) Add(ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("id count %d does not match vector count %d", len(ids), len(vectors))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for i, id := range ids {
		if _, ok := x.seen[id]; ok {
			return errors.Join(ErrDuplicateID, fmt.Errorf("lead id %d", id))
		}
		if len(vectors[i]) != x.dim {
			return errors.Join(ErrDimensionMismatch,
				fmt.Errorf("lead id %d: got %d, want %d", id, len(vectors[i]), x.dim))
		}
		if _, err := x.graph.Insert(vectors[i]); err != nil {
			return err
		}
		x.ids = append(x.ids, id)
		x.seen[id] = struct{}{}
	}
	return nil
}

// Search returns up to k candidates ordered by ascending distance.
func (x *Index) Search(vector []float32, k int) ([]search.Candidate, error) {
	if len(vector) != x.dim {
		return nil, errors.Join(ErrDimensionMismatch,
			fmt.Errorf("query vector: got %d, want %d", len(vector), x.dim))
	}
	if k <= 0 {
		return []search.Candidate{}, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.ids) == 0 {
		return []search.Candidate{}, nil
	}

	// Node 0 is the graph's zero-vector entry sentinel and can rank
	// inside the top k on small indexes, so fetch one extra slot.
	fetch := k + 1
	efSearch := hnsw.DefaultOptions.EF
	if fetch > efSearch {
		efSearch = fetch
	}

	queue, err := x.graph.KNNSearch(vector, fetch, efSearch)
	if err != nil {
		return nil, err
	}

	results := make([]search.Candidate, 0, queue.Len())
	for queue.Len() > 0 {
		item, _ := heap.Pop(queue).(*hnsw.PriorityQueueItem)
		if item == nil || item.Node == 0 {
			// The entry sentinel, never a lead.
			continue
		}
		pos := int(item.Node) - 1
		if pos < 0 || pos >= len(x.ids) {
			continue
		}
		results = append(results, search.NewCandidate(x.ids[pos], float64(item.Distance)))
	}

	// The queue pops worst first.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score() != results[j].Score() {
			return results[i].Score() < results[j].Score()
		}
		return results[i].ID() < results[j].ID()
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// Flush writes the graph, id mapping and metadata to disk. Each file is
// written to a temporary sibling and renamed, so readers of the
// directory never observe a partial write.
func (x *Index) Flush() error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if err := os.MkdirAll(x.dir, 0o755); err != nil {
		return err
	}

	if err := encodeGobFile(filepath.Join(x.dir, graphFileName), x.graph); err != nil {
		return err
	}
	if err := encodeGobFile(filepath.Join(x.dir, idsFileName), x.ids); err != nil {
		return err
	}

	meta := indexMeta{ModelID: x.modelID, Dimension: x.dim, Count: len(x.ids)}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(x.dir, metaFileName), raw)
}

// Count returns the number of indexed vectors.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.ids)
}

func encodeGobFile(path string, v any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := gob.NewEncoder(tmp).Encode(v); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func decodeGobFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return gob.NewDecoder(f).Decode(v)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
