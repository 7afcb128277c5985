package service_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luminate-data/leadsearch/infrastructure/persistence"
	infrasearch "github.com/luminate-data/leadsearch/infrastructure/search"
	"github.com/luminate-data/leadsearch/infrastructure/vector"
	"github.com/luminate-data/leadsearch/internal/database"
	"github.com/luminate-data/leadsearch/internal/testdb"
)

// keywordEmbedder is a deterministic 3-dimensional embedder: each
// dimension counts one keyword. Close texts get close vectors, which is
// enough to exercise the ANN path end to end.
type keywordEmbedder struct {
	calls int
}

func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		vectors[i] = []float32{
			float32(strings.Count(lower, "software")),
			float32(strings.Count(lower, "engineer")),
			float32(strings.Count(lower, "munich")),
		}
	}
	return vectors, nil
}

func (e *keywordEmbedder) ModelID() string { return "keyword-test-model" }

func (e *keywordEmbedder) Dimension() int { return 3 }

// testEnv wires real in-memory stores, a disk-backed vector index, and
// the fake embedder.
type testEnv struct {
	db       database.Database
	leads    persistence.LeadStore
	ledger   persistence.LedgerStore
	meta     persistence.MetaStore
	lexical  *infrasearch.SQLiteLexicalStore
	vectors  *vector.Index
	indexDir string
	embedder *keywordEmbedder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db := testdb.New(t)
	testdb.RequireFTS5(t, db)
	lexical := infrasearch.NewSQLiteLexicalStore(db, nil)
	require.NoError(t, lexical.CreateSchema(ctx))

	embedder := &keywordEmbedder{}
	indexDir := t.TempDir()
	idx, err := vector.Open(indexDir, embedder.ModelID(), embedder.Dimension(), nil)
	require.NoError(t, err)

	return &testEnv{
		db:       db,
		leads:    persistence.NewLeadStore(db, lexical),
		ledger:   persistence.NewLedgerStore(db),
		meta:     persistence.NewMetaStore(db),
		lexical:  lexical,
		vectors:  idx,
		indexDir: indexDir,
		embedder: embedder,
	}
}

// failingEmbedder delegates to keywordEmbedder but fails one specific
// call, to exercise the vector stage's failure paths.
type failingEmbedder struct {
	inner  keywordEmbedder
	failOn int
	calls  int
}

func (e *failingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.calls == e.failOn {
		return nil, errors.New("embedding backend unavailable")
	}
	return e.inner.Embed(ctx, texts)
}

func (e *failingEmbedder) ModelID() string { return e.inner.ModelID() }

func (e *failingEmbedder) Dimension() int { return e.inner.Dimension() }

// writeArchive builds a zip of CSV members on disk and returns its path.
func writeArchive(t *testing.T, members map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range members {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "dataset.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}
