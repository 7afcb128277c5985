package vector

import (
	"testing"

	"github.com/luminate-data/leadsearch/domain/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(t.TempDir(), "test-model", 3, nil)
	require.NoError(t, err)
	return idx
}

func TestIndexAddAndSearch(t *testing.T) {
	idx := newTestIndex(t)

	err := idx.Add(
		[]int64{101, 102, 103},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Count())

	results, err := idx.Search([]float32{0.9, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, int64(101), results[0].ID())
	assert.LessOrEqual(t, results[0].Score(), results[1].Score())
}

func TestIndexSearchNearOriginReturnsFullK(t *testing.T) {
	idx := newTestIndex(t)

	// A query near the origin ranks the graph's zero-vector entry point
	// above the far node; the caller must still get k leads back.
	err := idx.Add(
		[]int64{1, 2, 3},
		[][]float32{
			{0.1, 0, 0},
			{0, 0.1, 0},
			{5, 5, 5},
		},
	)
	require.NoError(t, err)

	results, err := idx.Search([]float32{0.01, 0.01, 0.01}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotZero(t, r.ID())
	}
}

func TestIndexRejectsDuplicateID(t *testing.T) {
	idx := newTestIndex(t)

	require.NoError(t, idx.Add([]int64{7}, [][]float32{{1, 2, 3}}))

	err := idx.Add([]int64{7}, [][]float32{{3, 2, 1}})
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, idx.Count())
}

func TestIndexRejectsWrongDimension(t *testing.T) {
	idx := newTestIndex(t)

	err := idx.Add([]int64{1}, [][]float32{{1, 2}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = idx.Search([]float32{1, 2, 3, 4}, 5)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestIndexSearchEmpty(t *testing.T) {
	idx := newTestIndex(t)

	results, err := idx.Search([]float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndexFlushAndReopen(t *testing.T) {
	dir := t.TempDir()

	idx, err := Open(dir, "test-model", 3, nil)
	require.NoError(t, err)

	require.NoError(t, idx.Add(
		[]int64{11, 22},
		[][]float32{{1, 0, 0}, {0, 1, 0}},
	))
	require.NoError(t, idx.Flush())

	reopened, err := Open(dir, "test-model", 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Count())

	results, err := reopened.Search([]float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(22), results[0].ID())

	// Appending after reopen must still reject known ids.
	assert.ErrorIs(t, reopened.Add([]int64{11}, [][]float32{{0, 0, 1}}), ErrDuplicateID)
}

func TestIndexOpenRejectsModelMismatch(t *testing.T) {
	dir := t.TempDir()

	idx, err := Open(dir, "model-a", 3, nil)
	require.NoError(t, err)
	require.NoError(t, idx.Flush())

	_, err = Open(dir, "model-b", 3, nil)
	assert.ErrorIs(t, err, ingest.ErrConfiguration)

	_, err = Open(dir, "model-a", 4, nil)
	assert.ErrorIs(t, err, ingest.ErrConfiguration)
}
