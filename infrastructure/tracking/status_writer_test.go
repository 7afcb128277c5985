package tracking

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/luminate-data/leadsearch/domain/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProgress(rows int64) ingest.Progress {
	return ingest.NewProgress("acme", "leads_001.csv", ingest.StateStreaming, rows, 2, 1, 4, 10*time.Second, 30*time.Second)
}

func TestStatusWriterWritesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	w := NewStatusWriter(path, nil)

	w.Update(testProgress(5000), true)

	doc, err := ReadStatus(path)
	require.NoError(t, err)
	assert.Equal(t, "acme", doc["dataset"])
	assert.Equal(t, "leads_001.csv", doc["current_file"])
	assert.Equal(t, "streaming", doc["current_state"])
	assert.Equal(t, float64(5000), doc["rows_processed"])
	assert.Equal(t, float64(4), doc["files_total"])
	assert.NotEmpty(t, doc["updated_at"])
}

func TestStatusWriterThrottles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	w := NewStatusWriter(path, nil, WithWriteInterval(time.Hour))

	w.Update(testProgress(100), true)
	w.Update(testProgress(200), false)

	doc, err := ReadStatus(path)
	require.NoError(t, err)
	assert.Equal(t, float64(100), doc["rows_processed"])

	// Force bypasses the throttle.
	w.Update(testProgress(300), true)
	doc, err = ReadStatus(path)
	require.NoError(t, err)
	assert.Equal(t, float64(300), doc["rows_processed"])
}

func TestStatusWriterCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "status.json")
	w := NewStatusWriter(path, nil)

	w.Update(testProgress(1), true)

	_, err := ReadStatus(path)
	require.NoError(t, err)
}
