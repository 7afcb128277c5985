package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbeddingServer mimics the OpenAI embeddings endpoint. It returns
// deterministic 3-dimensional vectors and tracks request count via the
// counter.
func fakeEmbeddingServer(t *testing.T, counter *atomic.Int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.Add(1)

		var body struct {
			Input interface{} `json:"input"`
			Model string      `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var texts []string
		switch v := body.Input.(type) {
		case string:
			texts = []string{v}
		case []interface{}:
			for _, item := range v {
				texts = append(texts, item.(string))
			}
		}

		data := make([]map[string]interface{}, len(texts))
		for i := range texts {
			data[i] = map[string]interface{}{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{0.1, 0.2, float64(len(texts[i]))},
			}
		}

		resp := map[string]interface{}{
			"object": "list",
			"data":   data,
			"model":  body.Model,
			"usage": map[string]int{
				"prompt_tokens": len(texts) * 4,
				"total_tokens":  len(texts) * 4,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestEmbedder(t *testing.T, baseURL string, batchSize int) *OpenAIEmbedder {
	t.Helper()

	embedder, err := NewOpenAIEmbedder(EmbedderConfig{
		APIKey:       "test-key",
		BaseURL:      baseURL + "/v1",
		Model:        "test-embedding-model",
		Dimension:    3,
		BatchSize:    batchSize,
		Workers:      2,
		MaxRetries:   1,
		InitialDelay: time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = embedder.Close() })
	return embedder
}

func TestOpenAIEmbedderEmbed(t *testing.T) {
	var requests atomic.Int64
	server := fakeEmbeddingServer(t, &requests)
	defer server.Close()

	embedder := newTestEmbedder(t, server.URL, 64)

	vectors, err := embedder.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 3)
	assert.Equal(t, int64(1), requests.Load())
}

func TestOpenAIEmbedderSplitsBatches(t *testing.T) {
	var requests atomic.Int64
	server := fakeEmbeddingServer(t, &requests)
	defer server.Close()

	embedder := newTestEmbedder(t, server.URL, 2)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := embedder.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	assert.Equal(t, int64(3), requests.Load())

	// Output order follows input order regardless of which worker ran the batch.
	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vectors[i][2])
	}
}

func TestOpenAIEmbedderEmptyInput(t *testing.T) {
	var requests atomic.Int64
	server := fakeEmbeddingServer(t, &requests)
	defer server.Close()

	embedder := newTestEmbedder(t, server.URL, 64)

	vectors, err := embedder.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Equal(t, int64(0), requests.Load())
}

func TestOpenAIEmbedderRetriesServerErrors(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"m","data":[{"object":"embedding","index":0,"embedding":[1,2,3]}],"usage":{"prompt_tokens":4,"total_tokens":4}}`))
	}))
	defer server.Close()

	embedder := newTestEmbedder(t, server.URL, 64)

	vectors, err := embedder.Embed(context.Background(), []string{"alpha"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, int64(2), requests.Load())
}

func TestOpenAIEmbedderWrapsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "invalid key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	embedder := newTestEmbedder(t, server.URL, 64)

	_, err := embedder.Embed(context.Background(), []string{"alpha"})
	require.Error(t, err)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusUnauthorized, provErr.StatusCode())
}
