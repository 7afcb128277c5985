// Package provider implements embedding providers over OpenAI-compatible APIs.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	openai "github.com/sashabaranov/go-openai"

	"github.com/luminate-data/leadsearch/domain/search"
)

// DefaultBatchSize is the default number of texts per embedding API call.
const DefaultBatchSize = 64

// errEmbeddingCountMismatch indicates the API returned fewer embedding vectors
// than requested. This is retryable because transient upstream issues (e.g.
// rate-limiting behind a 200 status) can produce partial responses.
var errEmbeddingCountMismatch = errors.New("embedding response count mismatch")

// errUpstreamProviderFailure indicates the API returned HTTP 200 but the
// response body contained an error instead of embedding data. The response
// has zero data, zero usage, and an empty model; retrying is futile because
// the upstream provider is down, not transiently overloaded.
var errUpstreamProviderFailure = errors.New("upstream provider failure")

// OpenAIEmbedder implements search.Embedder against an OpenAI-compatible
// embeddings endpoint. Large inputs are split into batches dispatched
// across a bounded worker pool.
type OpenAIEmbedder struct {
	client        *openai.Client
	model         string
	dimension     int
	batchSize     int
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	pool          *ants.Pool
}

// EmbedderConfig holds configuration for the OpenAI embedder.
type EmbedderConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Dimension     int
	BatchSize     int
	Workers       int
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
	Timeout       time.Duration
}

// NewOpenAIEmbedder creates an embedder from configuration.
func NewOpenAIEmbedder(cfg EmbedderConfig) (*OpenAIEmbedder, error) {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", cfg.Dimension)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 5
	}
	initialDelay := cfg.InitialDelay
	if initialDelay == 0 {
		initialDelay = 2 * time.Second
	}
	backoffFactor := cfg.BackoffFactor
	if backoffFactor == 0 {
		backoffFactor = 2.0
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create embedding worker pool: %w", err)
	}

	return &OpenAIEmbedder{
		client:        openai.NewClientWithConfig(clientConfig),
		model:         model,
		dimension:     cfg.Dimension,
		batchSize:     batchSize,
		maxRetries:    maxRetries,
		initialDelay:  initialDelay,
		backoffFactor: backoffFactor,
		pool:          pool,
	}, nil
}

// ModelID returns the embedding model identifier.
func (p *OpenAIEmbedder) ModelID() string { return p.model }

// Dimension returns the vector dimension the model produces.
func (p *OpenAIEmbedder) Dimension() int { return p.dimension }

// Close releases the worker pool.
func (p *OpenAIEmbedder) Close() error {
	p.pool.Release()
	return nil
}

// Embed generates embeddings for the given texts, preserving input order.
func (p *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end

		wg.Add(1)
		task := func() {
			defer wg.Done()

			vectors, err := p.embedBatch(ctx, texts[start:end])
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			copy(results[start:end], vectors)
		}

		if err := p.pool.Submit(task); err != nil {
			// Pool released or overloaded; run inline rather than drop.
			task()
		}
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func (p *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: texts,
	}

	var resp openai.EmbeddingResponse
	var err error

	err = p.withRetry(ctx, func() error {
		resp, err = p.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return err
		}
		// Routing providers (e.g. OpenRouter) can return HTTP 200 with an
		// error body that go-openai silently parses as an empty response.
		if len(resp.Data) == 0 && string(resp.Model) == "" && resp.Usage.TotalTokens == 0 {
			return fmt.Errorf(
				"%w: provider returned HTTP 200 with no embedding data, no model, and zero usage",
				errUpstreamProviderFailure,
			)
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(resp.Data), len(texts))
		}
		return nil
	})
	if err != nil {
		return nil, p.wrapError("embedding", err)
	}

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		if len(data.Embedding) != p.dimension {
			return nil, NewProviderError("embedding", 0,
				fmt.Sprintf("model returned %d-dimensional vector, expected %d", len(data.Embedding), p.dimension), nil)
		}
		vectors[i] = data.Embedding
	}
	return vectors, nil
}

// withRetry executes the function with exponential backoff retry.
func (p *OpenAIEmbedder) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !p.isRetryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryable determines if an error should be retried.
func (p *OpenAIEmbedder) isRetryable(err error) bool {
	// Partial embedding responses are retryable; upstream providers can
	// return 200 with incomplete data under transient load.
	if errors.Is(err, errEmbeddingCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		// Network errors are retryable
		return true
	}

	return false
}

// wrapError wraps a client error into a ProviderError.
func (p *OpenAIEmbedder) wrapError(operation string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(operation, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return NewProviderError(operation, 0, err.Error(), err)
}

var _ search.Embedder = (*OpenAIEmbedder)(nil)
