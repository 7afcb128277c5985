package config

import "time"

// Default pipeline and search limits referenced across packages.
const (
	DefaultBatchSize    = 5000
	DefaultBatchRetries = 3
	DefaultFlushEvery   = 4
	DefaultSearchK      = 20

	// MinCandidatePool is the floor for per-path candidate over-fetching.
	// Filters are applied before truncating to k, so each path fetches
	// max(CandidateMultiplier*k, MinCandidatePool) candidates.
	MinCandidatePool    = 200
	CandidateMultiplier = 4
)

// AppConfig is the resolved application configuration.
type AppConfig struct {
	env EnvConfig
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.env.DataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.env.DBURL }

// IndexDir returns the vector index directory.
func (c AppConfig) IndexDir() string { return c.env.IndexDir }

// StatusPath returns the progress status file path.
func (c AppConfig) StatusPath() string { return c.env.StatusPath }

// LogLevel returns the log verbosity level.
func (c AppConfig) LogLevel() string { return c.env.LogLevel }

// LogFormat returns the log output format.
func (c AppConfig) LogFormat() string { return c.env.LogFormat }

// BatchSize returns the rows per ingestion batch.
func (c AppConfig) BatchSize() int {
	if c.env.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return c.env.BatchSize
}

// BatchRetries returns the bounded retry count for failed batch commits.
func (c AppConfig) BatchRetries() int {
	if c.env.BatchRetries < 0 {
		return DefaultBatchRetries
	}
	return c.env.BatchRetries
}

// FlushEvery returns the number of batches between vector index flushes.
func (c AppConfig) FlushEvery() int {
	if c.env.FlushEvery <= 0 {
		return DefaultFlushEvery
	}
	return c.env.FlushEvery
}

// SearchK returns the default number of search results.
func (c AppConfig) SearchK() int {
	if c.env.SearchK <= 0 {
		return DefaultSearchK
	}
	return c.env.SearchK
}

// PathTimeout returns the per-retrieval-path timeout.
func (c AppConfig) PathTimeout() time.Duration { return c.env.PathTimeout }

// FusionPolicy returns the configured fusion strategy name.
func (c AppConfig) FusionPolicy() string { return c.env.FusionPolicy }

// FusionAlpha returns the vector-path weight for weighted-sum fusion.
func (c AppConfig) FusionAlpha() float64 { return c.env.FusionAlpha }

// Embedding returns the embedding provider configuration.
func (c AppConfig) Embedding() EmbeddingEnv { return c.env.Embedding }
