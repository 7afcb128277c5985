// Package config provides application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration. Field names map to
// environment variables with the LEADSEARCH_ prefix, nested structs use
// underscore delimiters (e.g. LEADSEARCH_EMBEDDING_MODEL).
type EnvConfig struct {
	// DataDir is the directory holding the database, vector index, and
	// status file.
	// Env: DATA_DIR (default: data)
	DataDir string `envconfig:"DATA_DIR" default:"data"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/leadsearch.db
	DBURL string `envconfig:"DB_URL"`

	// IndexDir is the vector index directory.
	// Env: INDEX_DIR
	// Default: {data_dir}/index
	IndexDir string `envconfig:"INDEX_DIR"`

	// StatusPath is the progress status file path.
	// Env: STATUS_PATH
	// Default: {data_dir}/status.json
	StatusPath string `envconfig:"STATUS_PATH"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// BatchSize is the number of rows per ingestion batch.
	// Env: BATCH_SIZE (default: 5000)
	BatchSize int `envconfig:"BATCH_SIZE" default:"5000"`

	// BatchRetries is the number of times a failed batch commit is retried
	// before the file is marked failed.
	// Env: BATCH_RETRIES (default: 3)
	BatchRetries int `envconfig:"BATCH_RETRIES" default:"3"`

	// FlushEvery is the number of batches between vector index flushes.
	// Env: FLUSH_EVERY (default: 4)
	FlushEvery int `envconfig:"FLUSH_EVERY" default:"4"`

	// SearchK is the default number of search results.
	// Env: SEARCH_K (default: 20)
	SearchK int `envconfig:"SEARCH_K" default:"20"`

	// PathTimeout bounds each retrieval path within one query; a slow
	// path degrades to partial results instead of failing the query.
	// Env: PATH_TIMEOUT (default: 5s)
	PathTimeout time.Duration `envconfig:"PATH_TIMEOUT" default:"5s"`

	// FusionPolicy selects the score fusion strategy (weighted or rrf).
	// Env: FUSION_POLICY (default: weighted)
	FusionPolicy string `envconfig:"FUSION_POLICY" default:"weighted"`

	// FusionAlpha is the vector-path weight for weighted-sum fusion.
	// Env: FUSION_ALPHA (default: 0.5)
	FusionAlpha float64 `envconfig:"FUSION_ALPHA" default:"0.5"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingEnv `envconfig:"EMBEDDING"`
}

// EmbeddingEnv configures the embedding provider endpoint.
type EmbeddingEnv struct {
	// BaseURL is an OpenAI-compatible endpoint base URL (empty: api.openai.com).
	// Env: EMBEDDING_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// APIKey authenticates against the endpoint.
	// Env: EMBEDDING_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Model is the embedding model identifier. Recorded in the meta table
	// at first use; a later mismatch is fatal.
	// Env: EMBEDDING_MODEL (default: text-embedding-3-small)
	Model string `envconfig:"MODEL" default:"text-embedding-3-small"`

	// Dimension is the vector dimension the model produces.
	// Env: EMBEDDING_DIMENSION (default: 1536)
	Dimension int `envconfig:"DIMENSION" default:"1536"`

	// BatchSize is the number of texts per embedding API call.
	// Env: EMBEDDING_BATCH_SIZE (default: 64)
	BatchSize int `envconfig:"BATCH_SIZE" default:"64"`

	// Workers is the number of concurrent embedding API calls.
	// Env: EMBEDDING_WORKERS (default: 2)
	Workers int `envconfig:"WORKERS" default:"2"`

	// MaxRetries bounds per-call retries on transient failures.
	// Env: EMBEDDING_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// Timeout bounds one embedding API call.
	// Env: EMBEDDING_TIMEOUT (default: 60s)
	Timeout time.Duration `envconfig:"TIMEOUT" default:"60s"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("LEADSEARCH", &cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("process env config: %w", err)
	}
	return cfg, nil
}

// Normalize fills derived defaults that depend on other fields.
func (c EnvConfig) Normalize() EnvConfig {
	if c.DBURL == "" {
		c.DBURL = "sqlite:///" + c.DataDir + "/leadsearch.db"
	}
	if c.IndexDir == "" {
		c.IndexDir = c.DataDir + "/index"
	}
	if c.StatusPath == "" {
		c.StatusPath = c.DataDir + "/status.json"
	}
	c.LogFormat = strings.ToLower(c.LogFormat)
	c.FusionPolicy = strings.ToLower(c.FusionPolicy)
	return c
}

// ToAppConfig converts the environment configuration into an AppConfig.
func (c EnvConfig) ToAppConfig() AppConfig {
	return AppConfig{env: c}
}
