package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/luminate-data/leadsearch/domain/search"
	"github.com/luminate-data/leadsearch/infrastructure/persistence"
	"github.com/luminate-data/leadsearch/infrastructure/provider"
	infrasearch "github.com/luminate-data/leadsearch/infrastructure/search"
	"github.com/luminate-data/leadsearch/infrastructure/vector"
	"github.com/luminate-data/leadsearch/internal/config"
	"github.com/luminate-data/leadsearch/internal/database"
	"github.com/luminate-data/leadsearch/internal/log"
)

// lexicalStore is satisfied by both lexical index implementations: it
// writes inside insert transactions and answers ranked queries.
type lexicalStore interface {
	persistence.LexicalWriter
	search.Lexical
}

// app holds the wired-up stores and services shared by the commands.
type app struct {
	cfg      config.AppConfig
	logger   *slog.Logger
	db       database.Database
	leads    persistence.LeadStore
	ledger   persistence.LedgerStore
	meta     persistence.MetaStore
	lexical  lexicalStore
	vectors  *vector.Index
	embedder *provider.OpenAIEmbedder
}

// newApp opens the database and vector index and wires the stores. The
// embedder is nil when no API key is configured; ingestion then defers
// vectors and search degrades to lexical-only.
func newApp(ctx context.Context, envFile string) (*app, error) {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return nil, err
	}

	logger := log.New(log.Format(cfg.LogFormat()), cfg.LogLevel())

	if err := os.MkdirAll(cfg.DataDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := database.New(ctx, cfg.DBURL())
	if err != nil {
		return nil, err
	}
	if err := persistence.AutoMigrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	var lexical lexicalStore
	if db.IsPostgres() {
		lexical = infrasearch.NewPostgresLexicalStore(db, logger)
	} else {
		lexical = infrasearch.NewSQLiteLexicalStore(db, logger)
	}
	if err := lexical.CreateSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	meta := persistence.NewMetaStore(db)
	if err := persistence.EnsureSchemaVersion(ctx, meta); err != nil {
		_ = db.Close()
		return nil, err
	}

	embCfg := cfg.Embedding()
	var embedder *provider.OpenAIEmbedder
	if embCfg.APIKey != "" || embCfg.BaseURL != "" {
		embedder, err = provider.NewOpenAIEmbedder(provider.EmbedderConfig{
			APIKey:     embCfg.APIKey,
			BaseURL:    embCfg.BaseURL,
			Model:      embCfg.Model,
			Dimension:  embCfg.Dimension,
			BatchSize:  embCfg.BatchSize,
			Workers:    embCfg.Workers,
			MaxRetries: embCfg.MaxRetries,
			Timeout:    embCfg.Timeout,
		})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if err := persistence.EnsureEmbeddingModel(ctx, meta, embedder.ModelID(), embedder.Dimension()); err != nil {
			_ = db.Close()
			return nil, err
		}
	} else {
		logger.Info("no embedding endpoint configured, vector features disabled")
	}

	vectors, err := vector.Open(cfg.IndexDir(), embCfg.Model, embCfg.Dimension, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		leads:    persistence.NewLeadStore(db, lexical),
		ledger:   persistence.NewLedgerStore(db),
		meta:     meta,
		lexical:  lexical,
		vectors:  vectors,
		embedder: embedder,
	}, nil
}

func (a *app) Close() {
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	_ = a.db.Close()
}

// domainEmbedder returns the embedder as the domain interface, keeping
// the nil check meaningful for the services.
func (a *app) domainEmbedder() search.Embedder {
	if a.embedder == nil {
		return nil
	}
	return a.embedder
}

// fusionStrategy builds the configured fusion strategy.
func (a *app) fusionStrategy() search.Strategy {
	return search.StrategyFor(search.Policy(a.cfg.FusionPolicy()), a.cfg.FusionAlpha())
}
