package persistence

import (
	"context"
	"fmt"

	"github.com/luminate-data/leadsearch/domain/ingest"
	"github.com/luminate-data/leadsearch/internal/database"
)

// AutoMigrate creates or updates the relational schema.
func AutoMigrate(db database.Database) error {
	if err := db.Session(context.Background()).AutoMigrate(
		&LeadModel{},
		&ProcessedFileModel{},
		&MetaModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// EnsureSchemaVersion records the schema version on first run and rejects
// stores written by an incompatible version.
func EnsureSchemaVersion(ctx context.Context, meta ingest.Meta) error {
	stored, ok, err := meta.Get(ctx, ingest.MetaSchemaVersion)
	if err != nil {
		return err
	}
	if !ok {
		return meta.Set(ctx, ingest.MetaSchemaVersion, ingest.SchemaVersion)
	}
	if stored != ingest.SchemaVersion {
		return fmt.Errorf("%w: store schema version %s, expected %s",
			ingest.ErrConfiguration, stored, ingest.SchemaVersion)
	}
	return nil
}

// EnsureEmbeddingModel records the embedding model identifier and vector
// dimension on first use and fails fast on any later mismatch: vectors
// from different models are not comparable, and proceeding would silently
// corrupt search relevance.
func EnsureEmbeddingModel(ctx context.Context, meta ingest.Meta, modelID string, dim int) error {
	if modelID == "" {
		return fmt.Errorf("%w: embedding model identifier is empty", ingest.ErrConfiguration)
	}

	stored, ok, err := meta.Get(ctx, ingest.MetaEmbeddingModel)
	if err != nil {
		return err
	}
	if !ok {
		if err := meta.Set(ctx, ingest.MetaEmbeddingModel, modelID); err != nil {
			return err
		}
		return meta.Set(ctx, ingest.MetaVectorDim, fmt.Sprintf("%d", dim))
	}
	if stored != modelID {
		return fmt.Errorf("%w: store was built with embedding model %q, provider reports %q",
			ingest.ErrConfiguration, stored, modelID)
	}

	storedDim, ok, err := meta.Get(ctx, ingest.MetaVectorDim)
	if err != nil {
		return err
	}
	if ok && storedDim != fmt.Sprintf("%d", dim) {
		return fmt.Errorf("%w: store vector dimension %s, provider reports %d",
			ingest.ErrConfiguration, storedDim, dim)
	}
	return nil
}
