package persistence

import (
	"context"
	"fmt"

	"github.com/luminate-data/leadsearch/domain/ingest"
	"github.com/luminate-data/leadsearch/domain/storage"
	"github.com/luminate-data/leadsearch/internal/database"
)

// LedgerStore implements ingest.Ledger using GORM.
type LedgerStore struct {
	database.Repository[ingest.ProcessedFile, ProcessedFileModel]
}

// NewLedgerStore creates a LedgerStore.
func NewLedgerStore(db database.Database) LedgerStore {
	return LedgerStore{
		Repository: database.NewRepository[ingest.ProcessedFile, ProcessedFileModel](db, ProcessedFileMapper{}, "processed file"),
	}
}

// IsComplete reports whether the file was already fully ingested.
func (s LedgerStore) IsComplete(ctx context.Context, dataset, fileName string) (bool, error) {
	return s.Exists(ctx, storage.WithDataset(dataset), storage.WithFileName(fileName))
}

// MarkComplete records a fully processed file. The unique (dataset,
// file_name) index rejects double completion: a file is only ever fully
// processed once.
func (s LedgerStore) MarkComplete(ctx context.Context, record ingest.ProcessedFile) error {
	model := s.Mapper().ToModel(record)
	if result := s.DB(ctx).Create(&model); result.Error != nil {
		return fmt.Errorf("mark file complete: %w", result.Error)
	}
	return nil
}

// Completed lists the ledger records for a dataset (empty means all).
func (s LedgerStore) Completed(ctx context.Context, dataset string) ([]ingest.ProcessedFile, error) {
	options := []storage.Option{storage.WithOrderAsc("file_name")}
	if dataset != "" {
		options = append(options, storage.WithDataset(dataset))
	}
	return s.Find(ctx, options...)
}
