package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/luminate-data/leadsearch/domain/ingest"
	"github.com/luminate-data/leadsearch/domain/lead"
	"github.com/luminate-data/leadsearch/domain/storage"
	"github.com/luminate-data/leadsearch/internal/database"
	"gorm.io/gorm"
)

// LexicalWriter indexes lead text inside the same transaction that stores
// the rows, so a crash never leaves the row table and the lexical index
// disagreeing. Implemented by the lexical stores in infrastructure/search.
type LexicalWriter interface {
	// CreateSchema prepares the lexical index tables.
	CreateSchema(ctx context.Context) error

	// IndexInTx adds (id, text) pairs to the lexical index within tx.
	IndexInTx(tx *gorm.DB, ids []int64, texts []string) error
}

// LeadStore implements lead.Store using GORM.
type LeadStore struct {
	database.Repository[lead.Lead, LeadModel]
	db      database.Database
	lexical LexicalWriter
}

// NewLeadStore creates a LeadStore. The lexical writer receives every
// inserted batch inside the insert transaction.
func NewLeadStore(db database.Database, lexical LexicalWriter) LeadStore {
	return LeadStore{
		Repository: database.NewRepository[lead.Lead, LeadModel](db, LeadMapper{}, "lead"),
		db:         db,
		lexical:    lexical,
	}
}

// InsertBatch stores the leads and their lexical-index entries in one
// transaction and returns the assigned ids in insertion order.
func (s LeadStore) InsertBatch(ctx context.Context, leads []lead.Lead) ([]int64, error) {
	if len(leads) == 0 {
		return []int64{}, nil
	}

	models := make([]LeadModel, len(leads))
	for i, l := range leads {
		models[i] = s.Mapper().ToModel(l)
	}

	ids, err := database.WithTransactionResult(ctx, s.db, func(tx *gorm.DB) ([]int64, error) {
		if err := tx.Create(&models).Error; err != nil {
			return nil, fmt.Errorf("insert leads: %w", err)
		}

		ids := make([]int64, len(models))
		texts := make([]string, len(models))
		for i, m := range models {
			ids[i] = m.ID
			texts[i] = m.TextConcat
		}

		if s.lexical != nil {
			if err := s.lexical.IndexInTx(tx, ids, texts); err != nil {
				return nil, fmt.Errorf("index lexical batch: %w", err)
			}
		}
		return ids, nil
	})
	if err != nil {
		return nil, errors.Join(ingest.ErrStoreTransaction, err)
	}
	return ids, nil
}

// FetchByIDs hydrates leads preserving the caller-supplied id order.
func (s LeadStore) FetchByIDs(ctx context.Context, ids []int64) ([]lead.Lead, error) {
	if len(ids) == 0 {
		return []lead.Lead{}, nil
	}

	found, err := s.Find(ctx, storage.WithIDIn(ids))
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]lead.Lead, len(found))
	for _, l := range found {
		byID[l.ID()] = l
	}

	ordered := make([]lead.Lead, 0, len(found))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			ordered = append(ordered, l)
		}
	}
	return ordered, nil
}

// FetchAfter returns up to limit leads with id > afterID in ascending id
// order.
func (s LeadStore) FetchAfter(ctx context.Context, afterID int64, limit int) ([]lead.Lead, error) {
	var entities []LeadModel
	result := s.DB(ctx).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&entities)
	if result.Error != nil {
		return nil, fmt.Errorf("fetch leads after %d: %w", afterID, result.Error)
	}

	leads := make([]lead.Lead, len(entities))
	for i, e := range entities {
		leads[i] = s.Mapper().ToDomain(e)
	}
	return leads, nil
}

// Count returns the number of stored leads, optionally scoped to a dataset.
func (s LeadStore) Count(ctx context.Context, dataset string) (int64, error) {
	if dataset == "" {
		return s.Repository.Count(ctx)
	}
	return s.Repository.Count(ctx, storage.WithDataset(dataset))
}

// Datasets returns the distinct dataset identifiers with their row counts.
func (s LeadStore) Datasets(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Dataset string
		N       int64
	}
	var rows []row
	result := s.DB(ctx).
		Model(&LeadModel{}).
		Select("dataset, COUNT(*) as n").
		Group("dataset").
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("count datasets: %w", result.Error)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Dataset] = r.N
	}
	return counts, nil
}
