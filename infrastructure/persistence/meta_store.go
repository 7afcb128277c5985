package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/luminate-data/leadsearch/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetaStore implements ingest.Meta using GORM.
type MetaStore struct {
	db database.Database
}

// NewMetaStore creates a MetaStore.
func NewMetaStore(db database.Database) MetaStore {
	return MetaStore{db: db}
}

// Get returns the value for key, with ok=false when the key is unset.
func (s MetaStore) Get(ctx context.Context, key string) (string, bool, error) {
	var model MetaModel
	result := s.db.Session(ctx).Where("key = ?", key).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get meta %q: %w", key, result.Error)
	}
	return model.Value, true, nil
}

// Set stores or replaces the value for key.
func (s MetaStore) Set(ctx context.Context, key, value string) error {
	model := MetaModel{Key: key, Value: value}
	result := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&model)
	if result.Error != nil {
		return fmt.Errorf("set meta %q: %w", key, result.Error)
	}
	return nil
}
