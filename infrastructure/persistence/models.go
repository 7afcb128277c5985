// Package persistence provides GORM-backed storage for leads, the
// ingestion ledger, and the meta table.
package persistence

import "time"

// LeadModel is the database entity for a canonical lead row.
type LeadModel struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	Dataset        string `gorm:"index;not null"`
	SourceFile     string `gorm:"not null"`
	Username       *string
	Name           *string
	Bio            *string
	Category       *string `gorm:"index"`
	Title          *string
	Company        *string
	City           *string
	Domain         *string
	Website        *string
	Email          *string
	Phone          *string
	FollowerCount  *int64
	FollowingCount *int64
	TextConcat     string `gorm:"not null"`
}

// TableName overrides the GORM default.
func (LeadModel) TableName() string { return "leads" }

// ProcessedFileModel is the database entity for the ingestion ledger.
type ProcessedFileModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Dataset     string `gorm:"uniqueIndex:idx_processed_files_key;not null"`
	FileName    string `gorm:"uniqueIndex:idx_processed_files_key;not null"`
	RowCount    int64  `gorm:"not null"`
	ErrorCount  int64  `gorm:"not null"`
	Vectorized  bool   `gorm:"not null"`
	CompletedAt time.Time
}

// TableName overrides the GORM default.
func (ProcessedFileModel) TableName() string { return "processed_files" }

// MetaModel is the database entity for the key-value meta table.
type MetaModel struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"not null"`
}

// TableName overrides the GORM default.
func (MetaModel) TableName() string { return "meta" }
