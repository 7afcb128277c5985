package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/luminate-data/leadsearch/domain/search"
	"github.com/luminate-data/leadsearch/internal/database"
	"gorm.io/gorm"
)

// SQL statements for the PostgreSQL native full-text lexical index.
const (
	pgCreateLexicalTable = `
CREATE TABLE IF NOT EXISTS lead_fts_documents (
    lead_id BIGINT PRIMARY KEY,
    passage TEXT NOT NULL,
    tsv TSVECTOR
)`

	pgCreateTSVIndex = `
CREATE INDEX IF NOT EXISTS lead_fts_documents_tsv_idx
ON lead_fts_documents
USING GIN(tsv)`

	pgCreateTriggerFunction = `
CREATE OR REPLACE FUNCTION lead_fts_update_tsv()
RETURNS trigger AS $$
BEGIN
    NEW.tsv := to_tsvector('english', NEW.passage);
    RETURN NEW;
END;
$$ LANGUAGE plpgsql`

	pgCreateTrigger = `
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_trigger WHERE tgname = 'lead_fts_tsv_trigger'
    ) THEN
        CREATE TRIGGER lead_fts_tsv_trigger
        BEFORE INSERT OR UPDATE ON lead_fts_documents
        FOR EACH ROW EXECUTE FUNCTION lead_fts_update_tsv();
    END IF;
END;
$$`

	pgInsertQuery = `
INSERT INTO lead_fts_documents (lead_id, passage)
VALUES (?, ?)
ON CONFLICT (lead_id) DO UPDATE
SET passage = EXCLUDED.passage`
)

// ErrPostgresLexicalInitializationFailed indicates PostgreSQL FTS initialization failed.
var ErrPostgresLexicalInitializationFailed = errors.New("failed to initialize PostgreSQL lexical index")

// PostgresLexicalStore implements search.Lexical using PostgreSQL native full-text search.
type PostgresLexicalStore struct {
	db          database.Database
	logger      *slog.Logger
	initialized bool
	mu          sync.Mutex
}

// NewPostgresLexicalStore creates a new PostgresLexicalStore.
func NewPostgresLexicalStore(db database.Database, logger *slog.Logger) *PostgresLexicalStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLexicalStore{
		db:     db,
		logger: logger,
	}
}

// CreateSchema creates the documents table, GIN index and tsvector trigger.
func (s *PostgresLexicalStore) CreateSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	db := s.db.Session(ctx)
	for _, stmt := range []string{pgCreateLexicalTable, pgCreateTSVIndex, pgCreateTriggerFunction, pgCreateTrigger} {
		if err := db.Exec(stmt).Error; err != nil {
			return errors.Join(ErrPostgresLexicalInitializationFailed, err)
		}
	}

	s.initialized = true
	return nil
}

// IndexInTx inserts passages for the given lead ids inside the caller's
// transaction. The tsvector trigger populates tsv on insert.
func (s *PostgresLexicalStore) IndexInTx(tx *gorm.DB, ids []int64, texts []string) error {
	if len(ids) != len(texts) {
		return errors.New("lexical index: id and text counts differ")
	}

	for i, id := range ids {
		if texts[i] == "" {
			continue
		}
		if err := tx.Exec(pgInsertQuery, id, texts[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Search performs full-text search using ts_rank_cd, best first.
func (s *PostgresLexicalStore) Search(ctx context.Context, query string, datasets []string, limit int) ([]search.Candidate, error) {
	if err := s.CreateSchema(ctx); err != nil {
		return nil, err
	}

	tsQuery := postgresOrQuery(query)
	if tsQuery == "" {
		return []search.Candidate{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	tx := s.db.Session(ctx).
		Table("lead_fts_documents").
		Select("lead_id, ts_rank_cd(tsv, to_tsquery('english', ?)) as score", tsQuery).
		Where("tsv @@ to_tsquery('english', ?)", tsQuery)

	if len(datasets) > 0 {
		tx = tx.Where("lead_id IN (SELECT id FROM leads WHERE dataset IN ?)", datasets)
	}

	tx = tx.Order("score DESC").Limit(limit)

	var rows []struct {
		LeadID int64   `gorm:"column:lead_id"`
		Score  float64 `gorm:"column:score"`
	}
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]search.Candidate, len(rows))
	for i, row := range rows {
		results[i] = search.NewCandidate(row.LeadID, row.Score)
	}

	return results, nil
}

// postgresOrQuery joins sanitized query terms with the tsquery OR
// operator so partial matches still rank.
func postgresOrQuery(query string) string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	return strings.Join(fields, " | ")
}
