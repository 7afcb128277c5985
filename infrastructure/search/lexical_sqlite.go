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

// SQL statements for the SQLite FTS5 lexical index. The index is
// contentless: passages are tokenized on insert and never stored, and
// rowid is the lead id, so a match maps straight back to the leads table.
const (
	sqliteCreateFTSTable = `
CREATE VIRTUAL TABLE IF NOT EXISTS leads_fts USING fts5(
    passage,
    content='',
    tokenize='porter ascii'
)`

	sqliteInsertQuery = `INSERT INTO leads_fts (rowid, passage) VALUES (?, ?)`
)

// ErrLexicalInitializationFailed indicates FTS5 initialization failed.
var ErrLexicalInitializationFailed = errors.New("failed to initialize lexical index")

// SQLiteLexicalStore implements search.Lexical using SQLite FTS5.
type SQLiteLexicalStore struct {
	db          database.Database
	logger      *slog.Logger
	initialized bool
	mu          sync.Mutex
}

// NewSQLiteLexicalStore creates a new SQLiteLexicalStore.
func NewSQLiteLexicalStore(db database.Database, logger *slog.Logger) *SQLiteLexicalStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteLexicalStore{
		db:     db,
		logger: logger,
	}
}

// CreateSchema creates the FTS5 virtual table if it does not exist.
func (s *SQLiteLexicalStore) CreateSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if err := s.db.Session(ctx).Exec(sqliteCreateFTSTable).Error; err != nil {
		// FTS5 is opt-in on mattn/go-sqlite3.
		if strings.Contains(err.Error(), "no such module: fts5") {
			return errors.Join(ErrLexicalInitializationFailed,
				errors.New("sqlite driver compiled without FTS5, rebuild with -tags sqlite_fts5"))
		}
		return errors.Join(ErrLexicalInitializationFailed, err)
	}

	s.initialized = true
	return nil
}

// IndexInTx inserts passages for the given lead ids inside the caller's
// transaction. ids and texts are aligned; the lead id becomes the FTS
// rowid so that rows and index entries commit or roll back together.
func (s *SQLiteLexicalStore) IndexInTx(tx *gorm.DB, ids []int64, texts []string) error {
	if len(ids) != len(texts) {
		return errors.New("lexical index: id and text counts differ")
	}

	for i, id := range ids {
		if texts[i] == "" {
			continue
		}
		if err := tx.Exec(sqliteInsertQuery, id, texts[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Search runs a full-text query and returns candidates with positive
// relevance scores, best first.
func (s *SQLiteLexicalStore) Search(ctx context.Context, query string, datasets []string, limit int) ([]search.Candidate, error) {
	if err := s.CreateSchema(ctx); err != nil {
		return nil, err
	}

	ftsQuery := tokenizeQuery(query)
	if ftsQuery == "" {
		return []search.Candidate{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	tx := s.db.Session(ctx).
		Table("leads_fts").
		Select("rowid, bm25(leads_fts) as score").
		Where("leads_fts MATCH ?", ftsQuery)

	if len(datasets) > 0 {
		tx = tx.Where("rowid IN (SELECT id FROM leads WHERE dataset IN ?)", datasets)
	}

	tx = tx.Order("score").Limit(limit)

	// Manual row scanning keeps FTS5 virtual table columns readable.
	sqlRows, err := tx.Rows()
	if err != nil {
		return nil, err
	}
	defer func() { _ = sqlRows.Close() }()

	var results []search.Candidate
	for sqlRows.Next() {
		var leadID int64
		var score float64
		if err := sqlRows.Scan(&leadID, &score); err != nil {
			return nil, err
		}
		// SQLite bm25() returns negative scores (lower/more negative is better)
		// Convert to positive scores for consistency (negate)
		results = append(results, search.NewCandidate(leadID, -score))
	}

	if err := sqlRows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
