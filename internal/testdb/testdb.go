// Package testdb provides a shared test database helper for fast,
// realistic testing against an in-memory SQLite database.
package testdb

import (
	"context"
	"testing"

	"github.com/luminate-data/leadsearch/infrastructure/persistence"
	"github.com/luminate-data/leadsearch/internal/database"
)

// New creates an in-memory SQLite database with all migrations applied.
// The database is automatically closed when the test finishes.
func New(t *testing.T) database.Database {
	t.Helper()
	db := NewPlain(t)
	if err := persistence.AutoMigrate(db); err != nil {
		t.Fatalf("testdb.New: auto migrate: %v", err)
	}
	return db
}

// NewPlain creates an in-memory SQLite database without running
// migrations. Useful for tests that manage their own schema.
func NewPlain(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()
	db, err := database.New(ctx, "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("testdb.NewPlain: open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// RequireFTS5 skips the test when the sqlite driver was compiled
// without the FTS5 extension. The extension is opt-in on
// mattn/go-sqlite3: run the suite with -tags sqlite_fts5 to cover the
// full-text paths.
func RequireFTS5(t *testing.T, db database.Database) {
	t.Helper()
	session := db.Session(context.Background())
	if err := session.Exec("CREATE VIRTUAL TABLE fts5_check USING fts5(x)").Error; err != nil {
		t.Skipf("sqlite driver lacks FTS5 (build with -tags sqlite_fts5): %v", err)
	}
	_ = session.Exec("DROP TABLE fts5_check").Error
}
