package search_test

import (
	"context"
	"testing"

	"github.com/luminate-data/leadsearch/domain/lead"
	"github.com/luminate-data/leadsearch/infrastructure/persistence"
	infrasearch "github.com/luminate-data/leadsearch/infrastructure/search"
	"github.com/luminate-data/leadsearch/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteLexical(t *testing.T) (*infrasearch.SQLiteLexicalStore, persistence.LeadStore) {
	t.Helper()
	db := testdb.New(t)
	testdb.RequireFTS5(t, db)
	lexical := infrasearch.NewSQLiteLexicalStore(db, nil)
	require.NoError(t, lexical.CreateSchema(context.Background()))
	return lexical, persistence.NewLeadStore(db, lexical)
}

func seedLeads(t *testing.T, store persistence.LeadStore) []int64 {
	t.Helper()

	ids, err := store.InsertBatch(context.Background(), []lead.Lead{
		lead.New("acme", "a.csv", lead.Fields{Username: "ada", Title: "Software Architect", City: "Munich"}),
		lead.New("acme", "a.csv", lead.Fields{Username: "grace", Title: "Compiler Engineer", City: "Arlington"}),
		lead.New("globex", "b.csv", lead.Fields{Username: "hedy", Title: "Inventor", City: "Munich"}),
	})
	require.NoError(t, err)
	return ids
}

func TestSQLiteLexicalSearchRanksPartialMatches(t *testing.T) {
	ctx := context.Background()
	lexical, store := newSQLiteLexical(t)

	ids := seedLeads(t, store)

	// "software engineer munich" matches no single row exactly; the row
	// matching two terms must outrank rows matching one.
	results, err := lexical.Search(ctx, "software engineer munich", nil, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, ids[0], results[0].ID())

	for _, r := range results {
		assert.Positive(t, r.Score())
	}
}

func TestSQLiteLexicalSearchDatasetFilter(t *testing.T) {
	ctx := context.Background()
	lexical, store := newSQLiteLexical(t)

	ids := seedLeads(t, store)

	results, err := lexical.Search(ctx, "munich", []string{"globex"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ids[2], results[0].ID())
}

func TestSQLiteLexicalSearchNoMatch(t *testing.T) {
	ctx := context.Background()
	lexical, store := newSQLiteLexical(t)

	seedLeads(t, store)

	results, err := lexical.Search(ctx, "zanzibar", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = lexical.Search(ctx, "!!!", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteLexicalSearchLimit(t *testing.T) {
	ctx := context.Background()
	lexical, store := newSQLiteLexical(t)

	seedLeads(t, store)

	results, err := lexical.Search(ctx, "munich", nil, 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
