package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminate-data/leadsearch/application/service"
	"github.com/luminate-data/leadsearch/domain/lead"
	"github.com/luminate-data/leadsearch/domain/search"
)

func followers(n int64) *int64 { return &n }

// seedSearchEnv stores a small corpus and vectorizes it through the fake
// embedder.
func seedSearchEnv(t *testing.T, env *testEnv, vectorize bool) []int64 {
	t.Helper()
	ctx := context.Background()

	ids, err := env.leads.InsertBatch(ctx, []lead.Lead{
		lead.New("acme", "a.csv", lead.Fields{
			Name: "Ada Lovelace", Title: "Software Architect", City: "Munich",
			Category: "Consulting", FollowerCount: followers(1200),
		}),
		lead.New("acme", "a.csv", lead.Fields{
			Name: "Grace Hopper", Title: "Compiler Engineer", City: "Arlington",
			Category: "Defense", FollowerCount: followers(5000),
		}),
		lead.New("globex", "b.csv", lead.Fields{
			Name: "Hedy Lamarr", Title: "Software Engineer", City: "Munich",
			Category: "Film",
		}),
	})
	require.NoError(t, err)

	if vectorize {
		leads, err := env.leads.FetchByIDs(ctx, ids)
		require.NoError(t, err)
		texts := make([]string, len(leads))
		for i, l := range leads {
			texts[i] = l.TextConcat()
		}
		vectors, err := env.embedder.Embed(ctx, texts)
		require.NoError(t, err)
		require.NoError(t, env.vectors.Add(ids, vectors))
	}

	return ids
}

func newSearch(env *testEnv) *service.HybridSearch {
	return service.NewHybridSearch(
		env.leads, env.lexical, env.vectors, env.embedder, nil, 0, nil,
	)
}

func TestHybridSearchRanksBestMatchFirst(t *testing.T) {
	env := newTestEnv(t)
	seedSearchEnv(t, env, true)
	svc := newSearch(env)

	results, err := svc.Search(context.Background(),
		search.NewQuery("software engineer munich", 3, nil, search.Filters{}))
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// The lead matching all three terms outranks partial matches.
	top := results[0]
	assert.Equal(t, "Hedy Lamarr", top.Lead().Name())
	assert.NotNil(t, top.LexicalScore())
	assert.NotNil(t, top.VectorScore())

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].FusedScore(), results[i].FusedScore())
	}
}

func TestHybridSearchEmptyVectorIndexDegradesToLexical(t *testing.T) {
	env := newTestEnv(t)
	seedSearchEnv(t, env, false)
	svc := newSearch(env)

	results, err := svc.Search(context.Background(),
		search.NewQuery("munich", 5, nil, search.Filters{}))
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, r := range results {
		assert.Nil(t, r.VectorScore())
		assert.NotNil(t, r.LexicalScore())
	}
}

func TestHybridSearchFiltersBeforeTruncation(t *testing.T) {
	env := newTestEnv(t)
	seedSearchEnv(t, env, true)
	svc := newSearch(env)

	// With k=1 and no filter the top hit is in the Film category; the
	// category filter must surface the matching lead instead of returning
	// an empty page.
	filters := search.NewFilters(search.WithCategory("consulting"))
	results, err := svc.Search(context.Background(),
		search.NewQuery("software engineer munich", 1, nil, filters))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Ada Lovelace", results[0].Lead().Name())
}

func TestHybridSearchFollowerBoundsExcludeUnknownCounts(t *testing.T) {
	env := newTestEnv(t)
	seedSearchEnv(t, env, true)
	svc := newSearch(env)

	// Hedy has no follower count, so a lower bound excludes her.
	filters := search.NewFilters(search.WithMinFollowers(1000))
	results, err := svc.Search(context.Background(),
		search.NewQuery("software engineer munich", 5, nil, filters))
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, r := range results {
		require.NotNil(t, r.Lead().FollowerCount())
		assert.GreaterOrEqual(t, *r.Lead().FollowerCount(), int64(1000))
	}
}

func TestHybridSearchDatasetScope(t *testing.T) {
	env := newTestEnv(t)
	seedSearchEnv(t, env, true)
	svc := newSearch(env)

	results, err := svc.Search(context.Background(),
		search.NewQuery("software engineer munich", 5, []string{"acme"}, search.Filters{}))
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, r := range results {
		assert.Equal(t, "acme", r.Lead().Dataset())
	}
}

func TestHybridSearchRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	svc := newSearch(env)

	_, err := svc.Search(context.Background(), search.NewQuery("  ", 5, nil, search.Filters{}))
	assert.ErrorIs(t, err, service.ErrEmptyQuery)

	_, err = svc.Search(context.Background(), search.NewQuery("munich", 0, nil, search.Filters{}))
	assert.ErrorIs(t, err, service.ErrInvalidTopK)
}

func TestHybridSearchNoMatches(t *testing.T) {
	env := newTestEnv(t)
	// Without vectors the ANN path cannot pad the result with distant
	// neighbors, so a gibberish query comes back empty.
	seedSearchEnv(t, env, false)
	svc := newSearch(env)

	results, err := svc.Search(context.Background(),
		search.NewQuery("zanzibar quokka", 5, nil, search.Filters{}))
	require.NoError(t, err)
	assert.Empty(t, results)
}
