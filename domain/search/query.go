// Package search provides the query, candidate, and fusion types for
// hybrid lead retrieval.
package search

import (
	"strings"

	"github.com/luminate-data/leadsearch/domain/lead"
)

// Query is one hybrid search request.
type Query struct {
	text     string
	topK     int
	datasets []string
	filters  Filters
}

// NewQuery creates a Query.
func NewQuery(text string, topK int, datasets []string, filters Filters) Query {
	var ds []string
	if datasets != nil {
		ds = make([]string, len(datasets))
		copy(ds, datasets)
	}
	return Query{
		text:     text,
		topK:     topK,
		datasets: ds,
		filters:  filters,
	}
}

// Text returns the free-text query.
func (q Query) Text() string { return q.text }

// TopK returns the number of results requested.
func (q Query) TopK() int { return q.topK }

// Datasets returns the dataset filter, empty for all datasets.
func (q Query) Datasets() []string {
	if q.datasets == nil {
		return nil
	}
	ds := make([]string, len(q.datasets))
	copy(ds, q.datasets)
	return ds
}

// Filters returns the post-fusion row filters.
func (q Query) Filters() Filters { return q.filters }

// Filters restricts hydrated rows after fusion. Filters are applied before
// truncating to k so that matching rows deeper in the candidate pool are
// never hidden by non-matching ones.
type Filters struct {
	category     string
	minFollowers *int64
	maxFollowers *int64
}

// FiltersOption configures Filters.
type FiltersOption func(*Filters)

// WithCategory filters rows by exact category (case-insensitive).
func WithCategory(category string) FiltersOption {
	return func(f *Filters) { f.category = category }
}

// WithMinFollowers drops rows with fewer followers (or no follower count).
func WithMinFollowers(n int64) FiltersOption {
	return func(f *Filters) { f.minFollowers = &n }
}

// WithMaxFollowers drops rows with more followers.
func WithMaxFollowers(n int64) FiltersOption {
	return func(f *Filters) { f.maxFollowers = &n }
}

// NewFilters creates Filters.
func NewFilters(opts ...FiltersOption) Filters {
	var f Filters
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f.category == "" && f.minFollowers == nil && f.maxFollowers == nil
}

// Category returns the category filter, empty when unset.
func (f Filters) Category() string { return f.category }

// MinFollowers returns the lower follower bound, nil when unset.
func (f Filters) MinFollowers() *int64 { return f.minFollowers }

// MaxFollowers returns the upper follower bound, nil when unset.
func (f Filters) MaxFollowers() *int64 { return f.maxFollowers }

// Match reports whether a hydrated lead passes the filters.
func (f Filters) Match(l lead.Lead) bool {
	if f.category != "" && !strings.EqualFold(l.Category(), f.category) {
		return false
	}
	if f.minFollowers != nil {
		fc := l.FollowerCount()
		if fc == nil || *fc < *f.minFollowers {
			return false
		}
	}
	if f.maxFollowers != nil {
		fc := l.FollowerCount()
		if fc == nil || *fc > *f.maxFollowers {
			return false
		}
	}
	return true
}
