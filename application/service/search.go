// Package service provides application layer services that orchestrate
// ingestion and retrieval over the domain stores.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/luminate-data/leadsearch/domain/lead"
	"github.com/luminate-data/leadsearch/domain/search"
	"github.com/luminate-data/leadsearch/internal/config"
)

// HybridSearch runs lexical and vector retrieval concurrently and fuses
// the two candidate lists into one ranking.
type HybridSearch struct {
	leads       lead.Store
	lexical     search.Lexical
	vectors     search.VectorIndex
	embedder    search.Embedder
	strategy    search.Strategy
	pathTimeout time.Duration
	logger      *slog.Logger
}

// NewHybridSearch creates a HybridSearch service. The embedder may be
// nil, in which case every query is lexical-only.
func NewHybridSearch(
	leads lead.Store,
	lexical search.Lexical,
	vectors search.VectorIndex,
	embedder search.Embedder,
	strategy search.Strategy,
	pathTimeout time.Duration,
	logger *slog.Logger,
) *HybridSearch {
	if logger == nil {
		logger = slog.Default()
	}
	if strategy == nil {
		strategy = search.NewWeightedSum(search.DefaultAlpha)
	}
	return &HybridSearch{
		leads:       leads,
		lexical:     lexical,
		vectors:     vectors,
		embedder:    embedder,
		strategy:    strategy,
		pathTimeout: pathTimeout,
		logger:      logger,
	}
}

// Search returns the top-k leads for the query, ranked by fused score.
// A failed or timed-out retrieval path degrades the result to the other
// path instead of failing the query.
func (s *HybridSearch) Search(ctx context.Context, query search.Query) ([]search.RankedLead, error) {
	if strings.TrimSpace(query.Text()) == "" {
		return nil, ErrEmptyQuery
	}
	if query.TopK() <= 0 {
		return nil, ErrInvalidTopK
	}

	// Filters drop candidates after fusion, so each path over-fetches.
	pool := config.CandidateMultiplier * query.TopK()
	if pool < config.MinCandidatePool {
		pool = config.MinCandidatePool
	}

	var lexical, vector []search.Candidate

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lexical = s.lexicalCandidates(gctx, query, pool)
		return nil
	})
	g.Go(func() error {
		vector = s.vectorCandidates(gctx, query, pool)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(lexical) == 0 && len(vector) == 0 {
		return []search.RankedLead{}, nil
	}

	fused := s.strategy.Fuse(lexical, vector)

	return s.hydrate(ctx, query, fused)
}

// lexicalCandidates runs the full-text path. Failures degrade to an
// empty list.
func (s *HybridSearch) lexicalCandidates(ctx context.Context, query search.Query, pool int) []search.Candidate {
	pathCtx, cancel := s.pathContext(ctx)
	defer cancel()

	candidates, err := s.lexical.Search(pathCtx, query.Text(), query.Datasets(), pool)
	if err != nil {
		s.logger.Warn("lexical search failed, degrading to vector-only",
			slog.String("error", err.Error()))
		return nil
	}
	return candidates
}

// vectorCandidates embeds the query once and runs the ANN path. An
// unconfigured embedder, an empty index, or a failure all degrade to an
// empty list.
func (s *HybridSearch) vectorCandidates(ctx context.Context, query search.Query, pool int) []search.Candidate {
	if s.embedder == nil || s.vectors == nil || s.vectors.Count() == 0 {
		return nil
	}

	pathCtx, cancel := s.pathContext(ctx)
	defer cancel()

	embeddings, err := s.embedder.Embed(pathCtx, []string{query.Text()})
	if err != nil {
		s.logger.Warn("query embedding failed, degrading to lexical-only",
			slog.String("error", err.Error()))
		return nil
	}
	if len(embeddings) != 1 {
		s.logger.Warn("query embedding returned unexpected vector count",
			slog.Int("count", len(embeddings)))
		return nil
	}

	candidates, err := s.vectors.Search(embeddings[0], pool)
	if err != nil {
		s.logger.Warn("vector search failed, degrading to lexical-only",
			slog.String("error", err.Error()))
		return nil
	}
	return candidates
}

func (s *HybridSearch) pathContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.pathTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.pathTimeout)
}

// hydrate loads the fused candidates, applies post-fusion filters, and
// truncates to k. Filtering happens before truncation so result pages
// are not silently thinned.
func (s *HybridSearch) hydrate(ctx context.Context, query search.Query, fused []search.Fused) ([]search.RankedLead, error) {
	ids := make([]int64, len(fused))
	byID := make(map[int64]search.Fused, len(fused))
	for i, f := range fused {
		ids[i] = f.ID()
		byID[f.ID()] = f
	}

	leads, err := s.leads.FetchByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	datasets := query.Datasets()
	filters := query.Filters()

	ranked := make([]search.RankedLead, 0, query.TopK())
	for _, l := range leads {
		if len(ranked) == query.TopK() {
			break
		}
		if !datasetAllowed(l, datasets) {
			continue
		}
		if !filters.Empty() && !filters.Match(l) {
			continue
		}
		f := byID[l.ID()]
		ranked = append(ranked, search.NewRankedLead(l, f.Score(), f.LexicalScore(), f.VectorScore()))
	}

	return ranked, nil
}

// datasetAllowed reports whether the lead belongs to one of the
// requested datasets. The lexical path filters per-query; the vector
// index has no dataset notion, so the check runs here for both.
func datasetAllowed(l lead.Lead, datasets []string) bool {
	if len(datasets) == 0 {
		return true
	}
	for _, d := range datasets {
		if l.Dataset() == d {
			return true
		}
	}
	return false
}
