package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/luminate-data/leadsearch/domain/ingest"
	"github.com/luminate-data/leadsearch/domain/lead"
	"github.com/luminate-data/leadsearch/domain/search"
	"github.com/luminate-data/leadsearch/internal/config"
)

// Vectorize appends embeddings for stored rows the vector index does not
// cover yet. It reads from the store, never from the archives, so it
// repairs both deferred ingestion runs and crash-induced vector gaps.
type Vectorize struct {
	leads      lead.Store
	meta       ingest.Meta
	vectors    search.VectorIndex
	embedder   search.Embedder
	pageSize   int
	flushEvery int
	logger     *slog.Logger
}

// NewVectorize creates a Vectorize service.
func NewVectorize(
	leads lead.Store,
	meta ingest.Meta,
	vectors search.VectorIndex,
	embedder search.Embedder,
	pageSize, flushEvery int,
	logger *slog.Logger,
) *Vectorize {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = config.DefaultBatchSize
	}
	if flushEvery <= 0 {
		flushEvery = config.DefaultFlushEvery
	}
	return &Vectorize{
		leads:      leads,
		meta:       meta,
		vectors:    vectors,
		embedder:   embedder,
		pageSize:   pageSize,
		flushEvery: flushEvery,
		logger:     logger,
	}
}

// Run embeds every stored row above the vectorization watermark and
// returns the number of vectors appended. With rebuild set, the
// watermark resets to zero; the caller must start from an empty index
// directory, re-adding known ids is an error.
func (s *Vectorize) Run(ctx context.Context, rebuild bool) (int64, error) {
	if s.embedder == nil {
		return 0, ErrNoEmbedder
	}

	if rebuild {
		if s.vectors.Count() > 0 {
			return 0, errors.Join(ingest.ErrConfiguration,
				errors.New("rebuild requires an empty index directory"))
		}
		if err := s.meta.Set(ctx, ingest.MetaUnvectorizedWatermark, "0"); err != nil {
			return 0, err
		}
	}

	watermark, err := s.watermark(ctx)
	if err != nil {
		return 0, err
	}

	s.logger.Info("vectorizing stored rows",
		slog.Int64("watermark", watermark),
		slog.Int("indexed", s.vectors.Count()),
	)

	var appended int64
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			return appended, err
		}

		page, err := s.leads.FetchAfter(ctx, watermark, s.pageSize)
		if err != nil {
			return appended, err
		}
		if len(page) == 0 {
			break
		}

		ids := make([]int64, len(page))
		texts := make([]string, len(page))
		for i, l := range page {
			ids[i] = l.ID()
			texts[i] = l.TextConcat()
		}

		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return appended, errors.Join(ingest.ErrVectorIndex, fmt.Errorf("embed page: %w", err))
		}
		if err := s.vectors.Add(ids, vectors); err != nil {
			return appended, errors.Join(ingest.ErrVectorIndex, err)
		}

		// The watermark only moves in memory here; it becomes durable
		// together with a flush, so it never points past vectors missing
		// from disk after a crash.
		watermark = ids[len(ids)-1]

		appended += int64(len(page))
		pages++
		if pages%s.flushEvery == 0 {
			if err := s.flush(ctx, watermark); err != nil {
				return appended, err
			}
		}

		s.logger.Debug("vectorized page",
			slog.Int("rows", len(page)),
			slog.Int64("watermark", watermark),
		)
	}

	if err := s.flush(ctx, watermark); err != nil {
		return appended, err
	}

	s.logger.Info("vectorization finished", slog.Int64("appended", appended))
	return appended, nil
}

// flush persists the index and then the watermark.
func (s *Vectorize) flush(ctx context.Context, watermark int64) error {
	if err := s.vectors.Flush(); err != nil {
		return errors.Join(ingest.ErrVectorIndex, err)
	}
	return s.meta.Set(ctx, ingest.MetaUnvectorizedWatermark, strconv.FormatInt(watermark, 10))
}

func (s *Vectorize) watermark(ctx context.Context) (int64, error) {
	raw, ok, err := s.meta.Get(ctx, ingest.MetaUnvectorizedWatermark)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt vectorization watermark %q: %w", raw, err)
	}
	return n, nil
}
