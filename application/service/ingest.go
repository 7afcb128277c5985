package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/luminate-data/leadsearch/domain/ingest"
	"github.com/luminate-data/leadsearch/domain/lead"
	"github.com/luminate-data/leadsearch/domain/search"
	"github.com/luminate-data/leadsearch/infrastructure/archive"
	"github.com/luminate-data/leadsearch/internal/config"
)

// ErrRowLimitReached stops a run once the configured row budget is spent.
var ErrRowLimitReached = errors.New("row limit reached")

// Ingest streams zipped tabular datasets into the lead store and the
// vector index. Files already recorded in the ledger are skipped, so a
// crashed run resumes at file granularity.
type Ingest struct {
	leads        lead.Store
	ledger       ingest.Ledger
	meta         ingest.Meta
	vectors      search.VectorIndex
	embedder     search.Embedder
	progress     ingest.ProgressSink
	batchSize    int
	batchRetries int
	flushEvery   int
	logger       *slog.Logger
}

// NewIngest creates an Ingest service. The embedder may be nil; every
// run then defers vectorization to a later Vectorize pass.
func NewIngest(
	leads lead.Store,
	ledger ingest.Ledger,
	meta ingest.Meta,
	vectors search.VectorIndex,
	embedder search.Embedder,
	progress ingest.ProgressSink,
	batchSize, batchRetries, flushEvery int,
	logger *slog.Logger,
) *Ingest {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}
	if batchRetries < 0 {
		batchRetries = config.DefaultBatchRetries
	}
	if flushEvery <= 0 {
		flushEvery = config.DefaultFlushEvery
	}
	return &Ingest{
		leads:        leads,
		ledger:       ledger,
		meta:         meta,
		vectors:      vectors,
		embedder:     embedder,
		progress:     progress,
		batchSize:    batchSize,
		batchRetries: batchRetries,
		flushEvery:   flushEvery,
		logger:       logger,
	}
}

// RunOption configures one ingestion run.
type RunOption func(*runConfig)

type runConfig struct {
	pattern      string
	rowLimit     int64
	aliases      lead.AliasTable
	required     []lead.Field
	deferVectors bool
}

// WithPattern selects archive members by base-name glob.
func WithPattern(pattern string) RunOption {
	return func(c *runConfig) { c.pattern = pattern }
}

// WithRowLimit bounds the number of rows stored in this run. Useful for
// sampling a large archive; the partially read file is not recorded as
// complete.
func WithRowLimit(n int64) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.rowLimit = n
		}
	}
}

// WithAliases merges dataset-specific column aliases over the defaults.
func WithAliases(aliases lead.AliasTable) RunOption {
	return func(c *runConfig) { c.aliases = aliases }
}

// WithRequiredFields makes rows lacking these fields schema errors.
func WithRequiredFields(fields ...lead.Field) RunOption {
	return func(c *runConfig) { c.required = fields }
}

// WithDeferredVectors stores rows without embedding them. A later
// Vectorize pass appends the missing vectors.
func WithDeferredVectors() RunOption {
	return func(c *runConfig) { c.deferVectors = true }
}

// runState carries cumulative counters across the files of one run.
type runState struct {
	dataset        string
	rowsProcessed  int64
	rowsSkipped    int64
	filesCompleted int
	filesTotal     int
	startedAt      time.Time
}

func (r *runState) progress(currentFile string, st ingest.FileState) ingest.Progress {
	elapsed := time.Since(r.startedAt)
	var remaining time.Duration
	if r.filesCompleted > 0 && r.filesCompleted < r.filesTotal {
		perFile := elapsed / time.Duration(r.filesCompleted)
		remaining = perFile * time.Duration(r.filesTotal-r.filesCompleted)
	}
	return ingest.NewProgress(
		r.dataset, currentFile, st,
		r.rowsProcessed, r.rowsSkipped,
		r.filesCompleted, r.filesTotal,
		elapsed, remaining,
	)
}

// Run ingests the archive into the dataset and returns a per-file report.
// Per-file failures are recorded in the report and do not abort the run;
// only run-level failures (unreadable archive, cancellation) return an
// error.
func (s *Ingest) Run(ctx context.Context, archivePath, dataset string, opts ...RunOption) (ingest.RunReport, error) {
	cfg := runConfig{aliases: lead.DefaultAliases()}
	for _, opt := range opts {
		opt(&cfg)
	}
	aliases := lead.DefaultAliases().Merge(cfg.aliases)

	z, err := archive.OpenZip(archivePath)
	if err != nil {
		return ingest.RunReport{}, err
	}
	defer func() { _ = z.Close() }()

	members, err := z.Members(cfg.pattern)
	if err != nil {
		return ingest.RunReport{}, err
	}
	if len(members) == 0 {
		return ingest.RunReport{}, fmt.Errorf("%w: %q in %s", ingest.ErrNoMembers, cfg.pattern, archivePath)
	}

	state := &runState{
		dataset:    dataset,
		filesTotal: len(members),
		startedAt:  time.Now(),
	}

	s.logger.Info("starting ingestion run",
		slog.String("dataset", dataset),
		slog.String("archive", archivePath),
		slog.Int("files", len(members)),
	)

	var reports []ingest.FileReport
	limitHit := false

	for _, member := range members {
		if err := ctx.Err(); err != nil {
			return ingest.NewRunReport(reports), err
		}
		if limitHit {
			reports = append(reports, ingest.NewFileReport(member.Name(), ingest.StatePending, 0, 0, ErrRowLimitReached.Error()))
			continue
		}

		done, err := s.ledger.IsComplete(ctx, dataset, member.Name())
		if err != nil {
			return ingest.NewRunReport(reports), fmt.Errorf("check ledger for %s: %w", member.Name(), err)
		}
		if done {
			s.logger.Info("file already ingested, skipping", slog.String("file", member.Name()))
			reports = append(reports, ingest.NewFileReport(member.Name(), ingest.StateSkipped, 0, 0, ""))
			continue
		}

		report := s.processFile(ctx, member, dataset, &cfg, aliases, state)
		reports = append(reports, report)

		if report.State() == ingest.StateCompleted {
			state.filesCompleted++
		}
		if report.Failure() == ErrRowLimitReached.Error() {
			limitHit = true
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			s.updateProgress(state, "", report.State(), true)
			return ingest.NewRunReport(reports), ctx.Err()
		}

		s.updateProgress(state, "", report.State(), true)
	}

	report := ingest.NewRunReport(reports)
	s.logger.Info("ingestion run finished",
		slog.String("dataset", dataset),
		slog.Int("completed", report.Completed()),
		slog.Int("failed", report.Failed()),
		slog.Int("skipped", report.Skipped()),
		slog.Int64("rows", report.Rows()),
		slog.Int64("row_errors", report.RowErrors()),
	)
	return report, nil
}

// committedBatch is a batch whose rows are durably stored and now await
// vectors.
type committedBatch struct {
	ids   []int64
	texts []string
}

// processFile streams one archive member through the batch pipeline.
// Commit of batch N+1 overlaps embedding of batch N through a channel of
// depth one, which also bounds memory to two in-flight batches.
func (s *Ingest) processFile(
	ctx context.Context,
	member *archive.Member,
	dataset string,
	cfg *runConfig,
	aliases lead.AliasTable,
	state *runState,
) ingest.FileReport {
	fileName := member.Name()
	logger := s.logger.With(slog.String("file", fileName), slog.String("dataset", dataset))

	rows, err := member.Rows()
	if err != nil {
		logger.Error("cannot open file", slog.String("error", err.Error()))
		return ingest.NewFileReport(fileName, ingest.StateFailed, 0, 0, err.Error())
	}
	defer func() { _ = rows.Close() }()

	normalizer := lead.NewNormalizer(aliases, lead.WithRequired(cfg.required...))

	vectorize := !cfg.deferVectors && s.embedder != nil && s.vectors != nil

	var fileRows, fileErrors int64
	var failure error

	// The vector stage reports through these rather than the errgroup:
	// an embed or append failure must not cancel the streaming side,
	// because committed rows stay durable either way and the watermark
	// lets a Vectorize pass finish the job.
	var vectorHigh int64
	var vectorErr error

	g, gctx := errgroup.WithContext(ctx)
	committed := make(chan committedBatch, 1)

	g.Go(func() error {
		if !vectorize {
			for range committed {
			}
			return nil
		}
		vectorHigh, vectorErr = s.vectorStage(gctx, committed)
		return nil
	})

	logger.Debug("streaming file")
	s.updateProgress(state, fileName, ingest.StateStreaming, true)

	batch := make([]lead.Lead, 0, s.batchSize)

	flushBatch := func() error {
		if len(batch) == 0 {
			return nil
		}
		ids, texts, err := s.commitBatch(gctx, batch)
		if err != nil {
			return err
		}
		state.rowsProcessed += int64(len(batch))
		fileRows += int64(len(batch))
		batch = batch[:0]

		select {
		case committed <- committedBatch{ids: ids, texts: texts}:
		case <-gctx.Done():
			return gctx.Err()
		}

		s.updateProgress(state, fileName, ingest.StateBatchCommitting, false)
		return nil
	}

stream:
	for {
		if err := gctx.Err(); err != nil {
			failure = err
			break
		}
		if cfg.rowLimit > 0 && state.rowsProcessed+int64(len(batch)) >= cfg.rowLimit {
			// Commit what fits the budget before stopping.
			if keep := cfg.rowLimit - state.rowsProcessed; keep < int64(len(batch)) {
				batch = batch[:keep]
			}
			if err := flushBatch(); err != nil {
				failure = err
			} else {
				failure = ErrRowLimitReached
			}
			break
		}

		record, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break stream
		}
		if err != nil {
			failure = fmt.Errorf("read row: %w", err)
			break
		}

		l, err := normalizer.Normalize(dataset, fileName, record)
		if err != nil {
			var schemaErr *lead.SchemaError
			if errors.As(err, &schemaErr) {
				fileErrors++
				state.rowsSkipped++
				continue
			}
			failure = err
			break
		}

		batch = append(batch, l)
		if len(batch) >= s.batchSize {
			if err := flushBatch(); err != nil {
				failure = err
				break
			}
		}
	}

	if failure == nil {
		failure = flushBatch()
	}

	close(committed)
	if vectorize {
		s.updateProgress(state, fileName, ingest.StateVectorAppending, false)
	}
	_ = g.Wait()

	// Vectors appended before any stage failure still get persisted, and
	// the watermark then covers exactly what is durable on disk.
	if vectorize && vectorHigh > 0 {
		if err := s.flushVectors(ctx, vectorHigh); err != nil && vectorErr == nil {
			vectorErr = err
		}
	}

	if errors.Is(failure, ErrRowLimitReached) {
		// Not a failure: the run's row budget ran out mid-file. The file
		// stays off the ledger, so the next unlimited run re-reads it.
		logger.Info("row limit reached mid-file",
			slog.Int64("rows", fileRows),
		)
		return ingest.NewFileReport(fileName, ingest.StatePending, fileRows, fileErrors, failure.Error())
	}
	if failure != nil {
		logger.Error("file failed",
			slog.Int64("rows", fileRows),
			slog.String("error", failure.Error()),
		)
		return ingest.NewFileReport(fileName, ingest.StateFailed, fileRows, fileErrors, failure.Error())
	}

	// Every row is durable at this point, so the file goes on the ledger
	// even when its vector stage failed: a rerun must not re-insert the
	// rows, and a Vectorize pass appends the missing vectors from the
	// watermark without re-parsing the archive.
	record := ingest.NewProcessedFile(dataset, fileName, fileRows, fileErrors, vectorize && vectorErr == nil, time.Now())
	if err := s.ledger.MarkComplete(ctx, record); err != nil {
		logger.Error("cannot record completed file", slog.String("error", err.Error()))
		return ingest.NewFileReport(fileName, ingest.StateFailed, fileRows, fileErrors, err.Error())
	}

	if vectorErr != nil {
		logger.Warn("file completed with its vector stage incomplete, run vectorize to repair",
			slog.Int64("rows", fileRows),
			slog.String("error", vectorErr.Error()),
		)
		return ingest.NewFileReport(fileName, ingest.StateCompleted, fileRows, fileErrors, vectorErr.Error())
	}

	logger.Info("file completed",
		slog.Int64("rows", fileRows),
		slog.Int64("row_errors", fileErrors),
	)
	return ingest.NewFileReport(fileName, ingest.StateCompleted, fileRows, fileErrors, "")
}

// commitBatch stores the batch with bounded retry. The transaction rolls
// back atomically on failure, so a retry re-runs from the same rows.
func (s *Ingest) commitBatch(ctx context.Context, batch []lead.Lead) ([]int64, []string, error) {
	var lastErr error

	for attempt := 0; attempt <= s.batchRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		ids, err := s.leads.InsertBatch(ctx, batch)
		if err == nil {
			texts := make([]string, len(batch))
			for i, l := range batch {
				texts[i] = l.TextConcat()
			}
			return ids, texts, nil
		}
		lastErr = err

		s.logger.Warn("batch commit failed",
			slog.Int("attempt", attempt+1),
			slog.Int("batch_size", len(batch)),
			slog.String("error", err.Error()),
		)

		if attempt < s.batchRetries {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
	}

	return nil, nil, fmt.Errorf("batch commit exhausted %d retries: %w", s.batchRetries, lastErr)
}

// vectorStage embeds committed batches and appends them to the index.
// Rows are always durable before their vectors exist, so a crash here
// loses vectors only; the watermark lets Vectorize repair the gap. On
// failure the stage keeps draining the channel without appending, so
// the committing side finishes the file.
func (s *Ingest) vectorStage(ctx context.Context, committed <-chan committedBatch) (int64, error) {
	var high int64
	var stageErr error
	batches := 0

	for c := range committed {
		if stageErr != nil || ctx.Err() != nil {
			continue
		}

		vectors, err := s.embedder.Embed(ctx, c.texts)
		if err != nil {
			stageErr = errors.Join(ingest.ErrVectorIndex, fmt.Errorf("embed batch: %w", err))
			continue
		}
		if err := s.vectors.Add(c.ids, vectors); err != nil {
			stageErr = errors.Join(ingest.ErrVectorIndex, err)
			continue
		}
		high = c.ids[len(c.ids)-1]

		batches++
		if batches%s.flushEvery == 0 {
			if err := s.flushVectors(ctx, high); err != nil {
				stageErr = err
				continue
			}
		}
	}
	return high, stageErr
}

// flushVectors persists the index before the watermark, in that order:
// the durable watermark must never point past vectors that are not yet
// on disk, or a later repair pass would skip them.
func (s *Ingest) flushVectors(ctx context.Context, high int64) error {
	if err := s.vectors.Flush(); err != nil {
		return errors.Join(ingest.ErrVectorIndex, fmt.Errorf("flush vector index: %w", err))
	}
	return s.advanceWatermark(ctx, high)
}

// advanceWatermark records the highest lead id whose vector is indexed.
func (s *Ingest) advanceWatermark(ctx context.Context, id int64) error {
	current, ok, err := s.meta.Get(ctx, ingest.MetaUnvectorizedWatermark)
	if err != nil {
		return err
	}
	if ok {
		n, err := strconv.ParseInt(current, 10, 64)
		if err == nil && n >= id {
			return nil
		}
	}
	return s.meta.Set(ctx, ingest.MetaUnvectorizedWatermark, strconv.FormatInt(id, 10))
}

func (s *Ingest) updateProgress(state *runState, currentFile string, st ingest.FileState, force bool) {
	if s.progress == nil {
		return
	}
	// Terminal transitions always write through the throttle.
	s.progress.Update(state.progress(currentFile, st), force || st.Terminal())
}
