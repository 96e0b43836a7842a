package integration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/patentflow/internal/domain/patent"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentflow/internal/search"
	"github.com/turtacn/patentflow/internal/source/patentsview"
	"github.com/turtacn/patentflow/pkg/errors"
)

// RunStatus is the terminal (or current) state of an indexing run.
type RunStatus string

const (
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// Run is the token for one indexing run.  The orchestrator returns a
// snapshot copy; the caller never shares mutable state with the loop.
type Run struct {
	ID      string
	Status  RunStatus
	Indexed int
	Total   int
	Err     error
}

// sourceFetcher is the slice of the source client the orchestrator needs.
type sourceFetcher interface {
	GetPatents(ctx context.Context, query patentsview.Query, fields []string, opts patentsview.Options) (*patentsview.Response, error)
}

// pageArchiver stores raw source pages for replay.  Optional.
type pageArchiver interface {
	PutRawPage(ctx context.Context, source string, page int, raw []byte) error
}

// Indexer orchestrates the paginated fetch-transform-index loop from the
// source API into the search engine.  One run may be active at a time per
// instance; a second start while one is active is refused without
// touching the active run's progress.
type Indexer struct {
	source      sourceFetcher
	transformer *patentsview.Transformer
	engine      search.Engine
	archiver    pageArchiver
	metrics     *prometheus.Metrics
	logger      logging.Logger

	pageSize   int
	maxPatents int

	mu     sync.Mutex
	active *Run
}

// NewIndexer creates an Indexer.  archiver may be nil; maxPatents of zero
// means unbounded.
func NewIndexer(source sourceFetcher, transformer *patentsview.Transformer, engine search.Engine,
	archiver pageArchiver, metrics *prometheus.Metrics, pageSize, maxPatents int, logger logging.Logger) *Indexer {
	return &Indexer{
		source:      source,
		transformer: transformer,
		engine:      engine,
		archiver:    archiver,
		metrics:     metrics,
		logger:      logger.Named("indexer"),
		pageSize:    pageSize,
		maxPatents:  maxPatents,
	}
}

// Status returns a snapshot of the active run, or nil when idle.
func (ix *Indexer) Status() *Run {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.active == nil {
		return nil
	}
	snapshot := *ix.active
	return &snapshot
}

// IndexFromSource runs one full indexing pass for the given source query.
// It first counts the matching records with a minimal projection, clamps
// the total to the configured maximum, then fetches, transforms, and
// bulk-indexes page by page.  Pages are strictly sequential; cancelling
// ctx stops the run at the next page boundary.  A mid-run failure leaves
// already-indexed pages in place.
func (ix *Indexer) IndexFromSource(ctx context.Context, query patentsview.Query) (*Run, error) {
	run, err := ix.begin()
	if err != nil {
		return run, err
	}

	total, err := ix.countTotal(ctx, query)
	if err != nil {
		return ix.finish(run, err)
	}
	ix.setTotal(run.ID, total)
	ix.logger.Info("indexing run started",
		logging.String("run_id", run.ID),
		logging.Int("total", total))

	indexed := 0
	for page := 1; indexed < total; page++ {
		if err := ctx.Err(); err != nil {
			return ix.finish(run, errors.Wrap(err, errors.ErrCodeIndexingFailed, "indexing run cancelled"))
		}

		count, err := ix.indexPage(ctx, query, page, total-indexed)
		if err != nil {
			return ix.finish(run, err)
		}
		if count == 0 {
			// The source ran out of records before the advertised total.
			break
		}

		indexed += count
		ix.setProgress(run.ID, indexed)
	}

	ix.logger.Info("indexing run complete",
		logging.String("run_id", run.ID),
		logging.Int("indexed", indexed))
	return ix.finish(run, nil)
}

// indexPage fetches, archives, transforms, and bulk-indexes one page,
// returning the number of documents indexed.  Every fetch uses the same
// page size so the 1-based page counter keeps addressing the same source
// windows; the transformed slice is truncated to remaining so a clamped
// run indexes exactly its total.
func (ix *Indexer) indexPage(ctx context.Context, query patentsview.Query, page, remaining int) (int, error) {
	started := time.Now()

	resp, err := ix.source.GetPatents(ctx, query, patentsview.FullRecordFields,
		patentsview.Options{PerPage: ix.pageSize, Page: page})
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeIndexingFailed, "page fetch failed")
	}
	ix.metrics.IndexingPages.Inc()

	if ix.archiver != nil {
		if err := ix.archiver.PutRawPage(ctx, patent.SourcePatentsView, page, resp.Raw); err != nil {
			ix.logger.Warn("raw page archive failed",
				logging.Int("page", page),
				logging.Err(err))
		}
	}

	patents, err := ix.transformer.TransformMany(resp.Patents)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeIndexingFailed, "page transform failed")
	}
	if len(patents) == 0 {
		return 0, nil
	}
	if len(patents) > remaining {
		patents = patents[:remaining]
	}

	if err := ix.engine.AddDocuments(ctx, patents); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeIndexingFailed, "page indexing failed")
	}

	ix.metrics.IndexingDocuments.Add(float64(len(patents)))
	ix.metrics.PageDuration.Observe(time.Since(started).Seconds())
	return len(patents), nil
}

// countTotal queries the source once with a minimal projection to learn
// how many records match, clamped to the configured maximum.
func (ix *Indexer) countTotal(ctx context.Context, query patentsview.Query) (int, error) {
	resp, err := ix.source.GetPatents(ctx, query, []string{"patent_id"}, patentsview.Options{PerPage: 1})
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeIndexingFailed, "source count query failed")
	}
	total := resp.TotalPatentCount
	if ix.maxPatents > 0 && total > ix.maxPatents {
		total = ix.maxPatents
	}
	return total, nil
}

// begin claims the single active-run slot.
func (ix *Indexer) begin() (*Run, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.active != nil {
		snapshot := *ix.active
		return &snapshot, errors.Newf(errors.ErrCodeIndexingInProgress,
			"indexing run %s already in progress", ix.active.ID)
	}
	ix.active = &Run{ID: uuid.NewString(), Status: RunStatusInProgress}
	snapshot := *ix.active
	return &snapshot, nil
}

func (ix *Indexer) setTotal(runID string, total int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.active != nil && ix.active.ID == runID {
		ix.active.Total = total
	}
}

func (ix *Indexer) setProgress(runID string, indexed int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.active != nil && ix.active.ID == runID {
		ix.active.Indexed = indexed
	}
}

// finish releases the active-run slot and returns the terminal run
// snapshot.  Partially indexed pages stay indexed on failure.
func (ix *Indexer) finish(run *Run, err error) (*Run, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.active != nil && ix.active.ID == run.ID {
		snapshot := *ix.active
		*run = snapshot
	}
	ix.active = nil

	if err != nil {
		run.Status = RunStatusFailed
		run.Err = err
		ix.metrics.IndexingRuns.WithLabelValues(string(RunStatusFailed)).Inc()
		return run, err
	}
	run.Status = RunStatusComplete
	ix.metrics.IndexingRuns.WithLabelValues(string(RunStatusComplete)).Inc()
	return run, nil
}
