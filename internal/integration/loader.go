// Package integration is the write side of the pipeline: the versioned
// upsert engine, the indexing orchestrator, and the service that drives
// fetch-transform-load against the source API.
package integration

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/patentflow/internal/domain/patent"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentflow/pkg/errors"
)

// UpsertOutcome classifies what a single upsert did.
type UpsertOutcome string

const (
	OutcomeCreated  UpsertOutcome = "created"
	OutcomeUpdated  UpsertOutcome = "updated"
	OutcomeRejected UpsertOutcome = "rejected"
	OutcomeFailed   UpsertOutcome = "failed"
)

// UpsertError ties one failed patent to its error.
type UpsertError struct {
	PatentID string
	Err      error
}

// Result aggregates a multi-patent upsert.
type Result struct {
	TotalProcessed int
	SuccessCount   int
	FailureCount   int
	Errors         []UpsertError
}

func (r *Result) recordFailure(patentID string, err error) {
	r.FailureCount++
	r.Errors = append(r.Errors, UpsertError{PatentID: patentID, Err: err})
}

// merge folds another result into r.
func (r *Result) merge(other *Result) {
	r.TotalProcessed += other.TotalProcessed
	r.SuccessCount += other.SuccessCount
	r.FailureCount += other.FailureCount
	r.Errors = append(r.Errors, other.Errors...)
}

// Loader is the upsert engine.  Every patent mutation in the system goes
// through it, so version numbers and change history stay consistent.
type Loader struct {
	store     patent.DocumentStore
	publisher patent.ChangePublisher
	metrics   *prometheus.Metrics
	logger    logging.Logger
	chunkSize int
	now       func() time.Time
}

// NewLoader creates a Loader.  publisher may be nil when change events are
// not wired; chunkSize bounds the store's atomic-write unit.
func NewLoader(store patent.DocumentStore, publisher patent.ChangePublisher, metrics *prometheus.Metrics, chunkSize int, logger logging.Logger) *Loader {
	return &Loader{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.Named("loader"),
		chunkSize: chunkSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// preparedWrite is a patent that passed validation and metadata
// preparation and is ready to commit.
type preparedWrite struct {
	patent        *patent.Patent
	outcome       UpsertOutcome
	fieldsChanged []string
}

// prepare validates one patent and stamps its metadata for the write:
// creation metadata for a new document, an incremented version plus a
// change-history entry for an existing one.  It does not touch the store
// beyond reads.
func (l *Loader) prepare(ctx context.Context, p *patent.Patent) (*preparedWrite, error) {
	result := patent.Validate(p)
	if !result.IsValid {
		l.metrics.ValidationFailures.Inc()
		return nil, errors.Newf(errors.ErrCodeValidationFailed, "validation failed: %s",
			strings.Join(result.ErrorMessages(), "; ")).WithDetail(p.PatentID)
	}
	for _, w := range result.Warnings() {
		l.logger.Warn("validation warning",
			logging.String("patent_id", p.PatentID),
			logging.String("field", w.Field),
			logging.String("message", w.Message))
	}
	l.logger.Debug("patent completeness",
		logging.String("patent_id", p.PatentID),
		logging.Int("score", patent.CompletenessScore(p)))

	exists, err := l.store.Exists(ctx, p.PatentID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreReadFailed, "existence check failed").
			WithDetail(p.PatentID)
	}
	if !exists {
		return l.prepareCreate(p), nil
	}

	old, err := l.store.Get(ctx, p.PatentID)
	if errors.IsNotFound(err) {
		// The document vanished between Exists and Get; fall back to a
		// create rather than failing the write.
		return l.prepareCreate(p), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreReadFailed, "fetch of existing document failed").
			WithDetail(p.PatentID)
	}
	return l.prepareUpdate(old, p), nil
}

func (l *Loader) prepareCreate(p *patent.Patent) *preparedWrite {
	now := l.now()
	var sourceVersion map[string]string
	if p.Metadata != nil {
		sourceVersion = p.Metadata.SourceVersion
	}
	p.Metadata = patent.NewMetadata(p.Source, sourceVersion, now)
	return &preparedWrite{patent: p, outcome: OutcomeCreated, fieldsChanged: []string{"all"}}
}

func (l *Loader) prepareUpdate(old, p *patent.Patent) *preparedWrite {
	now := l.now()
	changed := patent.DetectChangedFields(old, p)

	previousVersion := 1
	createdAt := now
	var history []patent.ChangeHistoryEntry
	if old.Metadata != nil {
		previousVersion = old.Metadata.Version
		createdAt = old.Metadata.CreatedAt
		history = old.Metadata.ChangeHistory
	}

	var sourceVersion map[string]string
	if p.Metadata != nil {
		sourceVersion = p.Metadata.SourceVersion
	}

	version := previousVersion + 1
	p.Metadata = &patent.Metadata{
		CreatedAt:     createdAt,
		UpdatedAt:     now,
		Version:       version,
		SourceVersion: sourceVersion,
		ChangeHistory: append(history, patent.ChangeHistoryEntry{
			Version:       version,
			Timestamp:     now,
			Source:        p.Source,
			FieldsChanged: changed,
		}),
	}
	return &preparedWrite{patent: p, outcome: OutcomeUpdated, fieldsChanged: changed}
}

// Upsert validates and writes one patent, creating it at version 1 or
// updating it with a version bump and change-history entry.
func (l *Loader) Upsert(ctx context.Context, p *patent.Patent) (UpsertOutcome, error) {
	prepared, err := l.prepare(ctx, p)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeValidationFailed) {
			l.metrics.Upserts.WithLabelValues(prometheus.OutcomeRejected).Inc()
			return OutcomeRejected, err
		}
		l.metrics.Upserts.WithLabelValues(prometheus.OutcomeFailed).Inc()
		return OutcomeFailed, err
	}

	if err := l.store.Set(ctx, prepared.patent, true); err != nil {
		l.metrics.Upserts.WithLabelValues(prometheus.OutcomeFailed).Inc()
		return OutcomeFailed, errors.Wrap(err, errors.ErrCodeStoreWriteFailed, "upsert write failed").
			WithDetail(p.PatentID)
	}

	l.afterWrite(ctx, prepared)
	return prepared.outcome, nil
}

// UpsertBatch upserts many patents, chunked to the store's atomic-write
// limit.  Within one chunk the commit is all-or-nothing: a commit failure
// fails every patent in that chunk, including those that individually
// validated.  Chunks are independent of one another.
func (l *Loader) UpsertBatch(ctx context.Context, patents []*patent.Patent) *Result {
	result := &Result{}
	for start := 0; start < len(patents); start += l.chunkSize {
		end := start + l.chunkSize
		if end > len(patents) {
			end = len(patents)
		}
		result.merge(l.upsertChunk(ctx, patents[start:end]))
	}
	return result
}

func (l *Loader) upsertChunk(ctx context.Context, chunk []*patent.Patent) *Result {
	result := &Result{TotalProcessed: len(chunk)}

	prepared := make([]*preparedWrite, 0, len(chunk))
	for _, p := range chunk {
		pw, err := l.prepare(ctx, p)
		if err != nil {
			outcome := prometheus.OutcomeFailed
			if errors.IsCode(err, errors.ErrCodeValidationFailed) {
				outcome = prometheus.OutcomeRejected
			}
			l.metrics.Upserts.WithLabelValues(outcome).Inc()
			result.recordFailure(p.PatentID, err)
			continue
		}
		prepared = append(prepared, pw)
	}
	if len(prepared) == 0 {
		return result
	}

	docs := make([]*patent.Patent, len(prepared))
	for i, pw := range prepared {
		docs[i] = pw.patent
	}
	if err := l.store.CommitBatch(ctx, docs, true); err != nil {
		commitErr := errors.Wrap(err, errors.ErrCodeStoreCommitFailed, "chunk commit failed")
		l.metrics.BatchCommitFailures.Inc()
		for _, pw := range prepared {
			l.metrics.Upserts.WithLabelValues(prometheus.OutcomeFailed).Inc()
			result.recordFailure(pw.patent.PatentID, commitErr)
		}
		return result
	}

	for _, pw := range prepared {
		result.SuccessCount++
		l.afterWrite(ctx, pw)
	}
	return result
}

// afterWrite records metrics and publishes the change event for one
// committed write.  Publishing is best effort.
func (l *Loader) afterWrite(ctx context.Context, pw *preparedWrite) {
	l.metrics.Upserts.WithLabelValues(string(pw.outcome)).Inc()

	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishChange(ctx, pw.patent, pw.fieldsChanged); err != nil {
		l.logger.Warn("change event publish failed",
			logging.String("patent_id", pw.patent.PatentID),
			logging.Err(err))
	}
}
