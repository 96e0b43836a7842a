package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/patentflow/internal/domain/patent"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/pkg/errors"
)

const (
	existsSQL = `SELECT EXISTS (SELECT 1 FROM patents WHERE patent_id = $1)`
	getSQL    = `SELECT doc FROM patents WHERE patent_id = $1`

	// Merge writes keep stored fields the incoming document omits; JSONB
	// concatenation overrides only the keys present in the new document.
	upsertMergeSQL = `
		INSERT INTO patents (patent_id, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (patent_id)
		DO UPDATE SET doc = patents.doc || EXCLUDED.doc, updated_at = now()`

	upsertReplaceSQL = `
		INSERT INTO patents (patent_id, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (patent_id)
		DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`
)

// DocStore implements patent.DocumentStore on a PostgreSQL JSONB table.
type DocStore struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewDocStore constructs a DocStore over an established connection.
func NewDocStore(conn *Connection, logger logging.Logger) *DocStore {
	return &DocStore{pool: conn.Pool(), logger: logger.Named("docstore")}
}

// Exists reports whether a patent with the given id is stored.
func (s *DocStore) Exists(ctx context.Context, patentID string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, existsSQL, patentID).Scan(&exists); err != nil {
		return false, errors.Wrap(err, errors.ErrCodeStoreReadFailed, "existence check failed").
			WithDetail(patentID)
	}
	return exists, nil
}

// Get fetches one patent by id.
func (s *DocStore) Get(ctx context.Context, patentID string) (*patent.Patent, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, getSQL, patentID).Scan(&doc)
	if err == pgx.ErrNoRows {
		return nil, errors.Newf(errors.ErrCodePatentNotFound, "patent %s not found", patentID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreReadFailed, "read failed").WithDetail(patentID)
	}

	p := &patent.Patent{}
	if err := json.Unmarshal(doc, p); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "stored document is not a valid patent").
			WithDetail(patentID)
	}
	return p, nil
}

// Set writes one patent document.
func (s *DocStore) Set(ctx context.Context, p *patent.Patent, merge bool) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode patent").
			WithDetail(p.PatentID)
	}

	stmt := upsertReplaceSQL
	if merge {
		stmt = upsertMergeSQL
	}
	if _, err := s.pool.Exec(ctx, stmt, p.PatentID, doc); err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreWriteFailed, "write failed").WithDetail(p.PatentID)
	}
	return nil
}

// CommitBatch writes all patents inside one transaction: every document
// lands or none do.  Callers chunk to the store's atomic-write limit before
// calling.
func (s *DocStore) CommitBatch(ctx context.Context, patents []*patent.Patent, merge bool) error {
	if len(patents) == 0 {
		return nil
	}

	stmt := upsertReplaceSQL
	if merge {
		stmt = upsertMergeSQL
	}

	batch := &pgx.Batch{}
	for _, p := range patents {
		doc, err := json.Marshal(p)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode patent").
				WithDetail(p.PatentID)
		}
		batch.Queue(stmt, p.PatentID, doc)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreCommitFailed, "failed to begin batch transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	br := tx.SendBatch(ctx, batch)
	for range patents {
		if _, err := br.Exec(); err != nil {
			br.Close() //nolint:errcheck
			return errors.Wrap(err, errors.ErrCodeStoreCommitFailed, "batch write failed")
		}
	}
	if err := br.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreCommitFailed, "failed to close batch results")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreCommitFailed, "batch commit failed")
	}

	s.logger.Debug("committed patent batch", logging.Int("size", len(patents)))
	return nil
}
