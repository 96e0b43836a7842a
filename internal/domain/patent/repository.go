package patent

import "context"

// DocumentStore is the persistence port for unified patent records.  The
// upsert engine is its only writer; all operations key by patent_id.
type DocumentStore interface {
	// Exists reports whether a patent with the given id is stored.
	Exists(ctx context.Context, patentID string) (bool, error)

	// Get fetches one patent.  A missing id yields an
	// errors.ErrCodePatentNotFound error.
	Get(ctx context.Context, patentID string) (*Patent, error)

	// Set writes one patent.  With merge set, fields absent from p leave
	// the stored document's unrelated fields untouched.
	Set(ctx context.Context, p *Patent, merge bool) error

	// CommitBatch writes all patents as one atomic commit: either every
	// document lands or the whole batch fails.  Callers chunk to the
	// store's atomic-write limit before calling.
	CommitBatch(ctx context.Context, patents []*Patent, merge bool) error
}

// ChangePublisher is the port for announcing successful writes to
// downstream consumers.  Publishing is best-effort; failures must never
// fail the write that triggered them.
type ChangePublisher interface {
	PublishChange(ctx context.Context, p *Patent, fieldsChanged []string) error
}
