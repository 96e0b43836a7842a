package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentflow/internal/domain/patent"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentflow/pkg/errors"
)

// fakeStore is an in-memory patent.DocumentStore.
type fakeStore struct {
	docs      map[string]*patent.Patent
	commitErr error
	setErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]*patent.Patent{}}
}

func (s *fakeStore) Exists(_ context.Context, patentID string) (bool, error) {
	_, ok := s.docs[patentID]
	return ok, nil
}

func (s *fakeStore) Get(_ context.Context, patentID string) (*patent.Patent, error) {
	p, ok := s.docs[patentID]
	if !ok {
		return nil, errors.Newf(errors.ErrCodePatentNotFound, "patent %s not found", patentID)
	}
	copied := *p
	return &copied, nil
}

func (s *fakeStore) Set(_ context.Context, p *patent.Patent, _ bool) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.docs[p.PatentID] = p
	return nil
}

func (s *fakeStore) CommitBatch(_ context.Context, patents []*patent.Patent, _ bool) error {
	if s.commitErr != nil {
		return s.commitErr
	}
	for _, p := range patents {
		s.docs[p.PatentID] = p
	}
	return nil
}

type fakePublisher struct {
	events [][]string
	err    error
}

func (f *fakePublisher) PublishChange(_ context.Context, _ *patent.Patent, fieldsChanged []string) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, fieldsChanged)
	return nil
}

func validPatent(id string) *patent.Patent {
	return &patent.Patent{
		PatentID:    id,
		Source:      patent.SourcePatentsView,
		ExternalIDs: map[string]string{"patentsview_id": id},
		Title:       "Widget assembly",
		Metadata:    patent.NewMetadata(patent.SourcePatentsView, map[string]string{"patentsview": "2024-01-01"}, fixedNow()),
	}
}

func newTestLoader(store patent.DocumentStore, publisher patent.ChangePublisher, chunkSize int) *Loader {
	l := NewLoader(store, publisher, prometheus.NewMetrics(), chunkSize, logging.NewNopLogger())
	l.now = fixedNow
	return l
}

func TestUpsert_CreatesAtVersionOne(t *testing.T) {
	store := newFakeStore()
	loader := newTestLoader(store, nil, 500)

	outcome, err := loader.Upsert(context.Background(), validPatent("111"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	stored := store.docs["111"]
	require.NotNil(t, stored.Metadata)
	assert.Equal(t, 1, stored.Metadata.Version)
	require.Len(t, stored.Metadata.ChangeHistory, 1)
	assert.Equal(t, []string{"all"}, stored.Metadata.ChangeHistory[0].FieldsChanged)
}

func TestUpsert_TitleChangeOnly(t *testing.T) {
	store := newFakeStore()
	loader := newTestLoader(store, nil, 500)

	_, err := loader.Upsert(context.Background(), validPatent("111"))
	require.NoError(t, err)

	update := validPatent("111")
	update.Title = "Improved widget assembly"
	outcome, err := loader.Upsert(context.Background(), update)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	stored := store.docs["111"]
	assert.Equal(t, 2, stored.Metadata.Version)
	require.Len(t, stored.Metadata.ChangeHistory, 2)
	assert.Equal(t, []string{"title"}, stored.Metadata.ChangeHistory[1].FieldsChanged)
}

func TestUpsert_NoChangeRecordsGeneralUpdate(t *testing.T) {
	store := newFakeStore()
	loader := newTestLoader(store, nil, 500)

	_, err := loader.Upsert(context.Background(), validPatent("111"))
	require.NoError(t, err)

	_, err = loader.Upsert(context.Background(), validPatent("111"))
	require.NoError(t, err)

	stored := store.docs["111"]
	assert.Equal(t, []string{"general_update"}, stored.Metadata.ChangeHistory[1].FieldsChanged)
}

func TestUpsert_VersionMonotonicity(t *testing.T) {
	store := newFakeStore()
	loader := newTestLoader(store, nil, 500)

	_, err := loader.Upsert(context.Background(), validPatent("111"))
	require.NoError(t, err)

	const updates = 5
	for i := 0; i < updates; i++ {
		p := validPatent("111")
		p.Title = fmt.Sprintf("Widget assembly rev %d", i)
		_, err := loader.Upsert(context.Background(), p)
		require.NoError(t, err)
	}

	stored := store.docs["111"]
	assert.Equal(t, 1+updates, stored.Metadata.Version)
	assert.Len(t, stored.Metadata.ChangeHistory, 1+updates)
}

func TestUpsert_RejectsInvalidPatent(t *testing.T) {
	store := newFakeStore()
	loader := newTestLoader(store, nil, 500)

	invalid := &patent.Patent{Source: patent.SourcePatentsView}
	outcome, err := loader.Upsert(context.Background(), invalid)

	assert.Equal(t, OutcomeRejected, outcome)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
	assert.Empty(t, store.docs)
}

func TestUpsert_PublishesChangeEvent(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{}
	loader := newTestLoader(store, publisher, 500)

	_, err := loader.Upsert(context.Background(), validPatent("111"))
	require.NoError(t, err)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, []string{"all"}, publisher.events[0])
}

func TestUpsert_PublishFailureDoesNotFailWrite(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{err: assert.AnError}
	loader := newTestLoader(store, publisher, 500)

	outcome, err := loader.Upsert(context.Background(), validPatent("111"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	assert.Contains(t, store.docs, "111")
}

func TestUpsertBatch_MixedOutcomes(t *testing.T) {
	store := newFakeStore()
	loader := newTestLoader(store, nil, 500)

	_, err := loader.Upsert(context.Background(), validPatent("222"))
	require.NoError(t, err)

	batch := []*patent.Patent{
		validPatent("111"),                     // create
		validPatent("222"),                     // update
		{Source: patent.SourcePatentsView},     // rejected: missing id
	}
	result := loader.UpsertBatch(context.Background(), batch)

	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	require.Len(t, result.Errors, 1)
	assert.True(t, errors.IsCode(result.Errors[0].Err, errors.ErrCodeValidationFailed))
}

func TestUpsertBatch_CommitFailureFailsWholeChunk(t *testing.T) {
	store := newFakeStore()
	store.commitErr = assert.AnError
	loader := newTestLoader(store, nil, 500)

	result := loader.UpsertBatch(context.Background(), []*patent.Patent{
		validPatent("111"),
		validPatent("222"),
	})

	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 2, result.FailureCount)
	for _, e := range result.Errors {
		assert.True(t, errors.IsCode(e.Err, errors.ErrCodeStoreCommitFailed))
	}
	assert.Empty(t, store.docs)
}

func TestUpsertBatch_ChunksAreIndependent(t *testing.T) {
	store := newFakeStore()

	// The first chunk of two fails its commit; the second chunk of one
	// still lands.
	oneShot := &oneShotFailingStore{inner: store}
	loader := newTestLoader(oneShot, nil, 2)

	result := loader.UpsertBatch(context.Background(), []*patent.Patent{
		validPatent("111"), validPatent("222"),
		validPatent("333"),
	})

	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 2, result.FailureCount)
	assert.Contains(t, store.docs, "333")
	assert.NotContains(t, store.docs, "111")
}

// oneShotFailingStore fails the first CommitBatch, then delegates.
type oneShotFailingStore struct {
	inner  *fakeStore
	failed bool
}

func (s *oneShotFailingStore) Exists(ctx context.Context, id string) (bool, error) {
	return s.inner.Exists(ctx, id)
}

func (s *oneShotFailingStore) Get(ctx context.Context, id string) (*patent.Patent, error) {
	return s.inner.Get(ctx, id)
}

func (s *oneShotFailingStore) Set(ctx context.Context, p *patent.Patent, merge bool) error {
	return s.inner.Set(ctx, p, merge)
}

func (s *oneShotFailingStore) CommitBatch(ctx context.Context, patents []*patent.Patent, merge bool) error {
	if !s.failed {
		s.failed = true
		return assert.AnError
	}
	return s.inner.CommitBatch(ctx, patents, merge)
}
