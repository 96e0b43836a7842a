package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentflow/internal/domain/patent"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/pkg/errors"
)

// fakeCache is an in-memory Cache.
type fakeCache struct {
	data map[string][]byte
	down bool
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (f *fakeCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	if f.down {
		return errors.New(errors.ErrCodeServiceUnavailable, "cache down")
	}
	raw, ok := f.data[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if f.down {
		return errors.New(errors.ErrCodeServiceUnavailable, "cache down")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeCache) Ping(context.Context) error { return nil }

// fakeStore is an in-memory patent.DocumentStore counting reads.
type fakeStore struct {
	docs  map[string]*patent.Patent
	reads int
}

func newFakeStore() *fakeStore { return &fakeStore{docs: map[string]*patent.Patent{}} }

func (f *fakeStore) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.docs[id]
	return ok, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*patent.Patent, error) {
	f.reads++
	p, ok := f.docs[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodePatentNotFound, "patent %s not found", id)
	}
	return p, nil
}

func (f *fakeStore) Set(_ context.Context, p *patent.Patent, _ bool) error {
	f.docs[p.PatentID] = p
	return nil
}

func (f *fakeStore) CommitBatch(_ context.Context, patents []*patent.Patent, _ bool) error {
	for _, p := range patents {
		f.docs[p.PatentID] = p
	}
	return nil
}

func testPatent(id, title string) *patent.Patent {
	return &patent.Patent{
		PatentID: id,
		Source:   patent.SourcePatentsView,
		Title:    title,
		Metadata: patent.NewMetadata(patent.SourcePatentsView, nil, time.Now().UTC()),
	}
}

func TestCachedStore_GetPopulatesCache(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	cs := NewCachedStore(store, cache, logging.NewNopLogger())

	require.NoError(t, store.Set(context.Background(), testPatent("US1", "Widget"), false))

	p, err := cs.Get(context.Background(), "US1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Title)
	assert.Equal(t, 1, store.reads)

	// Second read is served from cache.
	p, err = cs.Get(context.Background(), "US1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Title)
	assert.Equal(t, 1, store.reads)
}

func TestCachedStore_GetMissPropagatesNotFound(t *testing.T) {
	cs := NewCachedStore(newFakeStore(), newFakeCache(), logging.NewNopLogger())
	_, err := cs.Get(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestCachedStore_CacheFailureFallsBack(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	cache.down = true
	cs := NewCachedStore(store, cache, logging.NewNopLogger())

	require.NoError(t, store.Set(context.Background(), testPatent("US1", "Widget"), false))

	p, err := cs.Get(context.Background(), "US1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Title)
}

func TestCachedStore_SetInvalidates(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	cs := NewCachedStore(store, cache, logging.NewNopLogger())

	require.NoError(t, cs.Set(context.Background(), testPatent("US1", "Widget"), true))
	_, err := cs.Get(context.Background(), "US1")
	require.NoError(t, err)

	require.NoError(t, cs.Set(context.Background(), testPatent("US1", "Widget v2"), true))

	p, err := cs.Get(context.Background(), "US1")
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", p.Title)
}

func TestCachedStore_CommitBatchInvalidatesMembers(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	cs := NewCachedStore(store, cache, logging.NewNopLogger())

	require.NoError(t, cs.Set(context.Background(), testPatent("US1", "One"), true))
	require.NoError(t, cs.Set(context.Background(), testPatent("US2", "Two"), true))
	for _, id := range []string{"US1", "US2"} {
		_, err := cs.Get(context.Background(), id)
		require.NoError(t, err)
	}

	require.NoError(t, cs.CommitBatch(context.Background(),
		[]*patent.Patent{testPatent("US1", "One v2"), testPatent("US2", "Two v2")}, true))

	p, err := cs.Get(context.Background(), "US1")
	require.NoError(t, err)
	assert.Equal(t, "One v2", p.Title)
}

func TestCachedStore_ExistsBypassesCache(t *testing.T) {
	store := newFakeStore()
	cs := NewCachedStore(store, newFakeCache(), logging.NewNopLogger())

	ok, err := cs.Exists(context.Background(), "US1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(context.Background(), testPatent("US1", "Widget"), false))
	ok, err = cs.Exists(context.Background(), "US1")
	require.NoError(t, err)
	assert.True(t, ok)
}
