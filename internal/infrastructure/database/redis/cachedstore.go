package redis

import (
	"context"

	"github.com/turtacn/patentflow/internal/domain/patent"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
)

// patentKey namespaces cached patent documents.
func patentKey(patentID string) string { return "patent:" + patentID }

// CachedStore decorates a patent.DocumentStore with a read-through cache.
// Reads hit the cache first; writes go straight to the store and then
// invalidate the cached copy, so a subsequent read repopulates from the
// source of truth.  Cache failures are logged and degrade to direct store
// access, never to request failure.
type CachedStore struct {
	store  patent.DocumentStore
	cache  Cache
	logger logging.Logger
}

// NewCachedStore wraps store with the given cache.
func NewCachedStore(store patent.DocumentStore, cache Cache, logger logging.Logger) *CachedStore {
	return &CachedStore{store: store, cache: cache, logger: logger.Named("cache")}
}

// Exists delegates to the underlying store; the existence check must see
// writes the cache has not observed.
func (s *CachedStore) Exists(ctx context.Context, patentID string) (bool, error) {
	return s.store.Exists(ctx, patentID)
}

// Get returns the cached document when present, otherwise reads through to
// the store and populates the cache.
func (s *CachedStore) Get(ctx context.Context, patentID string) (*patent.Patent, error) {
	cached := &patent.Patent{}
	err := s.cache.GetJSON(ctx, patentKey(patentID), cached)
	if err == nil {
		return cached, nil
	}
	if err != ErrCacheMiss {
		s.logger.Warn("cache read failed, falling back to store",
			logging.String("patent_id", patentID), logging.Err(err))
	}

	p, err := s.store.Get(ctx, patentID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, patentKey(patentID), p, 0); err != nil {
		s.logger.Warn("failed to populate cache",
			logging.String("patent_id", patentID), logging.Err(err))
	}
	return p, nil
}

// Set writes to the store and invalidates the cached copy.
func (s *CachedStore) Set(ctx context.Context, p *patent.Patent, merge bool) error {
	if err := s.store.Set(ctx, p, merge); err != nil {
		return err
	}
	s.invalidate(ctx, p.PatentID)
	return nil
}

// CommitBatch writes the batch to the store and invalidates every cached
// member.
func (s *CachedStore) CommitBatch(ctx context.Context, patents []*patent.Patent, merge bool) error {
	if err := s.store.CommitBatch(ctx, patents, merge); err != nil {
		return err
	}
	keys := make([]string, len(patents))
	for i, p := range patents {
		keys[i] = patentKey(p.PatentID)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("failed to invalidate cache after batch commit", logging.Err(err))
	}
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, patentID string) {
	if err := s.cache.Delete(ctx, patentKey(patentID)); err != nil {
		s.logger.Warn("failed to invalidate cache",
			logging.String("patent_id", patentID), logging.Err(err))
	}
}
