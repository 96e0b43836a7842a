package search

import (
	"context"
	"strings"

	"github.com/turtacn/patentflow/internal/domain/patent"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentflow/pkg/errors"
)

// Service is the high-level search facade: it enhances the query when an
// enhancer is wired, assembles the request through the query builder, and
// runs it against the engine.
type Service struct {
	engine   Engine
	builder  *QueryBuilder
	enhancer QueryEnhancer
	metrics  *prometheus.Metrics
	logger   logging.Logger
}

// NewService creates a Service.  enhancer may be nil, disabling query
// enhancement.
func NewService(engine Engine, builder *QueryBuilder, enhancer QueryEnhancer, metrics *prometheus.Metrics, logger logging.Logger) *Service {
	return &Service{
		engine:   engine,
		builder:  builder,
		enhancer: enhancer,
		metrics:  metrics,
		logger:   logger.Named("search"),
	}
}

// Search runs one search.  A blank query short-circuits to an empty
// result without contacting the engine.  Enhancement failures fall back
// to the original text and never fail the search.
func (s *Service) Search(ctx context.Context, queryText string, filters Filters, opts Options) (*Result, error) {
	if strings.TrimSpace(queryText) == "" {
		return &Result{Hits: []*patent.Patent{}, Limit: s.builder.clampLimit(opts.Limit), Offset: opts.Offset}, nil
	}
	s.metrics.SearchRequests.Inc()

	queryText = s.enhance(ctx, queryText)
	req := s.builder.Build(queryText, filters, opts)

	result, err := s.engine.Search(ctx, req)
	if err != nil {
		s.metrics.SearchFailures.Inc()
		return nil, errors.Wrap(err, errors.ErrCodeSearchFailed, "search failed")
	}
	return result, nil
}

// enhance rewrites the query when an enhancer is wired, falling back to
// the original text on any failure.
func (s *Service) enhance(ctx context.Context, queryText string) string {
	if s.enhancer == nil {
		return queryText
	}
	enhanced, err := s.enhancer.Enhance(ctx, queryText)
	if err != nil {
		s.logger.Warn("query enhancement failed, using original query",
			logging.String("query", queryText),
			logging.Err(err))
		return queryText
	}
	s.logger.Debug("query enhanced",
		logging.String("original", queryText),
		logging.String("enhanced", enhanced))
	return enhanced
}

// GetPatentByID fetches one patent from the index.
func (s *Service) GetPatentByID(ctx context.Context, patentID string) (*patent.Patent, error) {
	return s.engine.GetDocument(ctx, patentID)
}

// DeletePatent removes one patent from the index.  The stored document is
// untouched; removal from the store is an administrative operation
// outside this service.
func (s *Service) DeletePatent(ctx context.Context, patentID string) error {
	return s.engine.DeleteDocument(ctx, patentID)
}

// Stats reports index-level statistics.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.engine.Stats(ctx)
}

// FindSimilarPatents searches with the reference patent's title and
// abstract as the query and returns up to limit hits, the reference
// itself excluded.
func (s *Service) FindSimilarPatents(ctx context.Context, patentID string, limit int) ([]*patent.Patent, error) {
	ref, err := s.engine.GetDocument(ctx, patentID)
	if err != nil {
		return nil, err
	}

	queryText := strings.TrimSpace(ref.Title + " " + ref.Abstract)
	if queryText == "" {
		return []*patent.Patent{}, nil
	}

	limit = s.builder.clampLimit(limit)
	req := s.builder.Build(queryText, Filters{}, Options{Limit: limit + 1})

	result, err := s.engine.Search(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchFailed, "similarity search failed")
	}

	similar := make([]*patent.Patent, 0, limit)
	for _, hit := range result.Hits {
		if hit.PatentID == patentID {
			continue
		}
		similar = append(similar, hit)
		if len(similar) == limit {
			break
		}
	}
	return similar, nil
}
