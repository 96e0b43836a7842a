package integration

import (
	"context"

	"github.com/turtacn/patentflow/internal/domain/patent"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/internal/source/patentsview"
	"github.com/turtacn/patentflow/pkg/errors"
)

// sourceClient is the slice of the source API the integration service
// uses.
type sourceClient interface {
	GetPatents(ctx context.Context, query patentsview.Query, fields []string, opts patentsview.Options) (*patentsview.Response, error)
	GetPatentByID(ctx context.Context, patentID string, fields []string) (*patentsview.RawPatent, error)
	GetPatentsByDateRange(ctx context.Context, start, end string, fields []string, opts patentsview.Options) (*patentsview.Response, error)
}

// Service drives fetch-transform-load: it pulls raw records from the
// source, transforms them into the unified model, and upserts them
// through the Loader.
type Service struct {
	client      sourceClient
	transformer *patentsview.Transformer
	loader      *Loader
	logger      logging.Logger
	pageSize    int
}

// NewService creates a Service.  pageSize bounds each source fetch during
// date-range sweeps.
func NewService(client sourceClient, transformer *patentsview.Transformer, loader *Loader, pageSize int, logger logging.Logger) *Service {
	return &Service{
		client:      client,
		transformer: transformer,
		loader:      loader,
		logger:      logger.Named("integration"),
		pageSize:    pageSize,
	}
}

// IntegratePatents fetches one page of records for the query and upserts
// them.
func (s *Service) IntegratePatents(ctx context.Context, query patentsview.Query, fields []string, opts patentsview.Options) (*Result, error) {
	resp, err := s.client.GetPatents(ctx, query, fields, opts)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, resp.Patents)
}

// IntegratePatentByID fetches and upserts a single patent.  A record the
// source does not know yields a not-found error.
func (s *Service) IntegratePatentByID(ctx context.Context, patentID string) (*patent.Patent, error) {
	raw, err := s.client.GetPatentByID(ctx, patentID, patentsview.FullRecordFields)
	if err != nil {
		return nil, err
	}

	p, err := s.transformer.Transform(raw)
	if err != nil {
		return nil, err
	}

	outcome, err := s.loader.Upsert(ctx, p)
	if err != nil {
		return nil, err
	}
	s.logger.Info("integrated patent",
		logging.String("patent_id", p.PatentID),
		logging.String("outcome", string(outcome)))
	return p, nil
}

// IntegrateDateRange sweeps every record granted in the inclusive
// [start, end] range, page by page, and upserts each page.  Per-item
// failures are aggregated; only a fetch or transform failure aborts the
// sweep.
func (s *Service) IntegrateDateRange(ctx context.Context, start, end string) (*Result, error) {
	total := &Result{}
	for page := 1; ; page++ {
		resp, err := s.client.GetPatentsByDateRange(ctx, start, end, patentsview.FullRecordFields,
			patentsview.Options{PerPage: s.pageSize, Page: page})
		if err != nil {
			return total, err
		}
		if len(resp.Patents) == 0 {
			break
		}

		pageResult, err := s.load(ctx, resp.Patents)
		if err != nil {
			return total, err
		}
		total.merge(pageResult)

		if len(resp.Patents) < s.pageSize {
			break
		}
	}

	s.logger.Info("date range integrated",
		logging.String("start", start),
		logging.String("end", end),
		logging.Int("processed", total.TotalProcessed),
		logging.Int("failed", total.FailureCount))
	return total, nil
}

func (s *Service) load(ctx context.Context, raws []patentsview.RawPatent) (*Result, error) {
	patents, err := s.transformer.TransformMany(raws)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "page transform failed")
	}
	return s.loader.UpsertBatch(ctx, patents), nil
}
