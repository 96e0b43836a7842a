package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/internal/source/patentsview"
	"github.com/turtacn/patentflow/pkg/errors"
)

// fakeClient serves canned raw records for the service tests.
type fakeClient struct {
	records  []patentsview.RawPatent
	fetchErr error
	byID     map[string]*patentsview.RawPatent
}

func (c *fakeClient) GetPatents(_ context.Context, _ patentsview.Query, _ []string, opts patentsview.Options) (*patentsview.Response, error) {
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return c.page(opts)
}

func (c *fakeClient) GetPatentByID(_ context.Context, patentID string, _ []string) (*patentsview.RawPatent, error) {
	if raw, ok := c.byID[patentID]; ok {
		return raw, nil
	}
	return nil, errors.Newf(errors.ErrCodePatentNotFound, "patent %s not found in source", patentID)
}

func (c *fakeClient) GetPatentsByDateRange(_ context.Context, _, _ string, _ []string, opts patentsview.Options) (*patentsview.Response, error) {
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return c.page(opts)
}

func (c *fakeClient) page(opts patentsview.Options) (*patentsview.Response, error) {
	start := (opts.Page - 1) * opts.PerPage
	if opts.PerPage == 0 {
		start = 0
	}
	var out []patentsview.RawPatent
	for i := start; i < len(c.records) && (opts.PerPage == 0 || i < start+opts.PerPage); i++ {
		out = append(out, c.records[i])
	}
	return &patentsview.Response{
		Patents:          out,
		TotalPatentCount: len(c.records),
		Count:            len(out),
	}, nil
}

func rawRecord(id string) patentsview.RawPatent {
	return patentsview.RawPatent{
		PatentID:    id,
		PatentTitle: "Record " + id,
		PatentDate:  "2024-01-15",
	}
}

func newTestService(client sourceClient, store *fakeStore, pageSize int) *Service {
	loader := newTestLoader(store, nil, 500)
	return NewService(client, patentsview.NewTransformer(), loader, pageSize, logging.NewNopLogger())
}

func TestIntegratePatentByID_CreatesPatent(t *testing.T) {
	store := newFakeStore()
	raw := rawRecord("111")
	client := &fakeClient{byID: map[string]*patentsview.RawPatent{"111": &raw}}
	service := newTestService(client, store, 100)

	p, err := service.IntegratePatentByID(context.Background(), "111")
	require.NoError(t, err)
	assert.Equal(t, "111", p.PatentID)
	assert.Equal(t, 1, p.Metadata.Version)
	assert.Contains(t, store.docs, "111")
}

func TestIntegratePatentByID_NotFound(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{byID: map[string]*patentsview.RawPatent{}}
	service := newTestService(client, store, 100)

	_, err := service.IntegratePatentByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, store.docs)
}

func TestIntegratePatents_UpsertsPage(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{records: []patentsview.RawPatent{rawRecord("111"), rawRecord("222")}}
	service := newTestService(client, store, 100)

	result, err := service.IntegratePatents(context.Background(), patentsview.Query{}, nil, patentsview.Options{PerPage: 100, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Len(t, store.docs, 2)
}

func TestIntegrateDateRange_SweepsAllPages(t *testing.T) {
	store := newFakeStore()
	var records []patentsview.RawPatent
	for i := 1; i <= 25; i++ {
		records = append(records, rawRecord(fmt.Sprintf("%03d", i)))
	}
	client := &fakeClient{records: records}
	service := newTestService(client, store, 10)

	result, err := service.IntegrateDateRange(context.Background(), "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, 25, result.TotalProcessed)
	assert.Equal(t, 25, result.SuccessCount)
	assert.Len(t, store.docs, 25)
}

func TestIntegrateDateRange_FetchFailureAbortsSweep(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{fetchErr: assert.AnError}
	service := newTestService(client, store, 10)

	_, err := service.IntegrateDateRange(context.Background(), "2024-01-01", "2024-01-31")
	require.Error(t, err)
	assert.Empty(t, store.docs)
}
