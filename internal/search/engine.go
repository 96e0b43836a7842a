// Package search implements the read side of the pipeline: the structured
// query builder that turns caller filters into an engine filter expression,
// the optional query-enhancement hook, and the high-level search service.
// The concrete engine lives behind the Engine port so the pipeline never
// depends on a specific search product's wire protocol.
package search

import (
	"context"

	"github.com/turtacn/patentflow/internal/domain/patent"
)

// Request is a fully assembled search request: free-text query, an
// engine-native filter expression, paging, and sort.
type Request struct {
	Query  string
	Filter string
	Limit  int
	Offset int

	// Sort entries are "field:asc" or "field:desc".
	Sort []string
}

// Result is a page of ranked hits.
type Result struct {
	Hits   []*patent.Patent
	Total  int64
	Limit  int
	Offset int
}

// Stats summarises the state of the patent index.
type Stats struct {
	DocumentCount int64
	IndexName     string
}

// Engine is the search-engine port: bulk document ingestion, keyed
// retrieval and deletion, free-text query with a filter expression, and
// stats.  Index configuration (field roles, synonyms) happens once at
// setup through the concrete adapter.
type Engine interface {
	// AddDocuments bulk-indexes the given patents keyed by patent_id.
	AddDocuments(ctx context.Context, patents []*patent.Patent) error

	// GetDocument fetches one indexed patent by id.
	GetDocument(ctx context.Context, patentID string) (*patent.Patent, error)

	// DeleteDocument removes one indexed patent by id.
	DeleteDocument(ctx context.Context, patentID string) error

	// Search runs a free-text query with the request's filter expression.
	Search(ctx context.Context, req *Request) (*Result, error)

	// Stats reports index-level statistics.
	Stats(ctx context.Context) (*Stats, error)
}
