package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/patentflow/internal/domain/patent"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/internal/search"
	"github.com/turtacn/patentflow/pkg/errors"
)

// Searcher implements search.Engine against the patent index.
type Searcher struct {
	client *Client
	logger logging.Logger
}

// compile-time interface check
var _ search.Engine = (*Searcher)(nil)

// NewSearcher creates a Searcher over an established client.
func NewSearcher(client *Client, logger logging.Logger) *Searcher {
	return &Searcher{client: client, logger: logger.Named("searcher")}
}

// AddDocuments bulk-indexes the given patents keyed by patent_id.
func (s *Searcher) AddDocuments(ctx context.Context, patents []*patent.Patent) error {
	if len(patents) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, p := range patents {
		action := fmt.Sprintf(`{"index":{"_index":%q,"_id":%q}}`, s.client.IndexName(), p.PatentID)
		buf.WriteString(action)
		buf.WriteByte('\n')

		doc, err := json.Marshal(p)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode patent for indexing").
				WithDetail(p.PatentID)
		}
		buf.Write(doc)
		buf.WriteByte('\n')
	}

	req := opensearchapi.BulkRequest{Body: bytes.NewReader(buf.Bytes())}
	resp, err := req.Do(ctx, s.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexingFailed, "bulk indexing request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return errors.Newf(errors.ErrCodeIndexingFailed, "bulk indexing returned status %d", resp.StatusCode)
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID    string `json:"_id"`
			Error *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexingFailed, "failed to decode bulk response")
	}
	if bulkResp.Errors {
		for _, item := range bulkResp.Items {
			for _, op := range item {
				if op.Error != nil {
					return errors.Newf(errors.ErrCodeIndexingFailed,
						"bulk indexing failed for %s: %s", op.ID, op.Error.Reason)
				}
			}
		}
		return errors.New(errors.ErrCodeIndexingFailed, "bulk indexing reported item failures")
	}

	s.logger.Debug("indexed patent batch", logging.Int("count", len(patents)))
	return nil
}

// GetDocument fetches one indexed patent by id.
func (s *Searcher) GetDocument(ctx context.Context, patentID string) (*patent.Patent, error) {
	req := opensearchapi.GetRequest{Index: s.client.IndexName(), DocumentID: patentID}
	resp, err := req.Do(ctx, s.client.GetClient())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchFailed, "document fetch failed").WithDetail(patentID)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return nil, errors.Newf(errors.ErrCodePatentNotFound, "patent %s not indexed", patentID)
	}
	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeSearchFailed, "document fetch returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Source patent.Patent `json:"_source"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode indexed document").
			WithDetail(patentID)
	}
	return &envelope.Source, nil
}

// DeleteDocument removes one indexed patent by id.
func (s *Searcher) DeleteDocument(ctx context.Context, patentID string) error {
	req := opensearchapi.DeleteRequest{Index: s.client.IndexName(), DocumentID: patentID}
	resp, err := req.Do(ctx, s.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchFailed, "document delete failed").WithDetail(patentID)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return errors.Newf(errors.ErrCodePatentNotFound, "patent %s not indexed", patentID)
	}
	if resp.IsError() {
		return errors.Newf(errors.ErrCodeSearchFailed, "document delete returned status %d", resp.StatusCode)
	}
	return nil
}

// Search runs a free-text query combined with the request's filter
// expression.  An empty query matches everything, leaving ranking to the
// filter; the high-level service short-circuits blank user queries before
// reaching here.
func (s *Searcher) Search(ctx context.Context, req *search.Request) (*search.Result, error) {
	body := map[string]interface{}{
		"from":  req.Offset,
		"size":  req.Limit,
		"query": buildQueryBody(req),
	}
	if sorts := buildSortBody(req.Sort); len(sorts) > 0 {
		body["sort"] = sorts
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode search request")
	}

	apiReq := opensearchapi.SearchRequest{
		Index: []string{s.client.IndexName()},
		Body:  bytes.NewReader(raw),
	}
	resp, err := apiReq.Do(ctx, s.client.GetClient())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchFailed, "search request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeSearchFailed, "search returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source patent.Patent `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchFailed, "failed to decode search response")
	}

	result := &search.Result{
		Total:  envelope.Hits.Total.Value,
		Limit:  req.Limit,
		Offset: req.Offset,
		Hits:   make([]*patent.Patent, 0, len(envelope.Hits.Hits)),
	}
	for i := range envelope.Hits.Hits {
		result.Hits = append(result.Hits, &envelope.Hits.Hits[i].Source)
	}
	return result, nil
}

// Stats reports index-level statistics.
func (s *Searcher) Stats(ctx context.Context) (*search.Stats, error) {
	req := opensearchapi.CountRequest{Index: []string{s.client.IndexName()}}
	resp, err := req.Do(ctx, s.client.GetClient())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchFailed, "stats request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeSearchFailed, "stats returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchFailed, "failed to decode stats response")
	}
	return &search.Stats{DocumentCount: envelope.Count, IndexName: s.client.IndexName()}, nil
}

// buildQueryBody assembles the bool query: full-text relevance in must,
// the filter expression in filter so it never affects scoring.
func buildQueryBody(req *search.Request) map[string]interface{} {
	var must interface{}
	if strings.TrimSpace(req.Query) == "" {
		must = map[string]interface{}{"match_all": map[string]interface{}{}}
	} else {
		must = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  req.Query,
				"fields": SearchableFields,
			},
		}
	}

	boolQuery := map[string]interface{}{"must": []interface{}{must}}
	if req.Filter != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{
				"query_string": map[string]interface{}{"query": req.Filter},
			},
		}
	}
	return map[string]interface{}{"bool": boolQuery}
}

// buildSortBody converts "field:dir" entries into the engine's sort shape.
func buildSortBody(sorts []string) []interface{} {
	out := make([]interface{}, 0, len(sorts))
	for _, s := range sorts {
		field, dir, found := strings.Cut(s, ":")
		if !found {
			dir = "asc"
		}
		out = append(out, map[string]interface{}{field: map[string]interface{}{"order": dir}})
	}
	return out
}
