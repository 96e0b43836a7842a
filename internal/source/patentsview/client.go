package patentsview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/turtacn/patentflow/internal/config"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Query DSL
// ─────────────────────────────────────────────────────────────────────────────

// Query is a PatentsView query expression, serialised verbatim as the "q"
// member of the request body.
type Query map[string]interface{}

// EqualsQuery matches records where field equals value.
func EqualsQuery(field, value string) Query {
	return Query{"_eq": map[string]string{field: value}}
}

// DateRangeQuery matches records whose field lies in [start, end], both
// formatted YYYY-MM-DD.
func DateRangeQuery(field, start, end string) Query {
	return Query{"_and": []Query{
		{"_gte": map[string]string{field: start}},
		{"_lte": map[string]string{field: end}},
	}}
}

// Options are the paging and sorting options serialised as the "o" member.
type Options struct {
	Sort    []map[string]string `json:"sort,omitempty"`
	PerPage int                 `json:"per_page,omitempty"`
	Page    int                 `json:"page,omitempty"`
}

// Response is the shape of a /patent endpoint reply.  Raw preserves the
// undecoded body for archival.
type Response struct {
	Patents          []RawPatent `json:"patents"`
	TotalPatentCount int         `json:"total_patent_count"`
	Count            int         `json:"count"`

	Raw []byte `json:"-"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Client
// ─────────────────────────────────────────────────────────────────────────────

// Client talks to the PatentsView API.  It performs a single transparent
// retry on transient failures (network errors, 429, and 5xx responses)
// before surfacing an error.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	retryBackoff time.Duration
	logger       logging.Logger
}

// NewClient constructs a Client from configuration.
func NewClient(cfg config.PatentsViewConfig, logger logging.Logger) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout},
		retryBackoff: cfg.RetryBackoff,
		logger:       logger.Named("patentsview"),
	}
}

type requestBody struct {
	Q Query    `json:"q"`
	F []string `json:"f"`
	O Options  `json:"o"`
}

// GetPatents queries the /patent endpoint with the given query expression,
// field projection, and paging options.
func (c *Client) GetPatents(ctx context.Context, query Query, fields []string, opts Options) (*Response, error) {
	if len(fields) == 0 {
		fields = DefaultFields
	}
	return c.post(ctx, "/patent", requestBody{Q: query, F: fields, O: opts})
}

// GetPatentByID fetches a single patent by its id.  A missing patent yields
// an errors.ErrCodePatentNotFound error rather than an empty response.
func (c *Client) GetPatentByID(ctx context.Context, patentID string, fields []string) (*RawPatent, error) {
	resp, err := c.GetPatents(ctx, EqualsQuery("patent_id", patentID), fields, Options{})
	if err != nil {
		return nil, err
	}
	if len(resp.Patents) == 0 {
		return nil, errors.Newf(errors.ErrCodePatentNotFound, "patent %s not found in source", patentID)
	}
	return &resp.Patents[0], nil
}

// GetPatentsByDateRange fetches patents whose grant date lies in the
// inclusive [start, end] range, both formatted YYYY-MM-DD.
func (c *Client) GetPatentsByDateRange(ctx context.Context, start, end string, fields []string, opts Options) (*Response, error) {
	return c.GetPatents(ctx, DateRangeQuery("patent_date", start, end), fields, opts)
}

func (c *Client) post(ctx context.Context, endpoint string, body requestBody) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode source request")
	}

	raw, err := c.doWithRetry(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}

	resp := &Response{Raw: raw}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceParseError, "failed to decode source response")
	}
	return resp, nil
}

// doWithRetry executes the request, retrying exactly once after a backoff
// when the failure looks transient.
func (c *Client) doWithRetry(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	raw, err, transient := c.do(ctx, endpoint, payload)
	if err == nil || !transient {
		return raw, err
	}

	c.logger.Warn("transient source failure, retrying once",
		logging.String("endpoint", endpoint),
		logging.Err(err))

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "source request cancelled")
	case <-time.After(c.retryBackoff):
	}

	raw, err, _ = c.do(ctx, endpoint, payload)
	return raw, err
}

func (c *Client) do(ctx context.Context, endpoint string, payload []byte) (raw []byte, err error, transient bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build source request"), false
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceUnavailable, "source request failed"), true
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceUnavailable, "failed to read source response"), true
	}

	switch {
	case httpResp.StatusCode == http.StatusOK:
		return body, nil, false
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.New(errors.ErrCodeDataSourceRateLimited,
			"source rate limit exceeded").WithDetail(endpoint), true
	case httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden:
		return nil, errors.New(errors.ErrCodeDataSourceAuthFailed,
			fmt.Sprintf("source rejected credentials with status %d", httpResp.StatusCode)), false
	case httpResp.StatusCode >= 500:
		return nil, errors.Newf(errors.ErrCodeDataSourceUnavailable,
			"source returned status %d", httpResp.StatusCode), true
	default:
		return nil, errors.Newf(errors.ErrCodeDataSourceUnavailable,
			"source returned unexpected status %d", httpResp.StatusCode).WithDetail(string(body)), false
	}
}
