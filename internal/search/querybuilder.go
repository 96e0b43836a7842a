package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/patentflow/internal/config"
)

// Named relative date ranges accepted by Filters.RelativeRange.
const (
	RangeLastYear     = "Last year"
	RangeLastFiveYears = "Last 5 years"
	RangeLastTenYears  = "Last 10 years"
)

// Filters are the structured filter inputs callers supply alongside the
// free-text query.  Zero values contribute no clause.  A complete
// DateStart/DateEnd pair takes precedence over RelativeRange; a single
// explicit bound yields to a named RelativeRange.
type Filters struct {
	PatentType      string
	Inventor        string
	Assignee        string
	DateStart       string
	DateEnd         string
	RelativeRange   string
	Classifications []string
}

// Options control paging and ordering.
type Options struct {
	Limit  int
	Offset int
	Sort   []string
}

// QueryBuilder turns caller filters into the engine's filter expression.
type QueryBuilder struct {
	cfg config.SearchConfig
	now func() time.Time
}

// NewQueryBuilder creates a QueryBuilder.  cfg supplies paging bounds and
// the earliest filing date used as the open floor of relative ranges.
func NewQueryBuilder(cfg config.SearchConfig) *QueryBuilder {
	return &QueryBuilder{cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// Build assembles the search request: the raw query text, one filter
// clause per active filter joined with AND, and clamped paging.
func (b *QueryBuilder) Build(queryText string, filters Filters, opts Options) *Request {
	var clauses []string

	if filters.PatentType != "" {
		clauses = append(clauses, fmt.Sprintf("kind_code:%q", filters.PatentType))
	}
	if filters.Inventor != "" {
		clauses = append(clauses, fmt.Sprintf("inventors.name:*%s*", escapeValue(filters.Inventor)))
	}
	if filters.Assignee != "" {
		clauses = append(clauses, fmt.Sprintf("assignees.name:*%s*", escapeValue(filters.Assignee)))
	}
	if clause := b.dateClause(filters); clause != "" {
		clauses = append(clauses, clause)
	}
	if clause := classificationClause(filters.Classifications); clause != "" {
		clauses = append(clauses, clause)
	}

	return &Request{
		Query:  queryText,
		Filter: strings.Join(clauses, " AND "),
		Limit:  b.clampLimit(opts.Limit),
		Offset: maxInt(opts.Offset, 0),
		Sort:   opts.Sort,
	}
}

// dateClause resolves the filing-date range.  A complete explicit pair
// wins over a named relative range; with only one explicit bound the
// relative range, when named, applies instead, and a lone bound without
// one becomes an open-ended range against the configured floor or today.
func (b *QueryBuilder) dateClause(filters Filters) string {
	if filters.DateStart != "" && filters.DateEnd != "" {
		return fmt.Sprintf("dates.filing:[%s TO %s]", filters.DateStart, filters.DateEnd)
	}

	if filters.RelativeRange != "" {
		now := b.now()
		var start string
		switch filters.RelativeRange {
		case RangeLastYear:
			start = now.AddDate(-1, 0, 0).Format("2006-01-02")
		case RangeLastFiveYears:
			start = now.AddDate(-5, 0, 0).Format("2006-01-02")
		case RangeLastTenYears:
			start = now.AddDate(-10, 0, 0).Format("2006-01-02")
		default:
			start = b.cfg.EarliestFilingDate
		}
		return fmt.Sprintf("dates.filing:[%s TO %s]", start, b.today())
	}

	if filters.DateStart != "" || filters.DateEnd != "" {
		start := filters.DateStart
		if start == "" {
			start = b.cfg.EarliestFilingDate
		}
		end := filters.DateEnd
		if end == "" {
			end = b.today()
		}
		return fmt.Sprintf("dates.filing:[%s TO %s]", start, end)
	}

	return ""
}

func (b *QueryBuilder) today() string {
	return b.now().Format("2006-01-02")
}

// classificationClause ORs the requested codes into one grouped clause.
func classificationClause(codes []string) string {
	var parts []string
	for _, code := range codes {
		if code == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("classifications.code:%q", code))
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, " OR ") + ")"
	}
}

func (b *QueryBuilder) clampLimit(limit int) int {
	if limit <= 0 {
		return b.cfg.DefaultLimit
	}
	if limit > b.cfg.MaxLimit {
		return b.cfg.MaxLimit
	}
	return limit
}

// escapeValue neutralises the query-string metacharacters a substring
// filter value could carry.
func escapeValue(v string) string {
	replacer := strings.NewReplacer(
		`"`, `\"`,
		`(`, `\(`, `)`, `\)`,
		`[`, `\[`, `]`, `\]`,
		`:`, `\:`,
		`*`, `\*`, `?`, `\?`,
	)
	return replacer.Replace(v)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
