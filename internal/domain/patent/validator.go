package patent

import (
	"fmt"
	"math"
)

// ─────────────────────────────────────────────────────────────────────────────
// Validation findings
// ─────────────────────────────────────────────────────────────────────────────

// Severity levels for validation findings.  Only SeverityError blocks
// persistence; warnings and informational findings are logged and carried
// through.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// ValidationError is one finding produced by Validate.
type ValidationError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// ValidationResult aggregates all findings for one patent.  IsValid is true
// iff no error-severity finding exists; warnings never block.
type ValidationResult struct {
	IsValid bool              `json:"is_valid"`
	Errors  []ValidationError `json:"errors"`
}

// ErrorMessages returns the messages of the error-severity findings only,
// in order.  The upsert engine concatenates these into its rejection report.
func (r ValidationResult) ErrorMessages() []string {
	var msgs []string
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

// Warnings returns the warning-severity findings only, in order.
func (r ValidationResult) Warnings() []ValidationError {
	var out []ValidationError
	for _, e := range r.Errors {
		if e.Severity == SeverityWarning {
			out = append(out, e)
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Validate
// ─────────────────────────────────────────────────────────────────────────────

// Validate runs every structural, type, and business-rule check against p
// and returns the full set of findings.  All checks run; nothing
// short-circuits, so repeated calls on an unmodified patent yield identical
// results.  A nil patent yields a single error-severity finding.
func Validate(p *Patent) ValidationResult {
	var errs []ValidationError

	add := func(field, message, severity string) {
		errs = append(errs, ValidationError{Field: field, Message: message, Severity: severity})
	}

	if p == nil {
		add("patent", "patent is nil", SeverityError)
		return ValidationResult{IsValid: false, Errors: errs}
	}

	// ── Required fields ───────────────────────────────────────────────────────
	if p.PatentID == "" {
		add("patent_id", "patent_id is required", SeverityError)
	}
	if p.Source == "" {
		add("source", "source is required", SeverityError)
	}
	if p.Title == "" {
		add("title", "title is missing", SeverityWarning)
	}
	if p.Metadata == nil {
		add("metadata", "metadata is required", SeverityError)
	} else {
		if p.Metadata.CreatedAt.IsZero() {
			add("metadata.created_at", "metadata.created_at is required", SeverityError)
		}
		if p.Metadata.UpdatedAt.IsZero() {
			add("metadata.updated_at", "metadata.updated_at is required", SeverityError)
		}
		if p.Metadata.Version < 1 {
			add("metadata.version", "metadata.version must be a positive integer", SeverityError)
		}
	}

	// ── Type checks ───────────────────────────────────────────────────────────
	if p.Dates != nil {
		checkDate := func(field string, d *Date) {
			if d != nil && !d.IsZero() && !d.Valid() {
				add(field, fmt.Sprintf("%s %q is not a parseable date", field, d.Raw()), SeverityError)
			}
		}
		checkDate("dates.filing", p.Dates.Filing)
		checkDate("dates.publication", p.Dates.Publication)
		checkDate("dates.grant", p.Dates.Grant)
		checkDate("dates.priority", p.Dates.Priority)
	}
	for i, c := range p.Claims {
		field := fmt.Sprintf("claims[%d]", i)
		if c.Number < 1 {
			add(field+".number", fmt.Sprintf("claim %d has invalid number %d", i+1, c.Number), SeverityError)
		}
		if c.Text == "" {
			add(field+".text", fmt.Sprintf("claim %d has empty text", c.Number), SeverityWarning)
		}
	}

	// ── Business rules ────────────────────────────────────────────────────────
	if p.Dates != nil && p.Dates.Filing != nil {
		if p.Dates.Publication != nil && p.Dates.Filing.After(*p.Dates.Publication) {
			add("dates", "filing date is after publication date", SeverityWarning)
		}
		if p.Dates.Grant != nil && p.Dates.Filing.After(*p.Dates.Grant) {
			add("dates", "filing date is after grant date", SeverityWarning)
		}
	}
	for _, c := range p.Claims {
		if c.DependentOn == nil {
			continue
		}
		if dep := *c.DependentOn; dep < 1 || dep >= c.Number {
			add(fmt.Sprintf("claims[%d].dependent_on", c.Number-1),
				fmt.Sprintf("claim %d depends on claim %d, which is not an earlier claim", c.Number, dep),
				SeverityWarning)
		}
	}
	if key, ok := externalIDKeyForSource[p.Source]; ok {
		if p.ExternalIDs[key] == "" {
			add("external_ids."+key,
				fmt.Sprintf("source %s should provide external id %s", p.Source, key),
				SeverityWarning)
		}
	}
	if p.Metadata != nil && len(p.Metadata.SourceVersion) == 0 {
		add("metadata.source_version", "metadata.source_version is missing", SeverityWarning)
	}

	result := ValidationResult{IsValid: true, Errors: errs}
	for _, e := range errs {
		if e.Severity == SeverityError {
			result.IsValid = false
			break
		}
	}
	return result
}

// ─────────────────────────────────────────────────────────────────────────────
// Completeness scoring
// ─────────────────────────────────────────────────────────────────────────────

// CompletenessScore returns a heuristic 0..100 measure of how many tracked
// fields are populated: 5 text fields, 4 date fields, and 5 array fields.
// A date counts when any value is present, parseable or not; validity is
// the validator's concern, not completeness's.  An array field counts as
// populated only when present with at least its minimum expected length,
// which is 1 for every array except citations, where an empty-but-present
// list is legitimate.  The ratio is rounded to the nearest integer.
func CompletenessScore(p *Patent) int {
	if p == nil {
		return 0
	}

	const total = 14
	populated := 0

	for _, s := range []string{p.PatentID, p.Source, p.Title, p.Abstract, p.Description} {
		if s != "" {
			populated++
		}
	}

	if p.Dates != nil {
		for _, d := range []*Date{p.Dates.Filing, p.Dates.Publication, p.Dates.Grant, p.Dates.Priority} {
			if d != nil && !d.IsZero() {
				populated++
			}
		}
	}

	if len(p.Claims) >= 1 {
		populated++
	}
	if len(p.Inventors) >= 1 {
		populated++
	}
	if len(p.Assignees) >= 1 {
		populated++
	}
	if len(p.Classifications) >= 1 {
		populated++
	}
	if p.Citations != nil {
		populated++
	}

	return int(math.Round(float64(populated) / float64(total) * 100))
}
