// Package patent defines the unified patent model that every external source
// transforms into, together with validation, completeness scoring, and
// change detection.  All business rules that concern patent records live
// here; infrastructure concerns (persistence, search, messaging) are handled
// by separate adapter layers behind the ports declared in repository.go.
package patent

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Date value object
// ─────────────────────────────────────────────────────────────────────────────

// dateLayouts are the accepted string representations, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02T15:04:05",
}

// Date is a calendar date tolerant of the representations patent sources
// actually emit: RFC 3339 timestamps, plain YYYY-MM-DD strings, and epoch
// milliseconds.  A value that fails to parse is preserved verbatim so the
// validator can report it instead of the decoder dropping the record.
type Date struct {
	t   time.Time
	raw string
}

// NewDate constructs a valid Date from a time.Time, truncated to the day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses s using the accepted layouts.  On failure the returned
// Date is invalid but retains s for diagnostics.
func ParseDate(s string) Date {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t)
		}
	}
	return Date{raw: s}
}

// Valid reports whether the Date holds a successfully parsed calendar date.
func (d Date) Valid() bool { return !d.t.IsZero() }

// IsZero reports whether the Date is entirely unset (no parsed time and no
// preserved raw string).
func (d Date) IsZero() bool { return d.t.IsZero() && d.raw == "" }

// Time returns the underlying time.Time; zero when the Date is invalid.
func (d Date) Time() time.Time { return d.t }

// Raw returns the original unparseable string, empty for valid dates.
func (d Date) Raw() string { return d.raw }

// String renders a valid Date as YYYY-MM-DD, otherwise the preserved raw
// string.
func (d Date) String() string {
	if d.Valid() {
		return d.t.Format("2006-01-02")
	}
	return d.raw
}

// After reports whether d is strictly later than other.  Either side being
// invalid yields false so business-rule checks stay conservative.
func (d Date) After(other Date) bool {
	if !d.Valid() || !other.Valid() {
		return false
	}
	return d.t.After(other.t)
}

// Equal reports value equality across representations: two valid dates
// compare by calendar day, two invalid ones by their raw strings.
func (d Date) Equal(other Date) bool {
	if d.Valid() && other.Valid() {
		return d.t.Equal(other.t)
	}
	return d.raw == other.raw && d.t.IsZero() == other.t.IsZero()
}

// MarshalJSON encodes a valid Date as "YYYY-MM-DD", an invalid one as its
// preserved raw string, and a zero one as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON accepts null, an epoch-milliseconds number, or a string in
// any accepted layout.  Unparseable strings are preserved rather than
// rejected; the validator surfaces them as error-severity findings.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	if s, err := strconv.Unquote(string(data)); err == nil {
		if s == "" {
			*d = Date{}
			return nil
		}
		*d = ParseDate(s)
		return nil
	}
	if ms, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*d = NewDate(time.UnixMilli(ms).UTC())
		return nil
	}
	return fmt.Errorf("patent: cannot decode date from %s", data)
}

// ─────────────────────────────────────────────────────────────────────────────
// Value objects
// ─────────────────────────────────────────────────────────────────────────────

// Location is a coarse geographic reference attached to inventors and
// assignees.
type Location struct {
	Country string `json:"country"`
	State   string `json:"state,omitempty"`
	City    string `json:"city,omitempty"`
}

// Inventor is one named inventor of the patent.
type Inventor struct {
	Name         string    `json:"name"`
	Location     *Location `json:"location,omitempty"`
	NormalizedID string    `json:"normalized_id,omitempty"`
}

// Assignee is the organisation or individual the patent is assigned to.
// Type is a named category derived from the source's assignee type code.
type Assignee struct {
	Name         string    `json:"name"`
	Type         string    `json:"type,omitempty"`
	Location     *Location `json:"location,omitempty"`
	NormalizedID string    `json:"normalized_id,omitempty"`
}

// Claim is one numbered claim of the patent.  Number is 1-based and unique
// within the patent; DependentOn, when present, references a strictly
// smaller claim number.
type Claim struct {
	Number      int    `json:"number"`
	Text        string `json:"text"`
	DependentOn *int   `json:"dependent_on,omitempty"`
}

// Classification systems recognised by the pipeline.
const (
	ClassificationCPC  = "CPC"
	ClassificationUSPC = "USPC"
	ClassificationIPC  = "IPC"
)

// Classification is one technology classification entry.
type Classification struct {
	System      string   `json:"system"`
	Code        string   `json:"code"`
	Description string   `json:"description,omitempty"`
	Hierarchy   []string `json:"hierarchy,omitempty"`
}

// Citation references another patent cited by this one.
type Citation struct {
	PatentID     string `json:"patent_id"`
	CitationType string `json:"citation_type,omitempty"`
}

// PatentDates groups the lifecycle dates of a patent.  Any of the four may
// be absent.
type PatentDates struct {
	Filing      *Date `json:"filing,omitempty"`
	Publication *Date `json:"publication,omitempty"`
	Grant       *Date `json:"grant,omitempty"`
	Priority    *Date `json:"priority,omitempty"`
}

// FamilyInfo links the patent to its simple and extended patent families.
type FamilyInfo struct {
	FamilyID string   `json:"family_id,omitempty"`
	Members  []string `json:"members,omitempty"`
}

// LegalStatus captures the patent's most recent legal event, when the
// source reports one.
type LegalStatus struct {
	Status    string `json:"status,omitempty"`
	EventDate *Date  `json:"event_date,omitempty"`
}

// ChangeHistoryEntry is one append-only record of a write to the patent.
type ChangeHistoryEntry struct {
	Version       int       `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
	FieldsChanged []string  `json:"fields_changed"`
}

// Metadata carries the bookkeeping the upsert engine maintains.  Version
// starts at 1 and increases by exactly 1 per successful update; the change
// history holds one entry per write, creation included.
type Metadata struct {
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	Version       int                  `json:"version"`
	SourceVersion map[string]string    `json:"source_version,omitempty"`
	ChangeHistory []ChangeHistoryEntry `json:"change_history"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Patent aggregate root
// ─────────────────────────────────────────────────────────────────────────────

// Source tags for the systems the pipeline ingests from.
const (
	SourcePatentsView = "patentsview"
	SourceEPO         = "epo"
	SourceWIPO        = "wipo"
)

// Patent is the unified, source-agnostic patent record keyed by PatentID.
// PatentID never changes after creation; all mutation flows through the
// upsert engine, never partial in-place edits.
type Patent struct {
	PatentID    string            `json:"patent_id"`
	ExternalIDs map[string]string `json:"external_ids,omitempty"`
	Source      string            `json:"source"`

	Title       string `json:"title,omitempty"`
	Abstract    string `json:"abstract,omitempty"`
	Description string `json:"description,omitempty"`
	KindCode    string `json:"kind_code,omitempty"`

	Claims          []Claim          `json:"claims,omitempty"`
	Dates           *PatentDates     `json:"dates,omitempty"`
	Inventors       []Inventor       `json:"inventors,omitempty"`
	Assignees       []Assignee       `json:"assignees,omitempty"`
	Classifications []Classification `json:"classifications,omitempty"`
	Citations       []Citation       `json:"citations,omitempty"`

	Family      *FamilyInfo  `json:"family,omitempty"`
	LegalStatus *LegalStatus `json:"legal_status,omitempty"`

	Metadata *Metadata `json:"metadata,omitempty"`
}

// NewMetadata returns the metadata for a freshly created patent: version 1
// and a single creation entry marking every field changed.
func NewMetadata(source string, sourceVersion map[string]string, now time.Time) *Metadata {
	return &Metadata{
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
		SourceVersion: sourceVersion,
		ChangeHistory: []ChangeHistoryEntry{{
			Version:       1,
			Timestamp:     now,
			Source:        source,
			FieldsChanged: []string{"all"},
		}},
	}
}

// externalIDKeyForSource maps a source tag to the external-id key the
// validator expects that source to populate.
var externalIDKeyForSource = map[string]string{
	SourcePatentsView: "patentsview_id",
	SourceEPO:         "epo_id",
	SourceWIPO:        "wipo_id",
}
