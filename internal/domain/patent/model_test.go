package patent

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_DateOnly(t *testing.T) {
	d := ParseDate("2023-06-15")
	require.True(t, d.Valid())
	assert.Equal(t, "2023-06-15", d.String())
}

func TestParseDate_RFC3339(t *testing.T) {
	d := ParseDate("2023-06-15T10:30:00Z")
	require.True(t, d.Valid())
	// Truncated to the calendar day.
	assert.Equal(t, "2023-06-15", d.String())
}

func TestParseDate_Unparseable(t *testing.T) {
	d := ParseDate("June 15th 2023")
	assert.False(t, d.Valid())
	assert.False(t, d.IsZero())
	assert.Equal(t, "June 15th 2023", d.Raw())
}

func TestDate_UnmarshalJSON_String(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2021-01-02"`), &d))
	assert.True(t, d.Valid())
	assert.Equal(t, "2021-01-02", d.String())
}

func TestDate_UnmarshalJSON_EpochMillis(t *testing.T) {
	var d Date
	ms := time.Date(2020, 3, 4, 12, 0, 0, 0, time.UTC).UnixMilli()
	require.NoError(t, json.Unmarshal([]byte(jsonNumber(ms)), &d))
	assert.True(t, d.Valid())
	assert.Equal(t, "2020-03-04", d.String())
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestDate_UnmarshalJSON_Null(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
}

func TestDate_UnmarshalJSON_BadStringPreserved(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"not-a-date"`), &d))
	assert.False(t, d.Valid())
	assert.Equal(t, "not-a-date", d.Raw())
}

func TestDate_MarshalJSON(t *testing.T) {
	valid, _ := json.Marshal(ParseDate("2019-12-31"))
	assert.Equal(t, `"2019-12-31"`, string(valid))

	invalid, _ := json.Marshal(ParseDate("bogus"))
	assert.Equal(t, `"bogus"`, string(invalid))

	zero, _ := json.Marshal(Date{})
	assert.Equal(t, `null`, string(zero))
}

func TestDate_Equal_AcrossRepresentations(t *testing.T) {
	fromString := ParseDate("2022-05-01")
	fromTimestamp := ParseDate("2022-05-01T23:59:59Z")
	fromTime := NewDate(time.Date(2022, 5, 1, 8, 0, 0, 0, time.UTC))

	assert.True(t, fromString.Equal(fromTimestamp))
	assert.True(t, fromString.Equal(fromTime))
	assert.False(t, fromString.Equal(ParseDate("2022-05-02")))
}

func TestDate_After(t *testing.T) {
	earlier := ParseDate("2000-01-01")
	later := ParseDate("2010-01-01")
	assert.True(t, later.After(earlier))
	assert.False(t, earlier.After(later))
	// Invalid dates never order.
	assert.False(t, ParseDate("bogus").After(earlier))
	assert.False(t, later.After(ParseDate("bogus")))
}

func TestPatent_JSONRoundTrip(t *testing.T) {
	dep := 1
	filing := ParseDate("2020-01-15")
	p := &Patent{
		PatentID:    "US10123456",
		ExternalIDs: map[string]string{"patentsview_id": "10123456"},
		Source:      SourcePatentsView,
		Title:       "Widget",
		KindCode:    "B2",
		Claims: []Claim{
			{Number: 1, Text: "A widget."},
			{Number: 2, Text: "The widget of claim 1.", DependentOn: &dep},
		},
		Dates: &PatentDates{Filing: &filing},
		Inventors: []Inventor{
			{Name: "Ada Lovelace", Location: &Location{Country: "GB", City: "London"}},
		},
		Metadata: NewMetadata(SourcePatentsView, map[string]string{"patentsview": "2023-01-01"}, time.Now().UTC()),
	}

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded Patent
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, p.PatentID, decoded.PatentID)
	assert.Equal(t, p.Claims, decoded.Claims)
	require.NotNil(t, decoded.Dates.Filing)
	assert.True(t, decoded.Dates.Filing.Equal(filing))
	assert.Equal(t, 1, decoded.Metadata.Version)
	assert.Equal(t, []string{"all"}, decoded.Metadata.ChangeHistory[0].FieldsChanged)
}

func TestNewMetadata(t *testing.T) {
	now := time.Now().UTC()
	m := NewMetadata(SourceEPO, nil, now)
	assert.Equal(t, 1, m.Version)
	require.Len(t, m.ChangeHistory, 1)
	assert.Equal(t, SourceEPO, m.ChangeHistory[0].Source)
	assert.Equal(t, now, m.CreatedAt)
	assert.Equal(t, now, m.UpdatedAt)
}
