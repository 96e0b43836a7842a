package opensearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentflow/internal/search"
)

func TestBuildQueryBody_FullText(t *testing.T) {
	body := buildQueryBody(&search.Request{Query: "neural network"})
	boolQuery := body["bool"].(map[string]interface{})

	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)
	mm := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "neural network", mm["query"])
	assert.Equal(t, SearchableFields, mm["fields"])

	_, hasFilter := boolQuery["filter"]
	assert.False(t, hasFilter)
}

func TestBuildQueryBody_EmptyQueryMatchesAll(t *testing.T) {
	body := buildQueryBody(&search.Request{Query: "   "})
	boolQuery := body["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	_, isMatchAll := must[0].(map[string]interface{})["match_all"]
	assert.True(t, isMatchAll)
}

func TestBuildQueryBody_FilterExpression(t *testing.T) {
	body := buildQueryBody(&search.Request{
		Query:  "widget",
		Filter: `kind_code:"B2" AND dates.filing:[2020-01-01 TO 2023-01-01]`,
	})
	boolQuery := body["bool"].(map[string]interface{})
	filter := boolQuery["filter"].([]interface{})
	require.Len(t, filter, 1)
	qs := filter[0].(map[string]interface{})["query_string"].(map[string]interface{})
	assert.Equal(t, `kind_code:"B2" AND dates.filing:[2020-01-01 TO 2023-01-01]`, qs["query"])
}

func TestBuildSortBody(t *testing.T) {
	sorts := buildSortBody([]string{"dates.filing:desc", "patent_id"})
	require.Len(t, sorts, 2)

	first := sorts[0].(map[string]interface{})["dates.filing"].(map[string]interface{})
	assert.Equal(t, "desc", first["order"])

	second := sorts[1].(map[string]interface{})["patent_id"].(map[string]interface{})
	assert.Equal(t, "asc", second["order"])
}

func TestIndexBody_Shape(t *testing.T) {
	body := indexBody()

	mappings := body["mappings"].(map[string]interface{})
	props := mappings["properties"].(map[string]interface{})

	patentID := props["patent_id"].(map[string]interface{})
	assert.Equal(t, "keyword", patentID["type"])

	title := props["title"].(map[string]interface{})
	assert.Equal(t, "text", title["type"])
	assert.Equal(t, "patent_synonyms", title["analyzer"])

	dates := props["dates"].(map[string]interface{})["properties"].(map[string]interface{})
	for _, field := range []string{"filing", "publication", "grant", "priority"} {
		d := dates[field].(map[string]interface{})
		assert.Equal(t, "date", d["type"], field)
	}

	settings := body["settings"].(map[string]interface{})
	analysis := settings["analysis"].(map[string]interface{})
	filter := analysis["filter"].(map[string]interface{})["patent_synonym_filter"].(map[string]interface{})
	assert.Equal(t, "synonym", filter["type"])
	assert.Contains(t, filter["synonyms"], "vr, virtual reality")
}
