package opensearch

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/pkg/errors"
)

// SearchableFields lists the full-text fields queried by default, in
// relevance order.
var SearchableFields = []string{
	"title",
	"abstract",
	"description",
	"claims.text",
	"inventors.name",
	"assignees.name",
	"classifications.code",
	"classifications.description",
}

// querySynonyms expand common technology shorthand at analysis time.
var querySynonyms = []string{
	"ai, artificial intelligence, machine learning, neural network",
	"blockchain, distributed ledger, crypto",
	"iot, internet of things, connected devices",
	"vr, virtual reality",
	"ar, augmented reality",
}

// indexBody is the settings-and-mappings document the patent index is
// created with.  Text fields searched by users get the synonym analyzer;
// filterable identifiers are keywords; dates use the date type so range
// filters compare chronologically.
func indexBody() map[string]interface{} {
	searchableText := map[string]interface{}{
		"type":     "text",
		"analyzer": "patent_synonyms",
	}
	keyword := map[string]interface{}{"type": "keyword"}
	date := map[string]interface{}{
		"type":   "date",
		"format": "yyyy-MM-dd||strict_date_optional_time",
	}

	return map[string]interface{}{
		"settings": map[string]interface{}{
			"analysis": map[string]interface{}{
				"filter": map[string]interface{}{
					"patent_synonym_filter": map[string]interface{}{
						"type":     "synonym",
						"synonyms": querySynonyms,
					},
				},
				"analyzer": map[string]interface{}{
					"patent_synonyms": map[string]interface{}{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "patent_synonym_filter"},
					},
				},
			},
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"patent_id": keyword,
				"source":    keyword,
				"kind_code": keyword,

				"title":       searchableText,
				"abstract":    searchableText,
				"description": searchableText,

				"claims": map[string]interface{}{
					"properties": map[string]interface{}{
						"number":       map[string]interface{}{"type": "integer"},
						"text":         searchableText,
						"dependent_on": map[string]interface{}{"type": "integer"},
					},
				},
				"dates": map[string]interface{}{
					"properties": map[string]interface{}{
						"filing":      date,
						"publication": date,
						"grant":       date,
						"priority":    date,
					},
				},
				"inventors": map[string]interface{}{
					"properties": map[string]interface{}{
						"name": searchableText,
						"location": map[string]interface{}{
							"properties": map[string]interface{}{
								"country": keyword,
								"state":   keyword,
								"city":    keyword,
							},
						},
					},
				},
				"assignees": map[string]interface{}{
					"properties": map[string]interface{}{
						"name": searchableText,
						"type": keyword,
						"location": map[string]interface{}{
							"properties": map[string]interface{}{
								"country": keyword,
								"state":   keyword,
								"city":    keyword,
							},
						},
					},
				},
				"classifications": map[string]interface{}{
					"properties": map[string]interface{}{
						"system":      keyword,
						"code":        keyword,
						"description": searchableText,
						"hierarchy":   keyword,
					},
				},
				"citations": map[string]interface{}{
					"properties": map[string]interface{}{
						"patent_id":     keyword,
						"citation_type": keyword,
					},
				},
				"metadata": map[string]interface{}{
					"properties": map[string]interface{}{
						"version":    map[string]interface{}{"type": "integer"},
						"created_at": map[string]interface{}{"type": "date"},
						"updated_at": map[string]interface{}{"type": "date"},
					},
				},
			},
		},
	}
}

// Indexer owns the patent index lifecycle.
type Indexer struct {
	client *Client
	logger logging.Logger
}

// NewIndexer creates an Indexer over an established client.
func NewIndexer(client *Client, logger logging.Logger) *Indexer {
	return &Indexer{client: client, logger: logger.Named("indexer")}
}

// EnsureIndex creates the patent index with its settings and mappings when
// it does not exist yet.  An existing index is left untouched.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	exists, err := i.IndexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		i.logger.Debug("patent index already exists", logging.String("index", i.client.IndexName()))
		return nil
	}

	body, err := json.Marshal(indexBody())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal index configuration")
	}

	req := opensearchapi.IndicesCreateRequest{
		Index: i.client.IndexName(),
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexConfigFailed, "failed to create patent index")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return errors.Newf(errors.ErrCodeIndexConfigFailed,
			"index creation returned status %d", resp.StatusCode)
	}

	i.logger.Info("created patent index", logging.String("index", i.client.IndexName()))
	return nil
}

// IndexExists reports whether the patent index exists.
func (i *Indexer) IndexExists(ctx context.Context) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{Index: []string{i.client.IndexName()}}
	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeSearchFailed, "failed to check index existence")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case 200:
		return true, nil
	case 404:
		return false, nil
	default:
		return false, errors.Newf(errors.ErrCodeSearchFailed,
			"index existence check returned status %d", resp.StatusCode)
	}
}

// DeleteIndex removes the patent index.  Used by administrative tooling
// and tests, never by the pipeline itself.
func (i *Indexer) DeleteIndex(ctx context.Context) error {
	req := opensearchapi.IndicesDeleteRequest{Index: []string{i.client.IndexName()}}
	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchFailed, "failed to delete patent index")
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return errors.New(errors.ErrCodeNotFound, "patent index not found")
	}
	if resp.IsError() {
		return errors.Newf(errors.ErrCodeSearchFailed, "index deletion returned status %d", resp.StatusCode)
	}

	i.logger.Warn("deleted patent index", logging.String("index", i.client.IndexName()))
	return nil
}
