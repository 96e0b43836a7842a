// Package opensearch adapts the OpenSearch cluster to the pipeline's search
// Engine port.  It owns the patent index lifecycle (settings, mappings,
// synonyms) and all document-level operations against it.
package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/turtacn/patentflow/internal/config"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/pkg/errors"
)

// Client manages the OpenSearch connection and index naming.
type Client struct {
	client    *opensearch.Client
	indexName string
	logger    logging.Logger
}

// NewClient creates a connected OpenSearch client and verifies it with a
// ping.
func NewClient(cfg config.OpenSearchConfig, logger logging.Logger) (*Client, error) {
	transport := &http.Transport{MaxIdleConnsPerHost: 10}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.User,
		Password:      cfg.Password,
		MaxRetries:    3,
		RetryBackoff:  func(int) time.Duration { return 100 * time.Millisecond },
		RetryOnStatus: []int{502, 503, 504, 429},
		Transport:     transport,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchFailed, "failed to create opensearch client")
	}

	c := &Client{
		client:    osClient,
		indexName: cfg.IndexPrefix + "-patents",
		logger:    logger.Named("opensearch"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}

	logger.Info("connected to OpenSearch", logging.String("index", c.indexName))
	return c, nil
}

// Ping checks the connection to the cluster.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchFailed, "opensearch ping failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return errors.Newf(errors.ErrCodeSearchFailed, "opensearch ping returned status %d", resp.StatusCode)
	}
	return nil
}

// GetClient returns the underlying opensearch-go client.
func (c *Client) GetClient() *opensearch.Client { return c.client }

// IndexName returns the fully qualified patent index name.
func (c *Client) IndexName() string { return c.indexName }
