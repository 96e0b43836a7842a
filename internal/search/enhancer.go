package search

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/turtacn/patentflow/internal/config"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/pkg/errors"
)

// QueryEnhancer rewrites a user query into a richer search query.  It is
// an optional collaborator: the search service treats every failure as a
// fall-back to the original text.
type QueryEnhancer interface {
	Enhance(ctx context.Context, query string) (string, error)
}

// HTTPEnhancer calls an external text-rewrite endpoint.
type HTTPEnhancer struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     logging.Logger
}

// NewHTTPEnhancer builds an enhancer from configuration.  A missing
// endpoint disables enhancement: the constructor returns nil and callers
// pass the nil through to the search service.
func NewHTTPEnhancer(cfg config.EnhancerConfig, logger logging.Logger) *HTTPEnhancer {
	if cfg.Endpoint == "" {
		return nil
	}
	return &HTTPEnhancer{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger.Named("enhancer"),
	}
}

type enhanceRequest struct {
	Model string `json:"model,omitempty"`
	Input string `json:"input"`
}

type enhanceResponse struct {
	Output string `json:"output"`
}

// Enhance sends the query for rewriting and returns the rewritten text.
// Any transport or decode failure, and any empty rewrite, surfaces as an
// error the caller is expected to swallow.
func (e *HTTPEnhancer) Enhance(ctx context.Context, query string) (string, error) {
	payload, err := json.Marshal(enhanceRequest{Model: e.model, Input: query})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode enhancement request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEnhancementFailed, "failed to build enhancement request")
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEnhancementFailed, "enhancement request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf(errors.ErrCodeEnhancementFailed,
			"enhancement returned status %d", resp.StatusCode)
	}

	var decoded enhanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEnhancementFailed, "failed to decode enhancement response")
	}
	if strings.TrimSpace(decoded.Output) == "" {
		return "", errors.New(errors.ErrCodeEnhancementFailed, "enhancement returned empty text")
	}
	return decoded.Output, nil
}
