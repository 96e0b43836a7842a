package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentflow/internal/config"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/pkg/errors"
)

func enhancerFor(t *testing.T, handler http.HandlerFunc) *HTTPEnhancer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewHTTPEnhancer(config.EnhancerConfig{
		Endpoint:       server.URL,
		APIKey:         "test-key",
		Model:          "rewrite-v1",
		RequestTimeout: 2 * time.Second,
	}, logging.NewNopLogger())
}

func TestNewHTTPEnhancer_DisabledWithoutEndpoint(t *testing.T) {
	e := NewHTTPEnhancer(config.EnhancerConfig{}, logging.NewNopLogger())
	assert.Nil(t, e)
}

func TestEnhance_SendsModelAndAuth(t *testing.T) {
	var gotAuth string
	var gotBody enhanceRequest
	e := enhancerFor(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(enhanceResponse{Output: "widget OR gadget"})
	})

	out, err := e.Enhance(context.Background(), "widget")
	require.NoError(t, err)
	assert.Equal(t, "widget OR gadget", out)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "rewrite-v1", gotBody.Model)
	assert.Equal(t, "widget", gotBody.Input)
}

func TestEnhance_NonOKStatus(t *testing.T) {
	e := enhancerFor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := e.Enhance(context.Background(), "widget")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEnhancementFailed))
}

func TestEnhance_EmptyRewriteRejected(t *testing.T) {
	e := enhancerFor(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(enhanceResponse{Output: "  "})
	})

	_, err := e.Enhance(context.Background(), "widget")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEnhancementFailed))
}
