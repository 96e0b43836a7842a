package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
database:
  host: db.example.com
  user: pipeline
  password: secret
  db_name: patents
patentsview:
  api_key: test-key
search:
  default_limit: 25
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, "pipeline", cfg.Database.User)
	assert.Equal(t, "test-key", cfg.PatentsView.APIKey)
	assert.Equal(t, 25, cfg.Search.DefaultLimit)

	// Unset fields receive defaults.
	assert.Equal(t, DefaultDBPort, cfg.Database.Port)
	assert.Equal(t, DefaultEarliestFilingDate, cfg.Search.EarliestFilingDate)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeTempConfig(t, "database: [not a map"))
	require.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	// A user is required and has no default.
	_, err := Load(writeTempConfig(t, "database:\n  host: db\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PATENTFLOW_DATABASE_USER", "envuser")
	t.Setenv("PATENTFLOW_DATABASE_HOST", "envhost")
	t.Setenv("PATENTFLOW_REDIS_ADDR", "cache:6379")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "envuser", cfg.Database.User)
	assert.Equal(t, "envhost", cfg.Database.Host)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() { MustLoad("/nonexistent/config.yaml") })
}
