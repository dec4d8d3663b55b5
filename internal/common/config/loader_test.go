// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
app:
  name: ecycle-workers
  environment: test
camunda:
  enabled: false
database:
  postgres:
    host: localhost
    database: ecycle
    user: ${TEST_DB_USER}
  redis:
    address: localhost:6379
workers:
  estimate-value:
    enabled: true
    max_jobs_active: 8
  locate-facilities:
    enabled: false
vision:
  base_url: http://vision.local
facilities:
  default_limit: 5
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TEST_DB_USER", "recycler")

	cfg, err := LoadFromFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "recycler", cfg.Database.Postgres.User)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 5, cfg.Facilities.DefaultLimit)
	assert.Equal(t, 10*time.Minute, cfg.Facilities.CacheTTLDuration())
	assert.Equal(t, 24*time.Hour, cfg.Session.TTLDuration())
	assert.Equal(t, "http://vision.local", cfg.Vision.BaseURL)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile_WorkerConfig(t *testing.T) {
	t.Setenv("TEST_DB_USER", "recycler")

	cfg, err := LoadFromFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	estimate := GetWorkerConfig(cfg, "estimate-value")
	assert.Equal(t, 8, estimate.MaxJobsActive)
	assert.Equal(t, 30000, estimate.Timeout)
	assert.Equal(t, 3, estimate.MaxRetries)

	assert.True(t, IsWorkerEnabled(cfg, "estimate-value"))
	assert.False(t, IsWorkerEnabled(cfg, "locate-facilities"))
	assert.True(t, IsWorkerEnabled(cfg, "classify-item"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "classify-item").MaxJobsActive)
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("TEST_DB_USER", "recycler")
	t.Setenv("DATABASE_REDIS_ADDRESS", "redis:6380")
	t.Setenv("VISION_API_KEY", "secret")

	cfg, err := LoadFromFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "redis:6380", cfg.Database.Redis.Address)
	assert.Equal(t, "secret", cfg.Vision.APIKey)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing postgres host",
			body: "database:\n  postgres:\n    database: x\n    user: y\n  redis:\n    address: r:1\n",
		},
		{
			name: "missing redis address",
			body: "database:\n  postgres:\n    host: h\n    database: x\n    user: y\n",
		},
		{
			name: "camunda enabled without broker",
			body: "camunda:\n  enabled: true\ndatabase:\n  postgres:\n    host: h\n    database: x\n    user: y\n  redis:\n    address: r:1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
