package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "default", cfg.Flow)
	assert.Equal(t, 3, cfg.APIMaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
collect:
  url: http://backend/collect
  timeout: 3s
  max_retries: 5
session:
  ttl: 2h
  flow: breakdown
`), 0o600))

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "7070")
	t.Setenv("REDIS_URI", "redis://cache:6379")
	t.Setenv("COLLECT_API_MAX_RETRIES", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.HTTPPort)
	assert.Equal(t, "http://backend/collect", cfg.CollectAPIURL)
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.Equal(t, 5, cfg.APIMaxRetries)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "breakdown", cfg.Flow)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
}

func TestLoadMissingFileIsIgnored(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NoError(t, err)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	t.Setenv("JWT_SECRET", "s3cret")

	_, err := Load(path)
	assert.Error(t, err)
}
