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
	t.Setenv("VILLAGE_CONFIG", "")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("TRUST_PROXY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Equal(t, 24*time.Hour, cfg.SessionDuration)
	assert.False(t, cfg.TrustProxy, "forwarding headers are ignored unless enabled")
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "village.yaml")
	yaml := `
server:
  port: "9090"
  timezone: America/Chicago
  session_ttl: 12h
  trust_proxy: true
database:
  type: postgres
  url: postgres://localhost/village
storage:
  driver: s3
  bucket: village-uploads
oauth:
  google:
    client_id: yaml-client
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("VILLAGE_CONFIG", path)
	t.Setenv("PORT", "7070")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("TRUST_PROXY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.ServerPort, "environment wins over the file")
	assert.Equal(t, "postgres", cfg.DatabaseType)
	assert.Equal(t, "postgres://localhost/village", cfg.DatabaseURL)
	assert.Equal(t, "s3", cfg.StorageDriver)
	assert.Equal(t, "village-uploads", cfg.S3Bucket)
	assert.Equal(t, "yaml-client", cfg.GoogleClientID)
	assert.Equal(t, 12*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.True(t, cfg.TrustProxy)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", loc.String())
}

func TestLoadRejectsBadInput(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("VILLAGE_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad timezone", func(t *testing.T) {
		t.Setenv("VILLAGE_CONFIG", "")
		t.Setenv("TZ_NAME", "Mars/Olympus")
		_, err := Load()
		assert.Error(t, err)
	})
}
