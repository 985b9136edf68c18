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

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, StorageAPI, cfg.StorageType)
	assert.Equal(t, time.Hour, cfg.PendingTTL)
	assert.Equal(t, 5*time.Second, cfg.NotifyDisplay)
	assert.Equal(t, 300*time.Millisecond, cfg.NotifyExit)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdle)
	assert.Equal(t, "ai_chef", cfg.MongoDB)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("STORAGE_TYPE", "Mongo")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("NOTIFY_DISPLAY", "2500")
	t.Setenv("PENDING_TTL", "15m")
	t.Setenv("LOG_DEV", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.Equal(t, StorageMongo, cfg.StorageType)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.AllowsOrigin("https://b.example.com"))
	assert.False(t, cfg.AllowsOrigin("https://evil.example.com"))
	assert.Equal(t, 2500*time.Millisecond, cfg.NotifyDisplay)
	assert.Equal(t, 15*time.Minute, cfg.PendingTTL)
	assert.True(t, cfg.LogDev)
}

func TestLoadReportsEveryProblem(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORAGE_TYPE", "sqlite")
	t.Setenv("REDIS_DB", "zero")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_DB")

	t.Setenv("REDIS_DB", "")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_TYPE")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("AICHEF_CONFIG_TEST_SECRET=from-file\n"), 0o600))
	t.Setenv("AICHEF_CONFIG_TEST_SECRET", "")
	os.Unsetenv("AICHEF_CONFIG_TEST_SECRET")
	t.Setenv("JWT_SECRET", "x")

	_, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", os.Getenv("AICHEF_CONFIG_TEST_SECRET"))
	os.Unsetenv("AICHEF_CONFIG_TEST_SECRET")

	_, err = Load(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}
