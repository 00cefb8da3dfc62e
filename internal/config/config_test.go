package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressfeed/pressfeed/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)

	assert.Equal(t, "jsonfile", cfg.Storage.Engine)
	assert.Equal(t, "./data", cfg.Storage.DataPath)
	assert.Empty(t, cfg.Storage.PostgresDSN)

	assert.Equal(t, "development", cfg.Security.Mode)
	assert.Empty(t, cfg.Security.APIToken)

	assert.False(t, cfg.Backup.Enabled)
	assert.Equal(t, "24h", cfg.Backup.Interval)
	assert.Equal(t, "./backups", cfg.Backup.Path)
	assert.True(t, cfg.Backup.Verify)
	assert.Equal(t, 24, cfg.Backup.RetentionHourly)
	assert.Equal(t, 7, cfg.Backup.RetentionDaily)
	assert.Equal(t, 4, cfg.Backup.RetentionWeekly)
	assert.Equal(t, 12, cfg.Backup.RetentionMonthly)

	assert.True(t, cfg.Features.EnableWebhook)
	assert.True(t, cfg.Features.EnableAPI)
	assert.True(t, cfg.Features.EnableEvents)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pressfeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadOverlaysYAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 8080
storage:
  engine: sqlite
  data_path: /var/lib/pressfeed
security:
  mode: production
  api_token: secret-token
backup:
  enabled: true
  retention_daily: 30
features:
  enable_webhook: false
`)
	t.Setenv("PRESSFEED_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Engine)
	assert.Equal(t, "/var/lib/pressfeed", cfg.Storage.DataPath)
	assert.Equal(t, "production", cfg.Security.Mode)
	assert.Equal(t, "secret-token", cfg.Security.APIToken)
	assert.True(t, cfg.Backup.Enabled)
	assert.Equal(t, 30, cfg.Backup.RetentionDaily)
	assert.False(t, cfg.Features.EnableWebhook)

	// Keys the file does not mention keep their defaults.
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 24, cfg.Backup.RetentionHourly)
	assert.True(t, cfg.Features.EnableAPI)
}

func TestLoadToleratesEmptyFile(t *testing.T) {
	path := writeConfigFile(t, "")
	t.Setenv("PRESSFEED_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfigFile(t, `
server:
  prot: 8080
`)
	t.Setenv("PRESSFEED_CONFIG", path)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: parse")
}

func TestLoadRejectsMissingExplicitFile(t *testing.T) {
	t.Setenv("PRESSFEED_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := config.Load()
	require.Error(t, err)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 8080
security:
  mode: production
`)
	t.Setenv("PRESSFEED_CONFIG", path)
	t.Setenv("PRESSFEED_PORT", "9090")
	t.Setenv("PRESSFEED_SECURITY_MODE", "development")
	t.Setenv("PRESSFEED_STORAGE_ENGINE", "postgres")
	t.Setenv("PRESSFEED_POSTGRES_DSN", "postgres://localhost/pressfeed")
	t.Setenv("PRESSFEED_BACKUP_ENABLED", "yes")
	t.Setenv("PRESSFEED_ENABLE_EVENTS", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Security.Mode)
	assert.Equal(t, "postgres", cfg.Storage.Engine)
	assert.Equal(t, "postgres://localhost/pressfeed", cfg.Storage.PostgresDSN)
	assert.True(t, cfg.Backup.Enabled)
	assert.False(t, cfg.Features.EnableEvents)
}

func TestEnvironmentIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("PRESSFEED_CONFIG", writeConfigFile(t, ""))
	t.Setenv("PRESSFEED_PORT", "not-a-number")
	t.Setenv("PRESSFEED_BACKUP_VERIFY", "maybe")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.True(t, cfg.Backup.Verify)
}
