package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Search.MaxPages)
	assert.Equal(t, 200, cfg.Search.PageIntervalMillis)
	assert.Equal(t, 3, cfg.Search.LookupMatches)
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.Equal(t, 10, cfg.Enrich.TimeoutSecs)
	assert.Empty(t, cfg.Unipile.APIKey)
	assert.Empty(t, cfg.Cache.RedisURL)
	assert.Empty(t, cfg.Enrich.WebhookURL)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: sqlite
unipile:
  api_key: test-key
  dsn: api6
log:
  level: debug
  format: console
server:
  port: 9090
search:
  max_pages: 10
  page_interval_millis: 500
enrich:
  webhook_url: https://hooks.example.com/enrich
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "test-key", cfg.Unipile.APIKey)
	assert.Equal(t, "api6", cfg.Unipile.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Search.MaxPages)
	assert.Equal(t, 500, cfg.Search.PageIntervalMillis)
	assert.Equal(t, "https://hooks.example.com/enrich", cfg.Enrich.WebhookURL)
	// Defaults still apply for unset values
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.Equal(t, 3, cfg.Search.LookupMatches)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SAM_STORE_DRIVER", "postgres")
	t.Setenv("SAM_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chTempDir(t)

	t.Setenv("SAM_SERVER_PORT", "3000")
	t.Setenv("SAM_UNIPILE_API_KEY", "env-key")
	t.Setenv("SAM_UNIPILE_DSN", "api6")
	t.Setenv("SAM_STORE_DATABASE_URL", "postgres://localhost/prospector")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "env-key", cfg.Unipile.APIKey)
	assert.Equal(t, "api6", cfg.Unipile.DSN)
	assert.Equal(t, "postgres://localhost/prospector", cfg.Store.DatabaseURL)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validConfig returns a Config that passes validation in every mode.
func validConfig() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = "postgres://localhost/prospector"
	cfg.Unipile.APIKey = "test-key"
	cfg.Unipile.DSN = "api6"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateSearch_AllPresent(t *testing.T) {
	assert.NoError(t, validConfig().Validate("search"))
}

func TestValidateSearch_MissingCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Unipile.APIKey = ""
	cfg.Unipile.DSN = ""

	err := cfg.Validate("search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unipile.api_key is required")
	assert.Contains(t, err.Error(), "unipile.dsn is required")
}

func TestValidateSearch_PostgresNeedsURL(t *testing.T) {
	cfg := validConfig()
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateSearch_SQLiteNeedsNoURL(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = ""

	assert.NoError(t, cfg.Validate("search"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateAccounts_OnlyNeedsProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = ""
	cfg.Store.DatabaseURL = ""
	cfg.Server.Port = 0

	assert.NoError(t, cfg.Validate("accounts"))
}

func TestValidateMigrate_OnlyNeedsStore(t *testing.T) {
	cfg := validConfig()
	cfg.Unipile.APIKey = ""
	cfg.Unipile.DSN = ""

	assert.NoError(t, cfg.Validate("migrate"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validConfig().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
