package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "dealboard.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "static", cfg.Deals.Source)
	assert.InDelta(t, 7.5, cfg.Scoring.MarketCapRateDefault, 0.001)
	assert.InDelta(t, 0.15, cfg.Scoring.CapRateCeiling, 0.001)
	assert.InDelta(t, 0.07, cfg.Scoring.DefaultCapRate, 0.001)
	assert.False(t, cfg.Scoring.DataQualityBonus)
	assert.Equal(t, "template", cfg.Analyst.Provider)
	assert.Equal(t, 10, cfg.Analyst.CacheTTLMins)
	assert.Equal(t, 4, cfg.Analyst.MaxConcurrency)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Groq.BaseURL)
	assert.NotEmpty(t, cfg.Groq.Models)
	assert.Equal(t, "0 */10 * * * *", cfg.Refresh.Cron)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/deals
log:
  level: debug
  format: console
server:
  port: 9090
scoring:
  data_quality_bonus: true
analyst:
  provider: groq
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/deals", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Scoring.DataQualityBonus)
	assert.Equal(t, "groq", cfg.Analyst.Provider)
	// Defaults still apply for unset values
	assert.InDelta(t, 7.5, cfg.Scoring.MarketCapRateDefault, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("DEALBOARD_STORE_DRIVER", "postgres")
	t.Setenv("DEALBOARD_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("DEALBOARD_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
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

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "dealboard.db"
	cfg.Deals.Source = "static"
	cfg.Scoring = DefaultScoringConfig()
	cfg.Analyst.Provider = "template"
	return cfg
}

func TestValidateServe_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidate_AnthropicNeedsKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Analyst.Provider = "anthropic"

	err := cfg.Validate("rank")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")

	cfg.Anthropic.Key = "sk-ant-key"
	assert.NoError(t, cfg.Validate("rank"))
}

func TestValidate_GroqNeedsKeyAndModels(t *testing.T) {
	cfg := validDefaults()
	cfg.Analyst.Provider = "groq"

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "groq.key is required")
	assert.Contains(t, err.Error(), "groq.models")
}

func TestValidate_ProviderIgnoredForScore(t *testing.T) {
	cfg := validDefaults()
	cfg.Analyst.Provider = "anthropic"

	assert.NoError(t, cfg.Validate("score"))
}

func TestValidate_HTTPSourceNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Deals.Source = "http"

	err := cfg.Validate("score")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deals.url is required")
}

func TestValidate_UnknownDriverAndSource(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Deals.Source = "ftp"

	err := cfg.Validate("score")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "deals.source")
}

func TestValidateScoring(t *testing.T) {
	assert.NoError(t, ValidateScoring(DefaultScoringConfig()))

	err := ValidateScoring(ScoringConfig{CapRateCeiling: 0, MarketCapRateDefault: -1, DefaultCapRate: -0.1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market_cap_rate_default")
	assert.Contains(t, err.Error(), "cap_rate_ceiling")
	assert.Contains(t, err.Error(), "default_cap_rate")
}
