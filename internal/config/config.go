package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Deals     DealsConfig     `yaml:"deals" mapstructure:"deals"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Analyst   AnalystConfig   `yaml:"analyst" mapstructure:"analyst"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Groq      GroqConfig      `yaml:"groq" mapstructure:"groq"`
	Refresh   RefreshConfig   `yaml:"refresh" mapstructure:"refresh"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// DealsConfig selects where the raw deal collection is read from.
type DealsConfig struct {
	Source      string  `yaml:"source" mapstructure:"source"` // static, store, http
	URL         string  `yaml:"url" mapstructure:"url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ScoringConfig holds the constants shared by enrichment and both scores.
type ScoringConfig struct {
	// MarketCapRateDefault is a percentage (7.5 = 7.5%).
	MarketCapRateDefault float64 `yaml:"market_cap_rate_default" mapstructure:"market_cap_rate_default"`
	// CapRateCeiling is a fraction; cap rates at or above it normalize to 1.
	CapRateCeiling float64 `yaml:"cap_rate_ceiling" mapstructure:"cap_rate_ceiling"`
	// DefaultCapRate is a fraction used when nothing else resolves a cap rate.
	DefaultCapRate   float64 `yaml:"default_cap_rate" mapstructure:"default_cap_rate"`
	DataQualityBonus bool    `yaml:"data_quality_bonus" mapstructure:"data_quality_bonus"`
}

// AnalystConfig configures the text-generation collaborator.
type AnalystConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // template, anthropic, groq
	CacheTTLMins      int     `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	MaxConcurrency    int     `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// GroqConfig holds settings for the OpenAI-compatible Groq endpoint.
type GroqConfig struct {
	Key     string   `yaml:"key" mapstructure:"key"`
	BaseURL string   `yaml:"base_url" mapstructure:"base_url"`
	Models  []string `yaml:"models" mapstructure:"models"`
}

// RefreshConfig configures the background refresh schedule used by serve.
type RefreshConfig struct {
	Cron string `yaml:"cron" mapstructure:"cron"`
}

// DefaultScoringConfig returns the scoring constants used when no config is loaded.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		MarketCapRateDefault: 7.5,
		CapRateCeiling:       0.15,
		DefaultCapRate:       0.07,
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DEALBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "dealboard.db")
	v.SetDefault("deals.source", "static")
	v.SetDefault("deals.timeout_secs", 15)
	v.SetDefault("deals.rate_limit", 2.0)
	v.SetDefault("scoring.market_cap_rate_default", 7.5)
	v.SetDefault("scoring.cap_rate_ceiling", 0.15)
	v.SetDefault("scoring.default_cap_rate", 0.07)
	v.SetDefault("scoring.data_quality_bonus", false)
	v.SetDefault("analyst.provider", "template")
	v.SetDefault("analyst.cache_ttl_mins", 10)
	v.SetDefault("analyst.max_concurrency", 4)
	v.SetDefault("analyst.requests_per_second", 5.0)
	v.SetDefault("analyst.max_retries", 3)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.models", []string{
		"llama-3.3-70b-versatile",
		"deepseek-r1-distill-llama-70b",
		"llama-3.1-8b-instant",
		"qwen/qwen3-32b",
	})
	v.SetDefault("refresh.cron", "0 */10 * * * *")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs before it starts work.
// Mode is the command name: "serve", "rank", "seed", or "score".
func (c *Config) Validate(mode string) error {
	var errs []string

	if err := ValidateScoring(c.Scoring); err != nil {
		errs = append(errs, err.Error())
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres (got %q)", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" && (mode == "serve" || mode == "seed" || c.Deals.Source == "store") {
		errs = append(errs, "store.database_url is required")
	}

	switch c.Deals.Source {
	case "static", "store":
	case "http":
		if c.Deals.URL == "" {
			errs = append(errs, "deals.url is required when deals.source is http")
		}
	default:
		errs = append(errs, fmt.Sprintf("deals.source must be static, store or http (got %q)", c.Deals.Source))
	}

	if mode == "serve" || mode == "rank" {
		switch c.Analyst.Provider {
		case "template":
		case "anthropic":
			if c.Anthropic.Key == "" {
				errs = append(errs, "anthropic.key is required for the anthropic analyst")
			}
		case "groq":
			if c.Groq.Key == "" {
				errs = append(errs, "groq.key is required for the groq analyst")
			}
			if len(c.Groq.Models) == 0 {
				errs = append(errs, "groq.models must list at least one model")
			}
		default:
			errs = append(errs, fmt.Sprintf("analyst.provider must be template, anthropic or groq (got %q)", c.Analyst.Provider))
		}
	}

	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port must be between 1 and 65535 (got %d)", c.Server.Port))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateScoring checks that scoring constants are usable as divisors.
func ValidateScoring(s ScoringConfig) error {
	var errs []string
	if s.MarketCapRateDefault <= 0 {
		errs = append(errs, "scoring.market_cap_rate_default must be > 0")
	}
	if s.CapRateCeiling <= 0 {
		errs = append(errs, "scoring.cap_rate_ceiling must be > 0")
	}
	if s.DefaultCapRate < 0 {
		errs = append(errs, "scoring.default_cap_rate must be >= 0")
	}
	if len(errs) > 0 {
		return eris.Errorf("config: invalid scoring: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
