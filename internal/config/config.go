package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Unipile UnipileConfig `yaml:"unipile" mapstructure:"unipile"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Enrich  EnrichConfig  `yaml:"enrich" mapstructure:"enrich"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// UnipileConfig holds Unipile API credentials.
//
// DSN may be either a bare subdomain ("api6") or a full host with port
// ("api6.unipile.com:13443"); the client derives the base URL from it.
type UnipileConfig struct {
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// SearchConfig configures search pipeline behavior.
type SearchConfig struct {
	// MaxPages is the hard ceiling on pages per invocation; the effective
	// limit is min(request max_pages, MaxPages).
	MaxPages int `yaml:"max_pages" mapstructure:"max_pages"`
	// PageIntervalMillis is the pacing delay between successive pages.
	PageIntervalMillis int `yaml:"page_interval_millis" mapstructure:"page_interval_millis"`
	// LookupMatches is how many candidate IDs a named-filter lookup keeps.
	LookupMatches int `yaml:"lookup_matches" mapstructure:"lookup_matches"`
}

// CacheConfig configures the optional Redis cache for filter-ID lookups.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// EnrichConfig configures the fire-and-forget enrichment trigger.
type EnrichConfig struct {
	WebhookURL  string `yaml:"webhook_url" mapstructure:"webhook_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the HTTP server for serve mode.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("search.max_pages", 50)
	v.SetDefault("search.page_interval_millis", 200)
	v.SetDefault("search.lookup_matches", 3)
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("enrich.timeout_secs", 10)

	// Keys without a meaningful default still need to be registered so
	// that environment-only values survive Unmarshal.
	v.SetDefault("store.database_url", "")
	v.SetDefault("unipile.api_key", "")
	v.SetDefault("unipile.dsn", "")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("enrich.webhook_url", "")

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

// Validate checks that everything the given run mode needs is present.
// Modes match the command names: search, serve, accounts, migrate.
func (c *Config) Validate(mode string) error {
	var problems []string

	requireStore := func() {
		if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	}
	requireUnipile := func() {
		if c.Unipile.APIKey == "" {
			problems = append(problems, "unipile.api_key is required")
		}
		if c.Unipile.DSN == "" {
			problems = append(problems, "unipile.dsn is required")
		}
	}

	switch mode {
	case "search":
		requireUnipile()
		requireStore()
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		requireUnipile()
		requireStore()
	case "accounts":
		requireUnipile()
	case "migrate":
		requireStore()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
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
