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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// APIConfig holds settings for the assessment backend REST API.
type APIConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Token       string  `yaml:"token" mapstructure:"token"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// FetchConfig configures how assessments are loaded per firm.
type FetchConfig struct {
	MaxConcurrentFirms int `yaml:"max_concurrent_firms" mapstructure:"max_concurrent_firms"`
	YearFrom           int `yaml:"year_from" mapstructure:"year_from"`
	YearTo             int `yaml:"year_to" mapstructure:"year_to"`
}

// ScoringConfig configures score extraction.
type ScoringConfig struct {
	// FallbackMaxScore is the denominator used when a totals-shaped score
	// omits max_score. Historically 300; not guaranteed for every template.
	FallbackMaxScore          float64  `yaml:"fallback_max_score" mapstructure:"fallback_max_score" json:"fallback_max_score"`
	Categories                []string `yaml:"categories" mapstructure:"categories" json:"categories"`
	PreferResponsesForOverall bool     `yaml:"prefer_responses_for_overall" mapstructure:"prefer_responses_for_overall" json:"prefer_responses_for_overall"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("ESG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "esg.db")
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("fetch.max_concurrent_firms", 8)
	v.SetDefault("scoring.fallback_max_score", 300.0)
	v.SetDefault("scoring.categories", []string{"Environment", "Social", "Governance"})
	v.SetDefault("scoring.prefer_responses_for_overall", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the settings a command needs. Scopes: "store", "api",
// "server", "file".
func (c *Config) Validate(scopes ...string) error {
	var errs []string

	if c.Scoring.FallbackMaxScore <= 0 {
		errs = append(errs, "scoring.fallback_max_score must be > 0")
	}

	for _, scope := range scopes {
		switch scope {
		case "store":
			switch c.Store.Driver {
			case "sqlite", "postgres":
			default:
				errs = append(errs, "store.driver must be sqlite or postgres")
			}
			if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
				errs = append(errs, "store.database_url is required for postgres (ESG_STORE_DATABASE_URL)")
			}
		case "api":
			if c.API.BaseURL == "" {
				errs = append(errs, "api.base_url is required (ESG_API_BASE_URL)")
			}
			if c.API.RateLimit <= 0 {
				errs = append(errs, "api.rate_limit must be > 0")
			}
		case "server":
			if c.Server.Port <= 0 || c.Server.Port > 65535 {
				errs = append(errs, "server.port must be between 1 and 65535")
			}
		case "file":
		default:
			errs = append(errs, fmt.Sprintf("unknown scope %q", scope))
		}
	}

	if c.Fetch.MaxConcurrentFirms < 1 || c.Fetch.MaxConcurrentFirms > 64 {
		errs = append(errs, "fetch.max_concurrent_firms must be between 1 and 64")
	}

	if c.Fetch.YearFrom > 0 && c.Fetch.YearTo > 0 && c.Fetch.YearTo < c.Fetch.YearFrom {
		errs = append(errs, "fetch.year_to must be >= fetch.year_from")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
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
