package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the backend configuration, loadable from environment
// variables (STOREKEEP_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:3000" usage:"listen address"`
	Store     StoreConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// StoreConfig selects the storage backend.
type StoreConfig struct {
	// Kind is "file" for the flat JSON database or "postgres".
	Kind        string `default:"file" usage:"storage backend: file or postgres"`
	DataFile    string `default:"db.json" usage:"database file path for the file backend" flag:"data-file"`
	DatabaseURL string `usage:"PostgreSQL connection URL for the postgres backend" flag:"database-url"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"max requests per window"`
	Window time.Duration `default:"1m" usage:"rate limit window duration"`
}

// CORSConfig controls cross-origin access for the storefront dev server.
type CORSConfig struct {
	Origins []string `default:"*" usage:"allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s" usage:"delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, then applies platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREKEEP",
		Files:     []string{"config.yaml", "/etc/storekeep/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	switch cfg.Store.Kind {
	case "file":
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, errors.New("database URL is required: set STOREKEEP_STORE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return nil, errors.Errorf("unknown store kind %q", cfg.Store.Kind)
	}

	return &cfg, nil
}

// applyPlatformDefaults maps environment variables that hosting platforms set
// under standard names (PORT, DATABASE_URL) to the prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Store.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Store.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:3000" {
		c.Addr = "0.0.0.0:" + port
	}
}
