// Package config reads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/barapp/sesh/pkg/seshttp"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full server configuration.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// DatabaseURL selects postgres. When empty the server keeps everything in memory.
	DatabaseURL         string `env:"DATABASE_URL"`
	DatabaseTablePrefix string `env:"DATABASE_TABLE_PREFIX" envDefault:""`

	Cookie CookieConfig

	// TrustProxyHeaders reads client addresses from X-Forwarded-For and X-Real-IP.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// PurgeInterval is how often expired sessions and mail verifications are deleted. Zero disables it.
	PurgeInterval time.Duration `env:"PURGE_INTERVAL" envDefault:"1h"`
}

// CookieConfig holds the session cookie settings.
type CookieConfig struct {
	Domain   string `env:"COOKIE_DOMAIN" envDefault:""`
	Path     string `env:"COOKIE_PATH" envDefault:"/"`
	Prefix   string `env:"COOKIE_PREFIX" envDefault:""`
	Secure   bool   `env:"COOKIE_SECURE" envDefault:"true"`
	HashKey  string `env:"COOKIE_HASH_KEY,required"`
	BlockKey string `env:"COOKIE_BLOCK_KEY" envDefault:""`
}

// Transport converts the settings into a cookie transport configuration.
func (c CookieConfig) Transport() seshttp.CookieConfig {
	cfg := seshttp.CookieConfig{
		Domain:  c.Domain,
		Path:    c.Path,
		Prefix:  c.Prefix,
		Secure:  c.Secure,
		HashKey: []byte(c.HashKey),
	}
	if c.BlockKey != "" {
		cfg.BlockKey = []byte(c.BlockKey)
	}
	return cfg
}

// Load reads the given dotenv files (".env" when none are given, ignoring a
// missing one), parses the environment and validates the result.
// Variables already set in the environment win over the files.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(files...); err != nil {
		return Config{}, fmt.Errorf("failed to load env files: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that the environment parser cannot.
func (c Config) Validate() error {
	if len(c.Cookie.HashKey) < seshttp.MinHashKeyLength {
		return fmt.Errorf("%w: COOKIE_HASH_KEY must be at least %d bytes", ErrInvalidConfig, seshttp.MinHashKeyLength)
	}

	switch len(c.Cookie.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("%w: COOKIE_BLOCK_KEY must be 16, 24 or 32 bytes", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("%w: LOG_FORMAT must be json or console, got %q", ErrInvalidConfig, c.LogFormat)
	}

	if c.PurgeInterval < 0 {
		return fmt.Errorf("%w: PURGE_INTERVAL must not be negative", ErrInvalidConfig)
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("%w: LISTEN_ADDR must not be empty", ErrInvalidConfig)
	}

	return nil
}
