// Package config provides application configuration management.
// Configuration is loaded from environment variables, optionally seeded
// from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL   string `env:"DATABASE_URL,required"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"false"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns    int32  `env:"DB_MIN_CONNS" envDefault:"2"`

	// Cache and sessions (Redis)
	RedisURL      string `env:"REDIS_URL,required"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Sessions and login redirects
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"336h"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"sessionid"`
	LoginURL          string        `env:"LOGIN_URL" envDefault:"/login"`
	AdminLoginURL     string        `env:"ADMIN_LOGIN_URL" envDefault:"/admin/login"`

	// Public note cache
	PublicNoteCacheTTL time.Duration `env:"PUBLIC_NOTE_CACHE_TTL" envDefault:"10m"`

	// Rate limiting of login and signup posts, per client IP
	RateLimitLoginEnabled   bool `env:"RATE_LIMIT_LOGIN_ENABLED" envDefault:"true"`
	RateLimitLoginPerMinute int  `env:"RATE_LIMIT_LOGIN_PER_MINUTE" envDefault:"10"`
	RateLimitLoginBurst     int  `env:"RATE_LIMIT_LOGIN_BURST" envDefault:"5"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// Note notifications. Webhook delivery is off when the URL is empty.
	NotifyWebhookURL    string `env:"NOTIFY_WEBHOOK_URL"`
	NotifyWebhookSecret string `env:"NOTIFY_WEBHOOK_SECRET"`
	NotifyQueueSize     int    `env:"NOTIFY_QUEUE_SIZE" envDefault:"100"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate checks settings that env tags cannot express.
func (c *Config) Validate() error {
	if c.NotifyWebhookURL != "" && c.NotifyWebhookSecret == "" {
		return errors.New("NOTIFY_WEBHOOK_SECRET is required when NOTIFY_WEBHOOK_URL is set")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RateLimitLoginEnabled && (c.RateLimitLoginPerMinute <= 0 || c.RateLimitLoginBurst <= 0) {
		return errors.New("RATE_LIMIT_LOGIN_PER_MINUTE and RATE_LIMIT_LOGIN_BURST must be positive")
	}
	return nil
}

// Load reads an optional .env file, parses environment variables and
// returns a validated Config. Variables already set in the environment win
// over the file.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
