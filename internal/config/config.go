package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/teamboard-dev/teamboard/internal/types"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"3000"`
	DBDriver    string `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret    string        `env:"JWT_SECRET,required"`
	JWTExpiresIn time.Duration `env:"JWT_EXPIRES_IN" envDefault:"720h"`
	BcryptCost   int           `env:"BCRYPT_COST" envDefault:"10"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	ClientURL      string   `env:"CLIENT_URL"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisChannel  string `env:"REDIS_CHANNEL" envDefault:"teamboard:events"`

	NotifyWebhookURL  string `env:"NOTIFY_WEBHOOK_URL"`
	NotifyWebhookKind string `env:"NOTIFY_WEBHOOK_KIND" envDefault:"discord"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	EventQueueSize int    `env:"EVENT_QUEUE_SIZE" envDefault:"256"`
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, cfg.validate()
}

// FromMap parses configuration from the given variables only.
func FromMap(vars map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for DB_DRIVER=%s", c.DBDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.EventQueueSize <= 0 {
		return fmt.Errorf("EVENT_QUEUE_SIZE must be positive")
	}
	return nil
}

// Origins lists the origins accepted for CORS and websocket upgrades: the
// development defaults, CLIENT_URL and ALLOWED_ORIGINS.
func (c *Config) Origins() []string {
	origins := slices.Clone(types.DefaultAllowedOrigins)

	if c.ClientURL != "" {
		origins = append(origins, strings.TrimSpace(c.ClientURL))
	}
	for _, origin := range c.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	slices.Sort(origins)
	return slices.Compact(origins)
}
