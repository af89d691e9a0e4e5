package config

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
)

// Progress store backends.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quickfacts"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres  Postgres
	Redis     Redis
	Security  Security
	Progress  Progress
	Challenge Challenge
}

// Postgres captures connection info for the SQL database. Only read when
// PROGRESS_BACKEND=postgres.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER" envDefault:""`
	Password string `env:"PG_PASSWORD" envDefault:""`
	Database string `env:"PG_DATABASE" envDefault:""`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// DSN renders a postgres:// URL. Credentials are percent-encoded; pool
// sizing is applied by the caller.
func (p Postgres) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.Database,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	return u.String()
}

// Redis holds the progress store and lock configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing and auth. An empty JWTSecret leaves
// user routes unauthenticated.
type Security struct {
	JWTSecret string `env:"JWT_SECRET" envDefault:""`
}

// Progress configures the per-user store.
type Progress struct {
	Backend         string        `env:"PROGRESS_BACKEND" envDefault:"redis"`
	ProgressPrefix  string        `env:"PROGRESS_KEY_PREFIX" envDefault:"@quickfacts_progress"`
	ResultsPrefix   string        `env:"RESULTS_KEY_PREFIX" envDefault:"@quickfacts_challenge_results"`
	BookmarksPrefix string        `env:"BOOKMARKS_KEY_PREFIX" envDefault:"@quickfacts_bookmarks"`
	LockTTL         time.Duration `env:"PROGRESS_LOCK_TTL" envDefault:"5s"`
}

// Challenge groups generation defaults.
type Challenge struct {
	DefaultSize int `env:"DEFAULT_CHALLENGE_SIZE" envDefault:"10"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *App) validate() error {
	switch c.Progress.Backend {
	case BackendRedis, BackendMemory:
	case BackendPostgres:
		if c.Postgres.User == "" || c.Postgres.Database == "" {
			return fmt.Errorf("PG_USER and PG_DATABASE must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown PROGRESS_BACKEND %q", c.Progress.Backend)
	}
	if c.Challenge.DefaultSize <= 0 {
		return fmt.Errorf("DEFAULT_CHALLENGE_SIZE must be positive")
	}
	return nil
}
