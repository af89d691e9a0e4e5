package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quickfacts/internal/auth/jwt"
	"github.com/gokatarajesh/quickfacts/internal/config"
	"github.com/gokatarajesh/quickfacts/internal/content"
	"github.com/gokatarajesh/quickfacts/internal/logging"
	"github.com/gokatarajesh/quickfacts/internal/metrics"
	"github.com/gokatarajesh/quickfacts/internal/progress"
	"github.com/gokatarajesh/quickfacts/internal/selection"
	"github.com/gokatarajesh/quickfacts/internal/server"
)

// Application aggregates shared infrastructure (store clients, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
}

// New bootstraps the logger, content corpus, progress backend and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Str("progress_backend", cfg.Progress.Backend).Msg("starting application bootstrap")

	store, err := content.LoadEmbedded(logger)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}

	a := &Application{cfg: cfg, logger: logger}
	kv, locker, err := a.openProgressBackend(ctx)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	instruments := metrics.New(reg)

	progressSvc := progress.NewService(kv, logger, progress.ServiceOptions{
		Keys: progress.Keys{
			Progress:  cfg.Progress.ProgressPrefix,
			Results:   cfg.Progress.ResultsPrefix,
			Bookmarks: cfg.Progress.BookmarksPrefix,
		},
		Locker:  locker,
		Metrics: instruments,
	})
	selectionSvc := selection.NewService(store, logger, selection.ServiceOptions{
		Bookmarks:    progressSvc,
		Metrics:      instruments,
		DefaultCount: cfg.Challenge.DefaultSize,
	})

	deps := server.Dependencies{
		Content:   store,
		Selection: selectionSvc,
		Progress:  progressSvc,
		Gatherer:  reg,
	}
	if cfg.Security.JWTSecret != "" {
		deps.Tokens = jwt.NewManager(jwt.TokenConfig{
			Secret: []byte(cfg.Security.JWTSecret),
			Issuer: cfg.Name,
		})
	} else {
		logger.Warn().Msg("JWT secret not configured; user routes are unauthenticated")
	}

	a.http = server.NewHTTPServer(cfg, logger, deps)
	return a, nil
}

func (a *Application) openProgressBackend(ctx context.Context) (progress.KV, progress.Locker, error) {
	switch a.cfg.Progress.Backend {
	case config.BackendRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			DB:       a.cfg.Redis.DB,
			PoolSize: a.cfg.Redis.PoolSize,
		})
		return progress.NewRedisKV(a.redis), progress.NewRedisLocker(a.redis, a.cfg.Progress.LockTTL), nil
	case config.BackendPostgres:
		poolCfg, err := pgxpool.ParseConfig(a.cfg.Postgres.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("parse postgres config: %w", err)
		}
		if a.cfg.Postgres.MaxConns > 0 {
			poolCfg.MaxConns = int32(a.cfg.Postgres.MaxConns)
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pool = pool
		a.logger.Warn().Msg("postgres progress backend: per-user writes are serialized within this process only; run a single API replica")
		return progress.NewPostgresKV(pool), progress.NewKeyedMutex(), nil
	case config.BackendMemory:
		a.logger.Warn().Msg("memory progress backend: data is lost on restart")
		return progress.NewMemoryKV(), progress.NewKeyedMutex(), nil
	default:
		return nil, nil, fmt.Errorf("unknown progress backend %q", a.cfg.Progress.Backend)
	}
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		a.close()
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}
	a.close()

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}
}
