package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/course-search/internal/adapter/postgres"
	"github.com/heartmarshall/course-search/internal/adapter/postgres/course"
	"github.com/heartmarshall/course-search/internal/app/loader"
	"github.com/heartmarshall/course-search/internal/config"
	"github.com/heartmarshall/course-search/internal/metrics"
	"github.com/heartmarshall/course-search/internal/service/search"
	"github.com/heartmarshall/course-search/internal/transport/middleware"
	"github.com/heartmarshall/course-search/internal/transport/rest"
)

const rateLimitCleanup = 5 * time.Minute

// Deps holds the long-lived components shared by every command.
type Deps struct {
	Pool     *pgxpool.Pool
	Courses  *course.Repo
	Migrator *postgres.Migrator
	Search   *search.Service
	Loader   *loader.Loader
	Metrics  *metrics.Metrics
}

// NewDeps connects to PostgreSQL and wires repositories and services.
// Call Close when done.
func NewDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Deps, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	courses := course.New(pool, cfg.Search.FuzzyThreshold)
	m := metrics.New()

	svc := search.NewService(logger, courses, cfg.Search)
	svc.SetObserver(m)

	return &Deps{
		Pool:     pool,
		Courses:  courses,
		Migrator: postgres.NewMigrator(pool, logger),
		Search:   svc,
		Loader:   loader.New(logger, courses, postgres.NewTxManager(pool), cfg.Loader),
		Metrics:  m,
	}, nil
}

// Close releases the connection pool.
func (d *Deps) Close() {
	d.Pool.Close()
}

// RefreshIndexedCourses updates the indexed courses gauge from the table.
func (d *Deps) RefreshIndexedCourses(ctx context.Context) error {
	_, err := d.Count(ctx)
	return err
}

// Count returns the number of courses in the catalog and updates the
// indexed courses gauge with it.
func (d *Deps) Count(ctx context.Context) (int64, error) {
	n, err := d.Courses.Count(ctx)
	if err != nil {
		return 0, err
	}
	d.Metrics.SetIndexedCourses(n)
	return n, nil
}

// Run is the application entry point for the HTTP server. It connects to
// the database, applies migrations and loads the seed catalog when
// configured, then serves until ctx is canceled and shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("text_policy", cfg.Search.TextPolicy),
	)

	deps, err := NewDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	if cfg.Database.AutoMigrate {
		if err := deps.Migrator.Up(ctx); err != nil {
			return err
		}
	}

	if cfg.Loader.LoadOnStart {
		if _, err := deps.Loader.Load(ctx); err != nil {
			return fmt.Errorf("load on start: %w", err)
		}
	}
	if err := deps.RefreshIndexedCourses(ctx); err != nil {
		logger.Warn("count indexed courses", slog.String("error", err.Error()))
	}

	limiter := middleware.NewRateLimiter(rateLimitCleanup)
	defer limiter.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      NewHTTPHandler(cfg, logger, deps, limiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// NewHTTPHandler assembles the router and middleware stack.
// Outer chain: recovery, request id, client ip, access log, CORS, rate limit.
// Per-route metrics run inside the router so the route template is known.
func NewHTTPHandler(cfg *config.Config, logger *slog.Logger, deps *Deps, limiter *middleware.RateLimiter) http.Handler {
	routes := rest.Routes{
		Search: rest.NewSearchHandler(deps.Search, logger, cfg.Search.MaxPageSize),
		Health: rest.NewHealthHandler(deps.Pool, deps, Version),
	}
	if cfg.Metrics.Enabled {
		routes.Metrics = deps.Metrics.Handler()
		routes.MetricsPath = cfg.Metrics.Path
		routes.Middleware = []mux.MiddlewareFunc{mux.MiddlewareFunc(middleware.Metrics(deps.Metrics))}
	}

	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.ClientIP(cfg.Server.TrustProxy),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
		limiter.Limit(cfg.Server.RateLimitPerMin),
	)

	return chain(rest.NewRouter(routes))
}
