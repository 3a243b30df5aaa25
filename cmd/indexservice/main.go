// Command indexservice runs the asynchronous indexing service: an HTTP
// surface for submitting index jobs, and a background monitor/worker pool
// that claims and processes them against the search backend.
package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/techresidents/indexsvc/internal/api"
	"github.com/techresidents/indexsvc/internal/config"
	"github.com/techresidents/indexsvc/internal/coordinator"
	"github.com/techresidents/indexsvc/internal/generator"
	"github.com/techresidents/indexsvc/internal/health"
	"github.com/techresidents/indexsvc/internal/indexer"
	"github.com/techresidents/indexsvc/internal/logger"
	"github.com/techresidents/indexsvc/internal/monitor"
	"github.com/techresidents/indexsvc/internal/pool"
	"github.com/techresidents/indexsvc/internal/queue"
	"github.com/techresidents/indexsvc/internal/searchclient"
	"github.com/techresidents/indexsvc/internal/worker"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	log := logger.New("indexservice")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.PostgresDSN)
	if err != nil {
		log.Error().Err(err).Msg("failed to open database")
		return err
	}
	defer func() { _ = db.Close() }()
	if _, err := db.ExecContext(ctx, queue.Schema); err != nil {
		log.Error().Err(err).Msg("failed to apply queue schema")
		return err
	}

	searchPool, err := searchclient.NewPool(cfg.ESPoolSize, cfg.ESEndpoint)
	if err != nil {
		log.Error().Err(err).Msg("failed to build search client pool")
		return err
	}

	generators := generator.DefaultRegistry(db)
	indexers := indexer.NewRegistry(generators, searchPool)

	coordinators, err := pool.New(cfg.IndexerPoolSize, func() (*coordinator.Coordinator, error) {
		return coordinator.New(db, indexers, cfg.RetryDelay(), log), nil
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to build coordinator pool")
		return err
	}

	q := queue.New(db, queue.Config{PollInterval: cfg.PollInterval(), BatchSize: cfg.IndexerPoolSize}, log)
	workers := worker.New(cfg.IndexerThreads, coordinators, log)
	mon := monitor.New(q, workers, log)
	mon.Start(ctx)

	healthClient, err := searchclient.New(cfg.ESEndpoint)
	if err != nil {
		log.Error().Err(err).Msg("failed to build search client for health checker")
		return err
	}
	startHealthCheckers(ctx, db, healthClient, log)

	router := api.NewRouter(api.NewHealthHandler(), api.NewIndexHandler(q, cfg.IndexerJobMaxRetryAttempts, log))
	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down indexservice")
		mon.Stop()
		if err := mon.Join(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("monitor did not shut down cleanly")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server forced to shutdown")
			return err
		}
		log.Info().Msg("indexservice exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("http server failed")
		return err
	}
}

func startHealthCheckers(ctx context.Context, db *sql.DB, searchClient *searchclient.Client, log zerolog.Logger) *health.ServiceHealthChecker {
	const interval = 15 * time.Second
	const probeTimeout = 3 * time.Second

	dbChecker := health.NewDBHealthChecker(db, log, probeTimeout)
	go dbChecker.Start(ctx, interval)

	searchChecker := health.NewSearchHealthChecker(searchClient, log, probeTimeout)
	go searchChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, dbChecker, searchChecker)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("http server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}
