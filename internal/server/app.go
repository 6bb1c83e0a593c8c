// Package server wires the auth server together: PostgreSQL storage and
// migrations, the auth service, the gRPC endpoint and the Prometheus
// metrics endpoint.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/gridconsole/internal/logging"
	"github.com/dmitrijs2005/gridconsole/internal/server/config"
	"github.com/dmitrijs2005/gridconsole/internal/server/metrics"
	"github.com/dmitrijs2005/gridconsole/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gridconsole/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/gridconsole/internal/server/grpc"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	metrics     *metrics.Metrics
	clock       clock.Clock
	authService *services.AuthService
}

// NewApp connects to the database, applies migrations and creates the
// bootstrap admin when one is configured.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	app := newApp(c, logger, db, rm)

	if err := app.authService.EnsureAdmin(ctx, c.AdminUsername, c.AdminPassword); err != nil {
		db.Close()
		return nil, fmt.Errorf("admin bootstrap error: %w", err)
	}

	return app, nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) *App {
	m := metrics.New()
	clk := clock.New()
	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		metrics:     m,
		clock:       clk,
		authService: services.NewAuthService(db, rm, c, clk, logger, m),
	}
}

// Run serves gRPC and metrics until ctx is cancelled or either server fails.
func (app *App) Run(ctx context.Context) error {

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService, app.config.SecretKey,
			app.clock, app.metrics.UnaryServerInterceptor)
		return s.Run(ctx)
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", app.config.EndpointAddrMetrics)
		if err != nil {
			return err
		}
		return app.serveMetrics(ctx, lis)
	})

	return g.Wait()
}

func (app *App) serveMetrics(ctx context.Context, lis net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.metrics.Handler())

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping metrics server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (app *App) Close() error {
	return app.db.Close()
}
