// Package server wires the fintrack server together: storage, services, the
// HTTP API and the gRPC health endpoint, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/fintrack/internal/dbx"
	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/dmitrijs2005/fintrack/internal/server/auth"
	"github.com/dmitrijs2005/fintrack/internal/server/config"
	"github.com/dmitrijs2005/fintrack/internal/server/events"
	"github.com/dmitrijs2005/fintrack/internal/server/httpapi"
	"github.com/dmitrijs2005/fintrack/internal/server/ratelimit"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/fintrack/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/fintrack/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler *httpapi.Server
	health  *gs.GRPCServer
	closers []io.Closer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)
	app := &App{config: c, logger: logger}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db
	app.closers = append(app.closers, db)

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		app.Close()
		return nil, err
	}

	publisher, err := app.newPublisher()
	if err != nil {
		app.Close()
		return nil, err
	}

	limiter, err := app.newLimiter(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	tokens := auth.NewTokenManager(c.SecretKey)
	router := httpapi.NewRouter(httpapi.Deps{
		Accounts: services.NewAccountService(db, dbx.NewTxRunner(db), m, auth.NewHasher(c.BcryptCost), tokens, c),
		Ledger:   services.NewLedgerService(db, m, publisher, logger.With("module", "ledger")),
		Exporter: services.NewExportService(db, m, c),
		Tokens:   tokens,
		Limiter:  limiter,
		Logger:   logger,
	})

	app.handler = httpapi.NewServer(c.HTTPAddr, router, logger)
	app.health = gs.NewGRPCServer(c.HealthAddrGRPC, logger, db)
	return app, nil
}

func (app *App) newPublisher() (events.Publisher, error) {
	if app.config.AMQPURL == "" {
		return events.Nop{}, nil
	}
	p, err := events.NewAMQPPublisher(app.config.AMQPURL, app.config.AMQPExchange, app.config.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("amqp init error: %w", err)
	}
	app.closers = append(app.closers, p)
	return p, nil
}

func (app *App) newLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	c := app.config
	if c.RedisAddr == "" {
		return ratelimit.Unlimited{}, nil
	}
	rdb, err := ratelimit.NewRedisClient(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	app.closers = append(app.closers, rdb)
	return ratelimit.NewRedisLimiter(rdb, c.AuthRateLimit, c.AuthRateWindow), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP and gRPC health until a signal arrives or either server
// fails, then releases every connection.
func (app *App) Run(ctx context.Context) error {
	defer app.Close()

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.handler.Run(gctx) })
	g.Go(func() error { return app.health.Run(gctx) })

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) Close() {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	if err := errors.Join(errs...); err != nil {
		app.logger.Warn(context.Background(), "close resources", "error", err)
	}
}
