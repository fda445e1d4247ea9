package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/client/api"
	"github.com/dmitrijs2005/fintrack/internal/client/config"
	"github.com/dmitrijs2005/fintrack/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/fintrack/internal/client/services"
)

type App struct {
	config  *config.Config
	db      *sql.DB
	api     *api.Client
	session *services.SessionService
	ledger  *services.LedgerService
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := services.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	client := api.New(c.ServerURL, c.RequestTimeout)
	return &App{
		config:  c,
		db:      db,
		api:     client,
		session: services.NewSessionService(client, metadata.NewSQLiteRepository(db)),
		ledger:  services.NewLedgerService(client),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.session.LoggedIn()
}

func (a *App) getStatus() string {
	if name := a.session.UserName(); name != "" {
		return "(" + name + ")"
	}
	return ""
}

// Run restores the saved session and starts the shell.
func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()

	if err := a.session.Restore(ctx); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Welcome to finctl, connected to %s (type 'help' for commands)\n", a.config.ServerURL)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := a.api.Ping(pingCtx); err != nil {
		fmt.Fprintf(a.out, "Warning: %v\n", err)
	}
	cancel()

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
	return nil
}
