package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/dbx"
	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/dmitrijs2005/fintrack/internal/server/auth"
	"github.com/dmitrijs2005/fintrack/internal/server/config"
	"github.com/dmitrijs2005/fintrack/internal/server/events"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/entries"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/memory"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/users"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var errStore = errors.New("connection refused")

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost
	return cfg
}

func newAccounts(t *testing.T, store *memory.Store) (*AccountService, *auth.TokenManager) {
	t.Helper()
	cfg := testConfig()
	tokens := auth.NewTokenManager(cfg.SecretKey)
	return NewAccountService(nil, store, store, auth.NewHasher(cfg.BcryptCost), tokens, cfg), tokens
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// recordingPublisher keeps every event and optionally fails.
type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func discardLogger() logging.Logger {
	return logging.NewJSON(io.Discard, "debug")
}

// brokenManager hands out repositories that fail every call.
type brokenManager struct{ err error }

func (m brokenManager) RunMigrations(context.Context, *sql.DB) error { return m.err }
func (m brokenManager) Users(dbx.DBTX) users.Repository             { return brokenUsers(m) }
func (m brokenManager) Entries(dbx.DBTX) entries.Repository         { return brokenEntries(m) }

func (m brokenManager) InTx(ctx context.Context, fn func(context.Context, dbx.DBTX) error) error {
	return fn(ctx, nil)
}

type brokenUsers struct{ err error }

func (r brokenUsers) Create(context.Context, *models.User) (*models.User, error) { return nil, r.err }
func (r brokenUsers) ExistsByEmailOrUsername(context.Context, string, string) (bool, error) {
	return false, r.err
}
func (r brokenUsers) FindByEmail(context.Context, string) (*models.User, error) { return nil, r.err }
func (r brokenUsers) FindByID(context.Context, string) (*models.User, error)    { return nil, r.err }
func (r brokenUsers) UpdateBudget(context.Context, string, decimal.Decimal) (*models.User, error) {
	return nil, r.err
}

type brokenEntries struct{ err error }

func (r brokenEntries) Create(context.Context, *models.Entry) (*models.Entry, error) {
	return nil, r.err
}
func (r brokenEntries) ListByOwner(context.Context, models.Kind, string) ([]*models.Entry, error) {
	return nil, r.err
}
func (r brokenEntries) ListByOwnerAndYear(context.Context, models.Kind, string, int) ([]*models.Entry, error) {
	return nil, r.err
}
func (r brokenEntries) DeleteByOwner(context.Context, models.Kind, string, string) (*models.Entry, error) {
	return nil, r.err
}

// racingManager reports every email and username as free, so only the
// store's unique constraint can catch duplicates.
type racingManager struct{ *memory.Store }

func (m racingManager) Users(tx dbx.DBTX) users.Repository {
	return racingUsers{m.Store.Users(tx)}
}

type racingUsers struct{ users.Repository }

func (racingUsers) ExistsByEmailOrUsername(context.Context, string, string) (bool, error) {
	return false, nil
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
