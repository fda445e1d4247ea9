package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/dbx"
	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/dmitrijs2005/fintrack/internal/server/events"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// EntryInput is the body of an add-income or add-expense request. Amount is
// nil when the field was absent.
type EntryInput struct {
	Title       string
	Amount      *decimal.Decimal
	Category    string
	Description string
	Date        string
}

// LedgerService manages income and expense entries. Both kinds share the
// same rules and differ only in the collection they land in.
type LedgerService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	publisher   events.Publisher
	logger      logging.Logger
	now         func() time.Time
}

func NewLedgerService(db dbx.DBTX, m repomanager.RepositoryManager, publisher events.Publisher, logger logging.Logger) *LedgerService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &LedgerService{db: db, repomanager: m, publisher: publisher, logger: logger, now: time.Now}
}

// AddEntry validates in and stores it for ownerID. Every missing or invalid
// field is reported in a single *common.ValidationError.
func (s *LedgerService) AddEntry(ctx context.Context, kind models.Kind, ownerID string, in EntryInput) (*models.Entry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown entry kind %q", kind)
	}

	entry, err := validateEntry(kind, ownerID, in)
	if err != nil {
		return nil, err
	}

	created, err := s.repomanager.Entries(s.db).Create(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}

	s.publish(ctx, events.EntryCreated, created)
	return created, nil
}

func validateEntry(kind models.Kind, ownerID string, in EntryInput) (*models.Entry, error) {
	e := &models.Entry{
		OwnerID:     ownerID,
		Kind:        kind,
		Title:       strings.TrimSpace(in.Title),
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
	}

	v := &common.ValidationError{}
	v.Required("title", e.Title)
	switch {
	case in.Amount == nil:
		v.Add("amount", "amount is required")
	case !in.Amount.IsPositive():
		v.Add("amount", "amount must be greater than 0")
	default:
		checkMoney(v, "amount", *in.Amount)
		e.Amount = *in.Amount
	}
	v.Required("category", e.Category)
	v.Required("description", e.Description)

	date := strings.TrimSpace(in.Date)
	if date == "" {
		v.Add("date", "date is required")
	} else if d, err := models.ParseDate(date); err != nil {
		v.Add("date", "date must be a valid date (YYYY-MM-DD)")
	} else {
		e.Date = d
	}

	if err := v.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

// ListEntries returns the owner's entries of one kind, newest first. An owner
// with no entries gets an empty, non-nil slice.
func (s *LedgerService) ListEntries(ctx context.Context, kind models.Kind, ownerID string) ([]*models.Entry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown entry kind %q", kind)
	}
	list, err := s.repomanager.Entries(s.db).ListByOwner(ctx, kind, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Plural(), err)
	}
	return list, nil
}

// DeleteEntry removes one of the owner's entries and returns it. An entry
// that is missing, already deleted or owned by someone else is
// common.ErrorNotFound in all three cases.
func (s *LedgerService) DeleteEntry(ctx context.Context, kind models.Kind, ownerID, entryID string) (*models.Entry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown entry kind %q", kind)
	}
	if _, err := uuid.Parse(entryID); err != nil {
		return nil, common.NewValidationError("id", "id must be a valid identifier")
	}

	deleted, err := s.repomanager.Entries(s.db).DeleteByOwner(ctx, kind, ownerID, entryID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("delete %s: %w", kind, err)
	}

	s.publish(ctx, events.EntryDeleted, deleted)
	return deleted, nil
}

// Dashboard loads the budget and both ledgers concurrently and summarizes
// them, optionally restricted to one calendar year.
func (s *LedgerService) Dashboard(ctx context.Context, ownerID string, year *int) (*models.Dashboard, error) {
	var (
		user              *models.User
		incomes, expenses []*models.Entry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.repomanager.Users(s.db).FindByID(gctx, ownerID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrUserNotFound
			}
			return fmt.Errorf("find user: %w", err)
		}
		user = u
		return nil
	})
	g.Go(func() (err error) {
		incomes, err = s.ListEntries(gctx, models.KindIncome, ownerID)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.ListEntries(gctx, models.KindExpense, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if year != nil {
		incomes = FilterByYear(incomes, *year)
		expenses = FilterByYear(expenses, *year)
	}

	d := &models.Dashboard{
		Year:    year,
		Income:  Summarize(incomes),
		Expense: Summarize(expenses),
		Budget:  user.Budget,
	}
	d.Balance = d.Income.Total.Sub(d.Expense.Total)
	d.Remaining = d.Budget.Sub(d.Expense.Total)
	return d, nil
}

func (s *LedgerService) publish(ctx context.Context, t events.Type, e *models.Entry) {
	if err := s.publisher.Publish(ctx, events.NewEntryEvent(t, e, s.now())); err != nil {
		s.logger.Warn(ctx, "publish ledger event", "type", t, "entry", e.ID, "error", err)
	}
}
