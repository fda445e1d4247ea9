package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/client/api"
	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/shopspring/decimal"
)

// LedgerService parses what the user typed and calls the API.
type LedgerService struct {
	api *api.Client
	now func() time.Time
}

func NewLedgerService(c *api.Client) *LedgerService {
	return &LedgerService{api: c, now: time.Now}
}

// EntryForm is raw user input for a new entry. An empty date means today.
type EntryForm struct {
	Title       string
	Amount      string
	Category    string
	Description string
	Date        string
}

// ParseKind accepts "income", "incomes", "expense" or "expenses".
func ParseKind(s string) (string, error) {
	k := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	if k != "income" && k != "expense" {
		return "", fmt.Errorf("unknown kind %q, want income or expense", s)
	}
	return k, nil
}

// ParseYear reads an optional year argument.
func ParseYear(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 1 || y > 9999 {
		return nil, common.NewValidationError("year", "year must be a four digit number")
	}
	return &y, nil
}

// ParseAmount accepts "12", "12.50" or "12,50".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Zero, common.NewValidationError("amount", "amount must be a number")
	}
	return d, nil
}

func (s *LedgerService) Add(ctx context.Context, kind string, f EntryForm) (*api.Entry, error) {
	amount, err := ParseAmount(f.Amount)
	if err != nil {
		return nil, err
	}
	date := strings.TrimSpace(f.Date)
	if date == "" {
		date = s.now().Format("2006-01-02")
	}
	return s.api.AddEntry(ctx, kind, api.EntryRequest{
		Title:       f.Title,
		Amount:      amount,
		Category:    f.Category,
		Description: f.Description,
		Date:        date,
	})
}

func (s *LedgerService) List(ctx context.Context, kind string) ([]api.Entry, error) {
	return s.api.ListEntries(ctx, kind)
}

func (s *LedgerService) Delete(ctx context.Context, kind, id string) (*api.Entry, error) {
	return s.api.DeleteEntry(ctx, kind, strings.TrimSpace(id))
}

func (s *LedgerService) SetBudget(ctx context.Context, raw string) (*api.User, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, common.NewValidationError("budget", "budget must be a number")
	}
	return s.api.SetBudget(ctx, amount)
}

func (s *LedgerService) Budget(ctx context.Context) (decimal.Decimal, error) {
	return s.api.GetBudget(ctx)
}

func (s *LedgerService) Profile(ctx context.Context) (*api.User, error) {
	return s.api.Profile(ctx)
}

func (s *LedgerService) Summary(ctx context.Context, year *int) (*api.Dashboard, error) {
	return s.api.Summary(ctx, year)
}

func (s *LedgerService) Export(ctx context.Context, kind string, year *int) (*api.ExportLink, error) {
	return s.api.Export(ctx, kind, year)
}
