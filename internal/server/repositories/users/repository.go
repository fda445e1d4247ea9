// Package users stores accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/shopspring/decimal"
)

// Repository persists users. Lookups return common.ErrorNotFound when no row
// matches; Create returns common.ErrDuplicateUser when the email or username
// is already taken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateBudget(ctx context.Context, id string, budget decimal.Decimal) (*models.User, error)
}
