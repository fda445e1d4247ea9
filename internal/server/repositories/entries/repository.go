// Package entries stores income and expense records in one table keyed by
// kind.
package entries

import (
	"context"

	"github.com/dmitrijs2005/fintrack/internal/server/models"
)

// Repository persists ledger entries. Every read and delete is scoped to an
// owner and a kind. Lists come back newest first.
type Repository interface {
	Create(ctx context.Context, entry *models.Entry) (*models.Entry, error)
	ListByOwner(ctx context.Context, kind models.Kind, ownerID string) ([]*models.Entry, error)
	ListByOwnerAndYear(ctx context.Context, kind models.Kind, ownerID string, year int) ([]*models.Entry, error)
	// DeleteByOwner removes the entry only when id, owner and kind all match
	// and returns common.ErrorNotFound otherwise.
	DeleteByOwner(ctx context.Context, kind models.Kind, ownerID, id string) (*models.Entry, error)
}
