package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/fintrack/internal/dbx"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/entries"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a pool or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Entries(db dbx.DBTX) entries.Repository
}
