package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/dbx"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
)

const entryColumns = `id, user_id, kind, title, amount, category, description, date, created_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	query :=
		`INSERT INTO entries (user_id, kind, title, amount, category, description, date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		entry.OwnerID, string(entry.Kind), entry.Title, entry.Amount,
		entry.Category, entry.Description, entry.Date.Time,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entry, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, kind models.Kind, ownerID string) ([]*models.Entry, error) {
	query :=
		`SELECT ` + entryColumns + ` FROM entries
		 WHERE user_id = $1 AND kind = $2
		 ORDER BY created_at DESC, id DESC`

	return r.list(ctx, query, ownerID, string(kind))
}

func (r *PostgresRepository) ListByOwnerAndYear(ctx context.Context, kind models.Kind, ownerID string, year int) ([]*models.Entry, error) {
	query :=
		`SELECT ` + entryColumns + ` FROM entries
		 WHERE user_id = $1 AND kind = $2 AND EXTRACT(YEAR FROM date) = $3
		 ORDER BY created_at DESC, id DESC`

	return r.list(ctx, query, ownerID, string(kind), year)
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, kind models.Kind, ownerID, id string) (*models.Entry, error) {
	query :=
		`DELETE FROM entries
		 WHERE id = $1 AND user_id = $2 AND kind = $3
		 RETURNING ` + entryColumns

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id, ownerID, string(kind)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.Entry, error) {
	var (
		e    models.Entry
		kind string
		date time.Time
	)
	if err := s.Scan(&e.ID, &e.OwnerID, &kind, &e.Title, &e.Amount,
		&e.Category, &e.Description, &date, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Kind = models.Kind(kind)
	e.Date = models.DateOf(date)
	return &e, nil
}
