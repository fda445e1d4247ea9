// Package memory is an in-process RepositoryManager used by tests and local
// runs without PostgreSQL. It keeps the same contracts as the postgres
// repositories, including unique email/username and owner-scoped deletes.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/dbx"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/entries"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store holds all data. Repositories handed out by Users and Entries share it
// regardless of the DBTX they are bound to.
type Store struct {
	mu      sync.RWMutex
	users   map[string]*models.User
	entries map[string]*models.Entry
	seq     int64
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]*models.User),
		entries: make(map[string]*models.Entry),
		now:     time.Now,
	}
}

func (s *Store) RunMigrations(context.Context, *sql.DB) error { return nil }

// InTx runs fn directly; each repository call is atomic on its own.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

func (s *Store) Users(dbx.DBTX) users.Repository { return (*userRepo)(s) }

func (s *Store) Entries(dbx.DBTX) entries.Repository { return (*entryRepo)(s) }

// UserCount is used by tests to check that failed signups left nothing behind.
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// stamp returns strictly increasing creation times so newest-first ordering
// is stable even for entries created within the same clock tick.
func (s *Store) stamp() time.Time {
	s.seq++
	return s.now().UTC().Add(time.Duration(s.seq) * time.Microsecond)
}

type userRepo Store

func (r *userRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email || u.UserName == user.UserName {
			return nil, common.ErrDuplicateUser
		}
	}

	stored := *user
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.stamp()
	s.users[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *userRepo) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email || u.UserName == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *userRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (r *userRepo) UpdateBudget(_ context.Context, id string, budget decimal.Decimal) (*models.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Budget = budget
	out := *u
	return &out, nil
}

type entryRepo Store

func (r *entryRepo) Create(_ context.Context, entry *models.Entry) (*models.Entry, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *entry
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.stamp()
	s.entries[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *entryRepo) ListByOwner(_ context.Context, kind models.Kind, ownerID string) ([]*models.Entry, error) {
	return r.list(func(e *models.Entry) bool {
		return e.OwnerID == ownerID && e.Kind == kind
	}), nil
}

func (r *entryRepo) ListByOwnerAndYear(_ context.Context, kind models.Kind, ownerID string, year int) ([]*models.Entry, error) {
	return r.list(func(e *models.Entry) bool {
		return e.OwnerID == ownerID && e.Kind == kind && e.Date.Year() == year
	}), nil
}

func (r *entryRepo) DeleteByOwner(_ context.Context, kind models.Kind, ownerID, id string) (*models.Entry, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.OwnerID != ownerID || e.Kind != kind {
		return nil, common.ErrorNotFound
	}
	delete(s.entries, id)
	out := *e
	return &out, nil
}

func (r *entryRepo) list(match func(*models.Entry) bool) []*models.Entry {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Entry, 0)
	for _, e := range s.entries {
		if match(e) {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
