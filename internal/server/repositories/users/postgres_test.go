package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var (
	insertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(name,\s*username,\s*email,\s*password_hash,\s*budget\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id,\s*created_at$`
	userCols    = []string{"id", "name", "username", "email", "password_hash", "budget", "created_at"}
	created     = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
)

func newUser() *models.User {
	return &models.User{Name: "Ann", UserName: "ann1", Email: "ann@x.com", PasswordHash: "hash", Budget: decimal.Zero}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("Ann", "ann1", "ann@x.com", "hash", decimal.Zero).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", created))

	got, err := repo.Create(context.Background(), newUser())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || !got.CreatedAt.Equal(created) || got.Email != "ann@x.com" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), newUser())
	if !errors.Is(err, common.ErrDuplicateUser) {
		t.Fatalf("want ErrDuplicateUser, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), newUser())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	if errors.Is(err, common.ErrDuplicateUser) {
		t.Fatalf("plain db error must not look like a duplicate")
	}
}

func TestExistsByEmailOrUsername(t *testing.T) {
	q := `(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s+OR\s+username\s*=\s*\$2\)$`

	for _, want := range []bool{true, false} {
		repo, mock, db := newRepoWithMock(t)

		mock.ExpectQuery(q).
			WithArgs("ann@x.com", "ann1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(want))

		got, err := repo.ExistsByEmailOrUsername(context.Background(), "ann@x.com", "ann1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("want %v, got %v", want, got)
		}
		db.Close()
	}
}

func TestExistsByEmailOrUsername_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).WillReturnError(errors.New("timeout"))

	if _, err := repo.ExistsByEmailOrUsername(context.Background(), "a", "b"); err == nil {
		t.Fatal("expected error")
	}
}

func TestFindByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*name,\s*username,\s*email,\s*password_hash,\s*budget,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`
	mock.ExpectQuery(q).
		WithArgs("ann@x.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-1", "Ann", "ann1", "ann@x.com", "hash", "5000.50", created))

	got, err := repo.FindByEmail(context.Background(), "ann@x.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if got.ID != "u-1" || got.UserName != "ann1" || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if !got.Budget.Equal(decimal.RequireFromString("5000.5")) {
		t.Fatalf("unexpected budget: %s", got.Budget)
	}
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+email`).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestFindByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-1", "Ann", "ann1", "ann@x.com", "hash", "0", created))

	got, err := repo.FindByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if !got.CreatedAt.Equal(created) || !got.Budget.IsZero() {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestFindByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users`).WillReturnError(errors.New("db err"))

	_, err := repo.FindByID(context.Background(), "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdateBudget(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+budget\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+id,`
	budget := decimal.NewFromInt(5000)
	mock.ExpectQuery(q).
		WithArgs("u-1", budget).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-1", "Ann", "ann1", "ann@x.com", "hash", "5000", created))

	got, err := repo.UpdateBudget(context.Background(), "u-1", budget)
	if err != nil {
		t.Fatalf("UpdateBudget error: %v", err)
	}
	if !got.Budget.Equal(budget) {
		t.Fatalf("want budget 5000, got %s", got.Budget)
	}
}

func TestUpdateBudget_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE\s+users`).WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateBudget(context.Background(), "u-404", decimal.NewFromInt(1))
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
