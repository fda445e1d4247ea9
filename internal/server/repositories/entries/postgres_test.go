package entries

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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

var (
	entryCols = []string{"id", "user_id", "kind", "title", "amount", "category", "description", "date", "created_at"}
	day       = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	createdAt = time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
)

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^INSERT\s+INTO\s+entries\s*\(user_id,\s*kind,\s*title,\s*amount,\s*category,\s*description,\s*date\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)\s*RETURNING\s+id,\s*created_at$`
	amount := decimal.NewFromInt(150)
	mock.ExpectQuery(q).
		WithArgs("u-1", "expense", "Coffee", amount, "Food", "morning coffee", day).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("e-1", createdAt))

	in := &models.Entry{
		OwnerID: "u-1", Kind: models.KindExpense, Title: "Coffee", Amount: amount,
		Category: "Food", Description: "morning coffee", Date: models.NewDate(2024, time.May, 1),
	}
	got, err := repo.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "e-1", got.ID)
	assert.Equal(t, createdAt, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+entries`).WillReturnError(errors.New("check constraint"))

	_, err := repo.Create(context.Background(), &models.Entry{Kind: models.KindIncome})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*check constraint`), err.Error())
}

func TestListByOwner_NewestFirst(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^SELECT\s+id,.*FROM\s+entries\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+kind\s*=\s*\$2\s+ORDER\s+BY\s+created_at\s+DESC,\s*id\s+DESC$`
	rows := sqlmock.NewRows(entryCols).
		AddRow("e-2", "u-1", "income", "Salary", "3000.75", "Job", "May salary", day, createdAt.Add(time.Hour)).
		AddRow("e-1", "u-1", "income", "Gift", "50", "Other", "birthday", day, createdAt)
	mock.ExpectQuery(q).WithArgs("u-1", "income").WillReturnRows(rows)

	got, err := repo.ListByOwner(context.Background(), models.KindIncome, "u-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e-2", got[0].ID)
	assert.Equal(t, models.KindIncome, got[0].Kind)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("3000.75")))
	assert.Equal(t, "2024-05-01", got[1].Date.String())
}

func TestListByOwner_EmptyIsNotNil(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+entries`).WithArgs("u-1", "expense").WillReturnRows(sqlmock.NewRows(entryCols))

	got, err := repo.ListByOwner(context.Background(), models.KindExpense, "u-1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListByOwner_Errors(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM\s+entries`).WillReturnError(errors.New("db down"))

		_, err := repo.ListByOwner(context.Background(), models.KindExpense, "u-1")
		assert.ErrorContains(t, err, "db error: db down")
	})

	t.Run("row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		rows := sqlmock.NewRows(entryCols).
			AddRow("e-1", "u-1", "expense", "Coffee", "150", "Food", "d", day, createdAt).
			RowError(0, errors.New("broken row"))
		mock.ExpectQuery(`FROM\s+entries`).WillReturnRows(rows)

		_, err := repo.ListByOwner(context.Background(), models.KindExpense, "u-1")
		assert.ErrorContains(t, err, "broken row")
	})

	t.Run("scan", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		rows := sqlmock.NewRows(entryCols).
			AddRow("e-1", "u-1", "expense", "Coffee", "not-a-number", "Food", "d", day, createdAt)
		mock.ExpectQuery(`FROM\s+entries`).WillReturnRows(rows)

		_, err := repo.ListByOwner(context.Background(), models.KindExpense, "u-1")
		assert.ErrorContains(t, err, "scan entry")
	})
}

func TestListByOwnerAndYear(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)WHERE\s+user_id\s*=\s*\$1\s+AND\s+kind\s*=\s*\$2\s+AND\s+EXTRACT\(YEAR\s+FROM\s+date\)\s*=\s*\$3`
	mock.ExpectQuery(q).
		WithArgs("u-1", "expense", 2024).
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow("e-1", "u-1", "expense", "Coffee", "150", "Food", "d", day, createdAt))

	got, err := repo.ListByOwnerAndYear(context.Background(), models.KindExpense, "u-1", 2024)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2024, got[0].Date.Year())
}

func TestDeleteByOwner_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^DELETE\s+FROM\s+entries\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2\s+AND\s+kind\s*=\s*\$3\s+RETURNING\s+id,`
	mock.ExpectQuery(q).
		WithArgs("e-1", "u-1", "expense").
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow("e-1", "u-1", "expense", "Coffee", "150", "Food", "d", day, createdAt))

	got, err := repo.DeleteByOwner(context.Background(), models.KindExpense, "u-1", "e-1")
	require.NoError(t, err)
	assert.Equal(t, "e-1", got.ID)
	assert.Equal(t, "Coffee", got.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByOwner_NoRowIsNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`DELETE\s+FROM\s+entries`).
		WithArgs("e-1", "intruder", "expense").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.DeleteByOwner(context.Background(), models.KindExpense, "intruder", "e-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDeleteByOwner_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`DELETE\s+FROM\s+entries`).WillReturnError(errors.New("lock timeout"))

	_, err := repo.DeleteByOwner(context.Background(), models.KindIncome, "u-1", "e-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
	assert.Contains(t, err.Error(), "db error")
}
