package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HieuTrannn/fibo-academic-api/internal/models"
)

func newMockAccountRepository(t *testing.T) (*AccountRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAccountRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func accountRows(accounts ...models.Account) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "student_id", "role", "status"})
	for _, a := range accounts {
		rows.AddRow(a.ID, a.FirstName, a.LastName, a.Email, a.StudentID, a.Role, a.Status)
	}
	return rows
}

func TestAccountRepositoryFindByID(t *testing.T) {
	repo, mock := newMockAccountRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, first_name, last_name, email, student_id, role, status FROM accounts WHERE id = $1")).
		WithArgs("user-1").
		WillReturnRows(accountRows(models.Account{ID: "user-1", FirstName: "An", LastName: "Nguyen", Email: "an@fpt.edu.vn", StudentID: "SE1701", Role: models.RoleStudent, Status: models.StatusActive}))

	account, err := repo.FindByID(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, "An", account.FirstName)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryFindByIDMissing(t *testing.T) {
	repo, mock := newMockAccountRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, first_name, last_name, email, student_id, role, status FROM accounts WHERE id = $1")).
		WithArgs("ghost").
		WillReturnRows(accountRows())

	account, err := repo.FindByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, account, "missing account is not an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryFindByIDs(t *testing.T) {
	repo, mock := newMockAccountRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, first_name, last_name, email, student_id, role, status FROM accounts WHERE id IN ($1,$2)")).
		WithArgs("user-1", "user-2").
		WillReturnRows(accountRows(
			models.Account{ID: "user-1", FirstName: "An", Role: models.RoleStudent, Status: models.StatusActive},
		))

	found, err := repo.FindByIDs(context.Background(), []string{"user-1", "user-2"})
	require.NoError(t, err)
	require.Len(t, found, 1, "only resolved accounts come back")
	assert.Equal(t, "An", found["user-1"].FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryFindByIDsEmpty(t *testing.T) {
	repo, mock := newMockAccountRepository(t)

	found, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}
