package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HieuTrannn/fibo-academic-api/internal/models"
	appErrors "github.com/HieuTrannn/fibo-academic-api/pkg/errors"
)

func TestUnitOfWorkMemoizesRepositories(t *testing.T) {
	uow, _, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	first := uow.Enrollments()
	second := uow.Enrollments()
	assert.Same(t, first, second)
}

func TestUnitOfWorkRejectsNestedTransactions(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	mock.ExpectBegin()
	require.NoError(t, uow.BeginTx(context.Background()))

	err := uow.BeginTx(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
}

func TestUnitOfWorkCommitWithoutTransaction(t *testing.T) {
	uow, _, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	err := uow.Commit()
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
}

func TestUnitOfWorkRollbackWithoutTransaction(t *testing.T) {
	uow, _, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	err := uow.Rollback()
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
}

func TestUnitOfWorkSaveChangesNothingPending(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	count, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWorkSaveChangesRollsBackOnStoreFailure(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	doc := &models.Document{ClassID: "cls-1", Name: "notes", Link: "https://storage/notes", Status: models.StatusActive, CreatedAt: time.Now()}
	_, err := uow.Documents().Insert(context.Background(), doc)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").
		WillReturnError(errors.New("duplicate key value violates unique constraint"))
	mock.ExpectRollback()

	_, err = uow.SaveChanges(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPersistence))

	// the failed batch is discarded, a second flush must not replay it
	count, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWorkExplicitTransactionFlow(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	mock.ExpectBegin()
	require.NoError(t, uow.BeginTx(context.Background()))
	assert.True(t, uow.InTransaction())

	doc := &models.Document{ClassID: "cls-1", Name: "plan", Link: "https://storage/plan", Status: models.StatusActive, CreatedAt: time.Now()}
	_, err := uow.Documents().Insert(context.Background(), doc)
	require.NoError(t, err)

	// flush joins the open transaction; commit is still the caller's call
	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	count, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, uow.InTransaction())

	mock.ExpectCommit()
	require.NoError(t, uow.Commit())
	assert.False(t, uow.InTransaction())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWorkRollbackDiscardsPending(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	mock.ExpectBegin()
	require.NoError(t, uow.BeginTx(context.Background()))

	doc := &models.Document{ClassID: "cls-1", Name: "draft", Link: "https://storage/draft", Status: models.StatusActive, CreatedAt: time.Now()}
	_, err := uow.Documents().Insert(context.Background(), doc)
	require.NoError(t, err)

	mock.ExpectRollback()
	require.NoError(t, uow.Rollback())

	count, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUnitOfWorkUseAfterClose(t *testing.T) {
	uow, _, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	require.NoError(t, uow.Close())

	_, err := uow.Semesters().GetByID(context.Background(), "sem-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUseAfterDispose))

	_, err = uow.SaveChanges(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUseAfterDispose))

	err = uow.BeginTx(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUseAfterDispose))
}

func TestUnitOfWorkCloseIsIdempotent(t *testing.T) {
	uow, _, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	require.NoError(t, uow.Close())
	require.NoError(t, uow.Close())
}

func TestPredicateComposition(t *testing.T) {
	expr, args := And(Eq("class_id", "cls-1"), nil, NotNull("group_id")).SQL()
	assert.Equal(t, "(class_id = ?) AND (group_id IS NOT NULL)", expr)
	assert.Equal(t, []interface{}{"cls-1"}, args)

	expr, args = (*Predicate)(nil).SQL()
	assert.Empty(t, expr)
	assert.Nil(t, args)

	expr, args = In("user_id", "u1", "u2").SQL()
	assert.Equal(t, "user_id IN (?, ?)", expr)
	assert.Len(t, args, 2)
}
