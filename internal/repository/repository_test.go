package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HieuTrannn/fibo-academic-api/internal/models"
	appErrors "github.com/HieuTrannn/fibo-academic-api/pkg/errors"
)

func newMockUnitOfWork(t *testing.T) (*sqlUnitOfWork, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sdb := sqlx.NewDb(db, "sqlmock")
	return newUnitOfWork(sdb), mock, func() { db.Close() }
}

func semesterRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "code", "term", "year", "status", "start_date", "end_date", "created_at"})
}

func TestRepositoryGetByID(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, term, year, status, start_date, end_date, created_at FROM semesters WHERE id = ?")).
		WithArgs("sem-1").
		WillReturnRows(semesterRows().AddRow("sem-1", "SP25", models.TermSpring, 2025, models.StatusActive, nil, nil, time.Now()))

	semester, err := uow.Semesters().GetByID(context.Background(), "sem-1")
	require.NoError(t, err)
	require.NotNil(t, semester)
	assert.Equal(t, "SP25", semester.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByIDMissingReturnsNil(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM semesters WHERE id =").
		WithArgs("nope").
		WillReturnRows(semesterRows())

	semester, err := uow.Semesters().GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, semester)
}

func TestRepositoryGetAllWithPredicate(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "class_id", "group_id", "user_id", "status", "role_in_class", "created_at"}).
		AddRow("enr-1", "cls-1", nil, "usr-1", models.EnrollmentStatusActive, models.ClassRoleStudent, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, class_id, group_id, user_id, status, role_in_class, created_at FROM class_enrollments WHERE (class_id = ?) AND (status = ?)")).
		WithArgs("cls-1", models.EnrollmentStatusActive).
		WillReturnRows(rows)

	enrollments, err := uow.Enrollments().GetAll(context.Background(),
		And(Eq("class_id", "cls-1"), Eq("status", models.EnrollmentStatusActive)))
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, "usr-1", enrollments[0].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryInsertStagesUntilFlush(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	semester := &models.Semester{Code: "SP25", Term: models.TermSpring, Year: 2025, Status: models.StatusActive, CreatedAt: time.Now()}
	inserted, err := uow.Semesters().Insert(context.Background(), semester)
	require.NoError(t, err)
	require.NotEmpty(t, inserted.ID)

	// read-your-writes before any flush: no SQL expected
	loaded, err := uow.Semesters().GetByID(context.Background(), inserted.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "SP25", loaded.Code)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO semesters (id, code, term, year, status, start_date, end_date, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")).
		WithArgs(inserted.ID, "SP25", models.TermSpring, 2025, models.StatusActive, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	count, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateOverwritesAllColumns(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	group := &models.Group{ID: "grp-1", ClassID: "cls-1", Name: "Alpha", Description: "first", Status: models.StatusActive, CreatedAt: time.Now()}
	require.NoError(t, uow.Groups().Update(context.Background(), group))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE groups SET class_id = ?, name = ?, description = ?, status = ?, created_at = ? WHERE id = ?")).
		WithArgs("cls-1", "Alpha", "first", models.StatusActive, sqlmock.AnyArg(), "grp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositorySoftStatusTransition(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM semesters WHERE id =").
		WithArgs("sem-1").
		WillReturnRows(semesterRows().AddRow("sem-1", "SP25", models.TermSpring, 2025, models.StatusPending, nil, nil, time.Now()))

	require.NoError(t, uow.Semesters().SoftStatusTransition(context.Background(), "sem-1"))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE semesters SET").
		WithArgs("SP25", models.TermSpring, 2025, models.StatusDisabled, nil, nil, sqlmock.AnyArg(), "sem-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositorySoftStatusTransitionMissingRow(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM semesters WHERE id =").
		WithArgs("ghost").
		WillReturnRows(semesterRows())

	err := uow.Semesters().SoftStatusTransition(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestRepositorySoftStatusTransitionWithoutStrategyIsRejected(t *testing.T) {
	// A descriptor with no Disable strategy must fail loudly, never fall back
	// to a destructive hard delete.
	uow, _, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	repo := newRepository(uow, Descriptor[models.Semester]{
		Table:   "semesters",
		Columns: semesterDescriptor.Columns,
		SetID:   semesterDescriptor.SetID,
	})

	err := repo.SoftStatusTransition(context.Background(), "sem-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
}

func TestRepositoryExists(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM class_enrollments WHERE (class_id = ?) AND (user_id = ?) LIMIT 1")).
		WithArgs("cls-1", "usr-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := uow.Enrollments().Exists(context.Background(), And(Eq("class_id", "cls-1"), Eq("user_id", "usr-1")))
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM class_enrollments").
		WithArgs("cls-1", "usr-2").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = uow.Enrollments().Exists(context.Background(), And(Eq("class_id", "cls-1"), Eq("user_id", "usr-2")))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepositoryCount(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM groups WHERE class_id = ?")).
		WithArgs("cls-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := uow.Groups().Count(context.Background(), Eq("class_id", "cls-1"))
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestRepositoryHardDelete(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	require.NoError(t, uow.Documents().HardDelete(context.Background(), "doc-1"))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE id = ?")).
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryList(t *testing.T) {
	uow, mock, cleanup := newMockUnitOfWork(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, class_id, name, link, status, created_at FROM documents WHERE class_id = ? ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("cls-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id", "name", "link", "status", "created_at"}).
			AddRow("doc-1", "cls-1", "syllabus", "https://storage/doc-1", models.StatusActive, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents WHERE class_id = ?")).
		WithArgs("cls-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	docs, total, err := uow.Documents().List(context.Background(), Eq("class_id", "cls-1"), 1, 20, "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
