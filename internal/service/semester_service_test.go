package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HieuTrannn/fibo-academic-api/internal/models"
	appErrors "github.com/HieuTrannn/fibo-academic-api/pkg/errors"
)

func semesterFixture() (*fakeUnitOfWork, *SemesterService) {
	uow := newFakeUnitOfWork()
	svc := NewSemesterService(&fakeFactory{uow: uow}, nil, nil)
	return uow, svc
}

func TestSemesterServiceCreate(t *testing.T) {
	uow, svc := semesterFixture()

	semester, err := svc.Create(context.Background(), CreateSemesterRequest{Code: "2025.1", Term: models.TermSpring, Year: 2025})
	require.NoError(t, err)
	assert.NotEmpty(t, semester.ID)
	assert.Equal(t, models.StatusActive, semester.Status)
	assert.Equal(t, 1, uow.flushed)
}

func TestSemesterServiceCreateDuplicateCode(t *testing.T) {
	uow, svc := semesterFixture()
	uow.semesters.seed(models.Semester{ID: "sem-1", Code: "2025.1", Term: models.TermSpring, Year: 2025, Status: models.StatusActive})

	_, err := svc.Create(context.Background(), CreateSemesterRequest{Code: "2025.1", Term: models.TermSummer, Year: 2025})
	assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyExists))
}

func TestSemesterServiceCreateValidation(t *testing.T) {
	_, svc := semesterFixture()

	_, err := svc.Create(context.Background(), CreateSemesterRequest{Code: "2025.1", Term: "WINTER", Year: 2025})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, -1, 0)
	_, err = svc.Create(context.Background(), CreateSemesterRequest{Code: "2025.2", Term: models.TermSummer, Year: 2025, StartDate: &start, EndDate: &end})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSemesterServiceToggleStatus(t *testing.T) {
	uow, svc := semesterFixture()
	uow.semesters.seed(models.Semester{ID: "sem-1", Code: "2025.1", Term: models.TermSpring, Year: 2025, Status: models.StatusActive})

	semester, err := svc.ToggleStatus(context.Background(), "sem-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, semester.Status)

	semester, err = svc.ToggleStatus(context.Background(), "sem-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, semester.Status)
}

func TestSemesterServiceToggleDisabledRejected(t *testing.T) {
	uow, svc := semesterFixture()
	uow.semesters.seed(models.Semester{ID: "sem-1", Code: "2024.3", Term: models.TermFall, Year: 2024, Status: models.StatusDisabled})

	_, err := svc.ToggleStatus(context.Background(), "sem-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrBusinessRule))
}

func TestSemesterServiceDeleteActiveRejected(t *testing.T) {
	uow, svc := semesterFixture()
	uow.semesters.seed(models.Semester{ID: "sem-1", Code: "2025.1", Term: models.TermSpring, Year: 2025, Status: models.StatusActive})

	err := svc.Delete(context.Background(), "sem-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrBusinessRule))

	// toggle off first, then delete succeeds as a soft transition
	_, err = svc.ToggleStatus(context.Background(), "sem-1")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), "sem-1"))

	semester, err := uow.semesters.GetByID(context.Background(), "sem-1")
	require.NoError(t, err)
	require.NotNil(t, semester, "delete keeps the row")
	assert.Equal(t, models.StatusDisabled, semester.Status)
}

func TestSemesterServiceDeleteMissing(t *testing.T) {
	_, svc := semesterFixture()

	err := svc.Delete(context.Background(), "nope")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSemesterServiceList(t *testing.T) {
	uow, svc := semesterFixture()
	uow.semesters.seed(
		models.Semester{ID: "sem-1", Code: "2025.1", Term: models.TermSpring, Year: 2025, Status: models.StatusActive},
		models.Semester{ID: "sem-2", Code: "2025.2", Term: models.TermSummer, Year: 2025, Status: models.StatusActive},
		models.Semester{ID: "sem-3", Code: "2024.3", Term: models.TermFall, Year: 2024, Status: models.StatusDisabled},
	)

	semesters, page, err := svc.List(context.Background(), models.SemesterFilter{Year: 2025})
	require.NoError(t, err)
	assert.Len(t, semesters, 2)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, 1, page.Page)

	semesters, page, err = svc.List(context.Background(), models.SemesterFilter{Term: models.TermFall, Status: models.StatusDisabled})
	require.NoError(t, err)
	require.Len(t, semesters, 1)
	assert.Equal(t, "2024.3", semesters[0].Code)
	assert.Equal(t, 1, page.TotalCount)
}
