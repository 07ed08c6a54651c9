package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HieuTrannn/fibo-academic-api/internal/models"
	appErrors "github.com/HieuTrannn/fibo-academic-api/pkg/errors"
)

func documentFixture() (*fakeUnitOfWork, *DocumentService) {
	uow := newFakeUnitOfWork()
	uow.classes.seed(models.Class{ID: "class-1", SemesterID: "sem-1", Code: "SE101.1", Status: models.StatusActive})
	svc := NewDocumentService(&fakeFactory{uow: uow}, nil, nil)
	return uow, svc
}

func TestDocumentServiceCreate(t *testing.T) {
	_, svc := documentFixture()

	document, err := svc.Create(context.Background(), CreateDocumentRequest{ClassID: "class-1", Name: "Syllabus", Link: "https://files.example.com/syllabus.pdf"})
	require.NoError(t, err)
	assert.NotEmpty(t, document.ID)
	assert.Equal(t, models.StatusActive, document.Status)
}

func TestDocumentServiceCreateValidation(t *testing.T) {
	_, svc := documentFixture()

	_, err := svc.Create(context.Background(), CreateDocumentRequest{ClassID: "class-1", Name: "Syllabus", Link: "not-a-url"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(context.Background(), CreateDocumentRequest{ClassID: "nope", Name: "Syllabus", Link: "https://files.example.com/syllabus.pdf"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDocumentServiceUpdate(t *testing.T) {
	uow, svc := documentFixture()
	uow.documents.seed(models.Document{ID: "doc-1", ClassID: "class-1", Name: "Syllabus", Link: "https://files.example.com/v1.pdf", Status: models.StatusActive})

	document, err := svc.Update(context.Background(), "doc-1", UpdateDocumentRequest{Name: "Syllabus v2", Link: "https://files.example.com/v2.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "Syllabus v2", document.Name)
	assert.Equal(t, "https://files.example.com/v2.pdf", document.Link)
}

func TestDocumentServiceDelete(t *testing.T) {
	uow, svc := documentFixture()
	uow.documents.seed(models.Document{ID: "doc-1", ClassID: "class-1", Name: "Syllabus", Link: "https://files.example.com/v1.pdf", Status: models.StatusActive})

	require.NoError(t, svc.Delete(context.Background(), "doc-1"))

	document, err := uow.documents.GetByID(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDisabled, document.Status)
	assert.Equal(t, "https://files.example.com/v1.pdf", document.Link, "link survives the soft delete")
}

func TestDocumentServiceDeleteMissing(t *testing.T) {
	_, svc := documentFixture()

	err := svc.Delete(context.Background(), "nope")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDocumentServiceList(t *testing.T) {
	uow, svc := documentFixture()
	uow.documents.seed(
		models.Document{ID: "doc-1", ClassID: "class-1", Name: "Syllabus", Link: "https://files.example.com/a.pdf", Status: models.StatusActive},
		models.Document{ID: "doc-2", ClassID: "class-1", Name: "Slides", Link: "https://files.example.com/b.pdf", Status: models.StatusDisabled},
	)

	documents, page, err := svc.List(context.Background(), models.DocumentFilter{ClassID: "class-1", Status: models.StatusActive})
	require.NoError(t, err)
	require.Len(t, documents, 1)
	assert.Equal(t, "Syllabus", documents[0].Name)
	assert.Equal(t, 1, page.TotalCount)
}
