package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/HieuTrannn/fibo-academic-api/internal/models"
	"github.com/HieuTrannn/fibo-academic-api/internal/repository"
	appErrors "github.com/HieuTrannn/fibo-academic-api/pkg/errors"
)

// CreateDocumentRequest describes document metadata creation. The binary
// upload happens against external object storage before this call.
type CreateDocumentRequest struct {
	ClassID string `json:"class_id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Link    string `json:"link" validate:"required,url"`
}

// UpdateDocumentRequest describes a metadata update.
type UpdateDocumentRequest struct {
	Name string `json:"name" validate:"required"`
	Link string `json:"link" validate:"required,url"`
}

// DocumentService manages class material metadata.
type DocumentService struct {
	factory   uowFactory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDocumentService constructs DocumentService.
func NewDocumentService(factory uowFactory, validate *validator.Validate, logger *zap.Logger) *DocumentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{factory: factory, validator: validate, logger: logger}
}

// Create registers document metadata under an existing class.
func (s *DocumentService) Create(ctx context.Context, req CreateDocumentRequest) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}

	uow := s.factory.New()
	defer uow.Close()

	class, err := uow.Classes().GetByID(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	document := &models.Document{
		ClassID:   req.ClassID,
		Name:      req.Name,
		Link:      req.Link,
		Status:    models.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := uow.Documents().Insert(ctx, document); err != nil {
		return nil, err
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, err
	}
	return document, nil
}

// Get returns one document.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	uow := s.factory.New()
	defer uow.Close()

	document, err := uow.Documents().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	return document, nil
}

// List returns documents matching the filter with pagination metadata.
func (s *DocumentService) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, *models.Pagination, error) {
	uow := s.factory.New()
	defer uow.Close()

	var preds []*repository.Predicate
	if filter.ClassID != "" {
		preds = append(preds, repository.Eq("class_id", filter.ClassID))
	}
	if filter.Status != "" {
		preds = append(preds, repository.Eq("status", filter.Status))
	}

	documents, total, err := uow.Documents().List(ctx, repository.And(preds...), filter.Page, filter.PageSize, "")
	if err != nil {
		return nil, nil, err
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return documents, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update overwrites document metadata.
func (s *DocumentService) Update(ctx context.Context, id string, req UpdateDocumentRequest) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}

	uow := s.factory.New()
	defer uow.Close()

	document, err := uow.Documents().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}

	document.Name = req.Name
	document.Link = req.Link
	if err := uow.Documents().Update(ctx, document); err != nil {
		return nil, err
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, err
	}
	return document, nil
}

// Delete soft-disables a document. The stored link stays resolvable for
// audit purposes.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	uow := s.factory.New()
	defer uow.Close()

	if err := uow.Documents().SoftStatusTransition(ctx, id); err != nil {
		return err
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return err
	}
	return nil
}
