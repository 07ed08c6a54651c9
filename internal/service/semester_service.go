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

// CreateSemesterRequest describes semester creation.
type CreateSemesterRequest struct {
	Code      string              `json:"code" validate:"required"`
	Term      models.SemesterTerm `json:"term" validate:"required,oneof=SPRING SUMMER FALL"`
	Year      int                 `json:"year" validate:"required,gte=2000"`
	StartDate *time.Time          `json:"start_date"`
	EndDate   *time.Time          `json:"end_date"`
}

// SemesterService manages semester lifecycle. Deleting an active semester is
// rejected; callers toggle it off first, and deletion itself is a soft
// transition that keeps the row.
type SemesterService struct {
	factory   uowFactory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService constructs SemesterService.
func NewSemesterService(factory uowFactory, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{factory: factory, validator: validate, logger: logger}
}

// Create registers a new semester with a unique code.
func (s *SemesterService) Create(ctx context.Context, req CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	if req.StartDate != nil && req.EndDate != nil && !req.StartDate.Before(*req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date must precede end date")
	}

	uow := s.factory.New()
	defer uow.Close()

	exists, err := uow.Semesters().Exists(ctx, repository.Eq("code", req.Code))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "semester code already in use")
	}

	semester := &models.Semester{
		Code:      req.Code,
		Term:      req.Term,
		Year:      req.Year,
		Status:    models.StatusActive,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := uow.Semesters().Insert(ctx, semester); err != nil {
		return nil, err
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("semester created", zap.String("code", semester.Code), zap.String("id", semester.ID))
	return semester, nil
}

// Get returns one semester.
func (s *SemesterService) Get(ctx context.Context, id string) (*models.Semester, error) {
	uow := s.factory.New()
	defer uow.Close()

	semester, err := uow.Semesters().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if semester == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
	}
	return semester, nil
}

// List returns semesters matching the filter with pagination metadata.
func (s *SemesterService) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, *models.Pagination, error) {
	uow := s.factory.New()
	defer uow.Close()

	var preds []*repository.Predicate
	if filter.Term != "" {
		preds = append(preds, repository.Eq("term", filter.Term))
	}
	if filter.Year != 0 {
		preds = append(preds, repository.Eq("year", filter.Year))
	}
	if filter.Status != "" {
		preds = append(preds, repository.Eq("status", filter.Status))
	}

	orderBy := ""
	switch filter.SortBy {
	case "code", "year", "created_at":
		orderBy = filter.SortBy
		if filter.SortOrder == "asc" || filter.SortOrder == "ASC" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	semesters, total, err := uow.Semesters().List(ctx, repository.And(preds...), filter.Page, filter.PageSize, orderBy)
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
	return semesters, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ToggleStatus flips a semester between Active and Pending.
func (s *SemesterService) ToggleStatus(ctx context.Context, id string) (*models.Semester, error) {
	uow := s.factory.New()
	defer uow.Close()

	semester, err := uow.Semesters().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if semester == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
	}

	switch semester.Status {
	case models.StatusActive:
		semester.Status = models.StatusPending
	case models.StatusPending:
		semester.Status = models.StatusActive
	default:
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, "disabled semester cannot be toggled")
	}

	if err := uow.Semesters().Update(ctx, semester); err != nil {
		return nil, err
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, err
	}
	return semester, nil
}

// Delete soft-disables a semester. An active semester must be toggled off
// first; the two-step dance guards live academic terms.
func (s *SemesterService) Delete(ctx context.Context, id string) error {
	uow := s.factory.New()
	defer uow.Close()

	semester, err := uow.Semesters().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if semester == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "semester not found")
	}
	if semester.Status == models.StatusActive {
		return appErrors.Clone(appErrors.ErrBusinessRule, "semester is active and cannot be deleted")
	}

	if err := uow.Semesters().SoftStatusTransition(ctx, id); err != nil {
		return err
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return err
	}
	s.logger.Info("semester disabled", zap.String("id", id))
	return nil
}
