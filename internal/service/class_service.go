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

// CreateClassRequest describes class creation.
type CreateClassRequest struct {
	SemesterID string `json:"semester_id" validate:"required"`
	Code       string `json:"code" validate:"required"`
}

// ClassService manages class lifecycle under a semester. Lecturer assignment
// lives in MembershipService because it validates a cross-service account.
type ClassService struct {
	factory   uowFactory
	accounts  accountLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(factory uowFactory, accounts accountLookup, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{factory: factory, accounts: accounts, validator: validate, logger: logger}
}

// Create registers a class in an existing semester. The class code is
// unique within its semester.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	uow := s.factory.New()
	defer uow.Close()

	semester, err := uow.Semesters().GetByID(ctx, req.SemesterID)
	if err != nil {
		return nil, err
	}
	if semester == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
	}

	exists, err := uow.Classes().Exists(ctx,
		repository.And(repository.Eq("code", req.Code), repository.Eq("semester_id", req.SemesterID)))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "class code already in use for semester")
	}

	class := &models.Class{
		SemesterID: req.SemesterID,
		Code:       req.Code,
		Status:     models.StatusActive,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := uow.Classes().Insert(ctx, class); err != nil {
		return nil, err
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("class created", zap.String("code", class.Code), zap.String("semester_id", class.SemesterID))
	return class, nil
}

// Get returns a class enriched with its semester code and lecturer identity.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassView, error) {
	uow := s.factory.New()
	defer uow.Close()

	class, err := uow.Classes().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	view := &models.ClassView{Class: *class}
	if semester, err := uow.Semesters().GetByID(ctx, class.SemesterID); err == nil && semester != nil {
		view.SemesterCode = semester.Code
	}
	if class.LecturerID != nil {
		// enrichment is best effort, a dangling lecturer id is tolerated
		if account, err := s.accounts.FindByID(ctx, *class.LecturerID); err == nil && account != nil {
			summary := account.Summary()
			view.Lecturer = &summary
		}
	}
	return view, nil
}

// List returns classes matching the filter with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	uow := s.factory.New()
	defer uow.Close()

	var preds []*repository.Predicate
	if filter.SemesterID != "" {
		preds = append(preds, repository.Eq("semester_id", filter.SemesterID))
	}
	if filter.Status != "" {
		preds = append(preds, repository.Eq("status", filter.Status))
	}

	orderBy := ""
	switch filter.SortBy {
	case "code", "created_at":
		orderBy = filter.SortBy + " DESC"
		if filter.SortOrder == "asc" || filter.SortOrder == "ASC" {
			orderBy = filter.SortBy + " ASC"
		}
	}

	classes, total, err := uow.Classes().List(ctx, repository.And(preds...), filter.Page, filter.PageSize, orderBy)
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
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Delete soft-disables a class. Active classes are protected by the same
// two-step rule as semesters.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	uow := s.factory.New()
	defer uow.Close()

	class, err := uow.Classes().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if class == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	if class.Status == models.StatusActive {
		return appErrors.Clone(appErrors.ErrBusinessRule, "class is active and cannot be deleted")
	}

	if err := uow.Classes().SoftStatusTransition(ctx, id); err != nil {
		return err
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return err
	}
	s.logger.Info("class disabled", zap.String("id", id))
	return nil
}

// ToggleStatus flips a class between Active and Pending.
func (s *ClassService) ToggleStatus(ctx context.Context, id string) (*models.Class, error) {
	uow := s.factory.New()
	defer uow.Close()

	class, err := uow.Classes().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	switch class.Status {
	case models.StatusActive:
		class.Status = models.StatusPending
	case models.StatusPending:
		class.Status = models.StatusActive
	default:
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, "disabled class cannot be toggled")
	}

	if err := uow.Classes().Update(ctx, class); err != nil {
		return nil, err
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, err
	}
	return class, nil
}
