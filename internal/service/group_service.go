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

// CreateGroupRequest describes group creation under a class.
type CreateGroupRequest struct {
	ClassID     string `json:"class_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// GroupService manages group records. Membership mutations and group
// deletion live in MembershipService, which owns the cross-entity
// consistency rules.
type GroupService struct {
	factory   uowFactory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs GroupService.
func NewGroupService(factory uowFactory, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{factory: factory, validator: validate, logger: logger}
}

// Create registers a group under an existing class.
func (s *GroupService) Create(ctx context.Context, req CreateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
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

	exists, err := uow.Groups().Exists(ctx, repository.And(
		repository.Eq("class_id", req.ClassID),
		repository.Eq("name", req.Name),
		repository.Eq("status", models.StatusActive)))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "group name already in use for class")
	}

	group := &models.Group{
		ClassID:     req.ClassID,
		Name:        req.Name,
		Description: req.Description,
		Status:      models.StatusActive,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := uow.Groups().Insert(ctx, group); err != nil {
		return nil, err
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("group created", zap.String("name", group.Name), zap.String("class_id", group.ClassID))
	return group, nil
}

// Get returns one group.
func (s *GroupService) Get(ctx context.Context, id string) (*models.Group, error) {
	uow := s.factory.New()
	defer uow.Close()

	group, err := uow.Groups().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}
	return group, nil
}

// ListByClass returns the active groups of a class.
func (s *GroupService) ListByClass(ctx context.Context, classID string) ([]models.Group, error) {
	uow := s.factory.New()
	defer uow.Close()

	class, err := uow.Classes().GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	return uow.Groups().FilterBy(ctx, repository.And(
		repository.Eq("class_id", classID),
		repository.Eq("status", models.StatusActive)))
}
