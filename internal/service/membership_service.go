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

type uowFactory interface {
	New() repository.UnitOfWork
}

type accountLookup interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Account, error)
}

// MemberCache is the read-through cache contract for member rosters.
type MemberCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// EnrollRequest describes an enrollment creation payload.
type EnrollRequest struct {
	UserID  string           `json:"user_id" validate:"required"`
	ClassID string           `json:"class_id" validate:"required"`
	Role    models.ClassRole `json:"role_in_class" validate:"omitempty,oneof=STUDENT LECTURER TA"`
}

// MembershipService keeps class membership, group assignment and enrollment
// status mutually consistent. It is the only service that mutates more than
// one aggregate per operation; every mutation goes through one unit of work
// and lands in a single flush.
type MembershipService struct {
	factory   uowFactory
	accounts  accountLookup
	cache     MemberCache
	cacheTTL  time.Duration
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMembershipService constructs MembershipService. cache and metrics may
// be nil; both degrade to no-ops.
func NewMembershipService(factory uowFactory, accounts accountLookup, cache MemberCache, cacheTTL time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *MembershipService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &MembershipService{factory: factory, accounts: accounts, cache: cache, cacheTTL: cacheTTL, metrics: metrics, validator: validate, logger: logger}
}

// EnrollInClass registers a user in a class. A user enrolls in a class at
// most once; re-enrolling fails rather than duplicating the row.
func (s *MembershipService) EnrollInClass(ctx context.Context, req EnrollRequest) (*models.EnrollmentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	uow := s.factory.New()
	defer uow.Close()

	class, err := uow.Classes().GetByID(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, s.fail("enroll", appErrors.Clone(appErrors.ErrNotFound, "class not found"))
	}

	exists, err := uow.Enrollments().Exists(ctx,
		repository.And(repository.Eq("class_id", req.ClassID), repository.Eq("user_id", req.UserID)))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, s.fail("enroll", appErrors.Clone(appErrors.ErrAlreadyExists, "user already enrolled in class"))
	}

	role := req.Role
	if role == "" {
		role = models.ClassRoleStudent
	}
	enrollment := &models.ClassEnrollment{
		ClassID:     req.ClassID,
		UserID:      req.UserID,
		Status:      models.EnrollmentStatusActive,
		RoleInClass: role,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := uow.Enrollments().Insert(ctx, enrollment); err != nil {
		return nil, err
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, s.fail("enroll", err)
	}

	s.count("enroll", "success")
	s.logger.Info("user enrolled", zap.String("user_id", req.UserID), zap.String("class_id", req.ClassID))
	view := s.enrollmentView(ctx, *enrollment)
	return &view, nil
}

// AddMembersToGroup assigns users to a group of their class. The whole batch
// is validated before any row is staged: one bad user aborts the call, while
// users already in the target group count as success.
func (s *MembershipService) AddMembersToGroup(ctx context.Context, groupID string, userIDs []string) (*models.GroupView, error) {
	if len(userIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "member list is empty")
	}

	uow := s.factory.New()
	defer uow.Close()

	group, err := uow.Groups().GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, s.fail("add_members", appErrors.Clone(appErrors.ErrNotFound, "group not found"))
	}
	if group.Status != models.StatusActive {
		return nil, s.fail("add_members", appErrors.Clone(appErrors.ErrValidation, "group is not active"))
	}

	accounts, err := s.accounts.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve accounts")
	}

	toAssign := make([]*models.ClassEnrollment, 0, len(userIDs))
	for _, userID := range userIDs {
		if _, ok := accounts[userID]; !ok {
			return nil, s.fail("add_members", appErrors.Clone(appErrors.ErrNotFound, "account "+userID+" not found"))
		}
		enrollments, err := uow.Enrollments().FilterBy(ctx,
			repository.And(repository.Eq("class_id", group.ClassID), repository.Eq("user_id", userID)))
		if err != nil {
			return nil, err
		}
		if len(enrollments) == 0 || enrollments[0].Status != models.EnrollmentStatusActive {
			return nil, s.fail("add_members", appErrors.Clone(appErrors.ErrValidation, "user "+userID+" is not actively enrolled in the group's class"))
		}
		enrollment := enrollments[0]
		if enrollment.GroupID != nil {
			if *enrollment.GroupID == groupID {
				// already in the target group, idempotent success
				continue
			}
			return nil, s.fail("add_members", appErrors.Clone(appErrors.ErrValidation, "user "+userID+" is already assigned to another group"))
		}
		toAssign = append(toAssign, &enrollment)
	}

	for _, enrollment := range toAssign {
		gid := groupID
		enrollment.GroupID = &gid
		if err := uow.Enrollments().Update(ctx, enrollment); err != nil {
			return nil, err
		}
	}
	if len(toAssign) > 0 {
		if _, err := uow.SaveChanges(ctx); err != nil {
			return nil, s.fail("add_members", err)
		}
		s.invalidateMembers(ctx, groupID)
	}

	s.count("add_members", "success")
	return s.groupView(ctx, uow, group)
}

// RemoveMembersFromGroup clears the group assignment for the listed users.
// Users not currently in the group are skipped, not errored.
func (s *MembershipService) RemoveMembersFromGroup(ctx context.Context, groupID string, userIDs []string) (*models.GroupView, error) {
	uow := s.factory.New()
	defer uow.Close()

	group, err := uow.Groups().GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, s.fail("remove_members", appErrors.Clone(appErrors.ErrNotFound, "group not found"))
	}

	removed := 0
	for _, userID := range userIDs {
		enrollments, err := uow.Enrollments().FilterBy(ctx, repository.And(
			repository.Eq("group_id", groupID),
			repository.Eq("user_id", userID),
			repository.Eq("status", models.EnrollmentStatusActive)))
		if err != nil {
			return nil, err
		}
		if len(enrollments) == 0 {
			continue
		}
		enrollment := enrollments[0]
		enrollment.GroupID = nil
		if err := uow.Enrollments().Update(ctx, &enrollment); err != nil {
			return nil, err
		}
		removed++
	}
	if removed > 0 {
		if _, err := uow.SaveChanges(ctx); err != nil {
			return nil, s.fail("remove_members", err)
		}
		s.invalidateMembers(ctx, groupID)
	}

	s.count("remove_members", "success")
	return s.groupView(ctx, uow, group)
}

// GetGroupMembers returns the active member roster of a group, enriched with
// account identity and served read-through from the cache when enabled.
func (s *MembershipService) GetGroupMembers(ctx context.Context, groupID string) ([]models.MemberView, error) {
	uow := s.factory.New()
	defer uow.Close()

	group, err := uow.Groups().GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}

	if s.cache != nil {
		var cached []models.MemberView
		if err := s.cache.Get(ctx, repository.GroupMembersKey(groupID), &cached); err == nil {
			s.metrics.RecordCacheLookup(true)
			return cached, nil
		}
		s.metrics.RecordCacheLookup(false)
	}

	members, err := s.loadMembers(ctx, uow, groupID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, repository.GroupMembersKey(groupID), members, s.cacheTTL); err != nil {
			s.logger.Warn("member cache write failed", zap.String("group_id", groupID), zap.Error(err))
		}
	}
	return members, nil
}

// DeleteGroup soft-disables a group and clears the group assignment of its
// active enrollments in the same flush, so no enrollment is left pointing at
// a disabled group.
func (s *MembershipService) DeleteGroup(ctx context.Context, groupID string) error {
	uow := s.factory.New()
	defer uow.Close()

	group, err := uow.Groups().GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return s.fail("delete_group", appErrors.Clone(appErrors.ErrNotFound, "group not found"))
	}

	enrollments, err := uow.Enrollments().FilterBy(ctx, repository.And(
		repository.Eq("group_id", groupID),
		repository.Eq("status", models.EnrollmentStatusActive)))
	if err != nil {
		return err
	}
	for i := range enrollments {
		enrollments[i].GroupID = nil
		if err := uow.Enrollments().Update(ctx, &enrollments[i]); err != nil {
			return err
		}
	}

	if err := uow.Groups().SoftStatusTransition(ctx, groupID); err != nil {
		return err
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return s.fail("delete_group", err)
	}
	s.invalidateMembers(ctx, groupID)

	s.count("delete_group", "success")
	s.logger.Info("group disabled", zap.String("group_id", groupID), zap.Int("members_cleared", len(enrollments)))
	return nil
}

// AssignLecturer sets the class lecturer after validating the account's role.
func (s *MembershipService) AssignLecturer(ctx context.Context, classID, lecturerID string) (*models.ClassView, error) {
	uow := s.factory.New()
	defer uow.Close()

	class, err := uow.Classes().GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, s.fail("assign_lecturer", appErrors.Clone(appErrors.ErrNotFound, "class not found"))
	}

	account, err := s.accounts.FindByID(ctx, lecturerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve lecturer account")
	}
	if account == nil {
		return nil, s.fail("assign_lecturer", appErrors.Clone(appErrors.ErrNotFound, "lecturer account not found"))
	}
	if account.Role != models.RoleLecturer {
		return nil, s.fail("assign_lecturer", appErrors.Clone(appErrors.ErrInvalidRole, "account is not a lecturer"))
	}

	class.LecturerID = &lecturerID
	if err := uow.Classes().Update(ctx, class); err != nil {
		return nil, err
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, s.fail("assign_lecturer", err)
	}

	s.count("assign_lecturer", "success")
	summary := account.Summary()
	return &models.ClassView{Class: *class, Lecturer: &summary}, nil
}

// UnassignLecturer clears the class lecturer reference.
func (s *MembershipService) UnassignLecturer(ctx context.Context, classID string) (*models.ClassView, error) {
	uow := s.factory.New()
	defer uow.Close()

	class, err := uow.Classes().GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, s.fail("unassign_lecturer", appErrors.Clone(appErrors.ErrNotFound, "class not found"))
	}

	class.LecturerID = nil
	if err := uow.Classes().Update(ctx, class); err != nil {
		return nil, err
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, s.fail("unassign_lecturer", err)
	}

	s.count("unassign_lecturer", "success")
	return &models.ClassView{Class: *class}, nil
}

func (s *MembershipService) loadMembers(ctx context.Context, uow repository.UnitOfWork, groupID string) ([]models.MemberView, error) {
	enrollments, err := uow.Enrollments().FilterBy(ctx, repository.And(
		repository.Eq("group_id", groupID),
		repository.Eq("status", models.EnrollmentStatusActive)))
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		userIDs = append(userIDs, e.UserID)
	}
	accounts, err := s.accounts.FindByIDs(ctx, userIDs)
	if err != nil {
		// identity enrichment is best effort, never aborts the roster
		s.logger.Warn("account resolution failed", zap.String("group_id", groupID), zap.Error(err))
		accounts = map[string]models.Account{}
	}

	members := make([]models.MemberView, 0, len(enrollments))
	for _, e := range enrollments {
		member := models.MemberView{EnrollmentID: e.ID, UserID: e.UserID, RoleInClass: e.RoleInClass}
		if account, ok := accounts[e.UserID]; ok {
			member.FirstName = account.FirstName
			member.LastName = account.LastName
			member.Email = account.Email
			member.StudentID = account.StudentID
		}
		members = append(members, member)
	}
	return members, nil
}

func (s *MembershipService) groupView(ctx context.Context, uow repository.UnitOfWork, group *models.Group) (*models.GroupView, error) {
	members, err := s.loadMembers(ctx, uow, group.ID)
	if err != nil {
		return nil, err
	}
	return &models.GroupView{Group: *group, Members: members}, nil
}

func (s *MembershipService) enrollmentView(ctx context.Context, enrollment models.ClassEnrollment) models.EnrollmentView {
	view := models.EnrollmentView{ClassEnrollment: enrollment}
	account, err := s.accounts.FindByID(ctx, enrollment.UserID)
	if err != nil || account == nil {
		// tolerated: identity fields stay empty
		return view
	}
	view.FirstName = account.FirstName
	view.LastName = account.LastName
	view.Email = account.Email
	view.StudentID = account.StudentID
	return view
}

func (s *MembershipService) invalidateMembers(ctx context.Context, groupID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, repository.GroupMembersKey(groupID)); err != nil {
		s.logger.Warn("member cache invalidation failed", zap.String("group_id", groupID), zap.Error(err))
	}
}

func (s *MembershipService) count(op, outcome string) {
	s.metrics.ObserveMembershipOperation(op, outcome)
}

func (s *MembershipService) fail(op string, err error) error {
	s.count(op, "rejected")
	return err
}
