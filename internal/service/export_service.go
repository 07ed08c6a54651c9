package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/HieuTrannn/fibo-academic-api/internal/models"
	"github.com/HieuTrannn/fibo-academic-api/internal/repository"
	appErrors "github.com/HieuTrannn/fibo-academic-api/pkg/errors"
	"github.com/HieuTrannn/fibo-academic-api/pkg/export"
)

// Export formats supported by roster downloads.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

var rosterHeaders = []string{"User ID", "Name", "Email", "Student ID", "Role", "Group"}

// ExportService renders class and group rosters as downloadable files.
type ExportService struct {
	factory  uowFactory
	accounts accountLookup
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(factory uowFactory, accounts accountLookup, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		factory:  factory,
		accounts: accounts,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// ClassRoster renders the active enrollments of a class.
func (s *ExportService) ClassRoster(ctx context.Context, classID, format string) ([]byte, string, error) {
	uow := s.factory.New()
	defer uow.Close()

	class, err := uow.Classes().GetByID(ctx, classID)
	if err != nil {
		return nil, "", err
	}
	if class == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	enrollments, err := uow.Enrollments().FilterBy(ctx, repository.And(
		repository.Eq("class_id", classID),
		repository.Eq("status", models.EnrollmentStatusActive)))
	if err != nil {
		return nil, "", err
	}

	groups, err := uow.Groups().FilterBy(ctx, repository.Eq("class_id", classID))
	if err != nil {
		return nil, "", err
	}
	groupNames := make(map[string]string, len(groups))
	for _, g := range groups {
		groupNames[g.ID] = g.Name
	}

	dataset, err := s.rosterDataset(ctx, enrollments, groupNames)
	if err != nil {
		return nil, "", err
	}
	title := fmt.Sprintf("Class roster %s", class.Code)
	return s.render(dataset, title, "class-"+class.Code, format)
}

// GroupRoster renders the active members of one group.
func (s *ExportService) GroupRoster(ctx context.Context, groupID, format string) ([]byte, string, error) {
	uow := s.factory.New()
	defer uow.Close()

	group, err := uow.Groups().GetByID(ctx, groupID)
	if err != nil {
		return nil, "", err
	}
	if group == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}

	enrollments, err := uow.Enrollments().FilterBy(ctx, repository.And(
		repository.Eq("group_id", groupID),
		repository.Eq("status", models.EnrollmentStatusActive)))
	if err != nil {
		return nil, "", err
	}

	dataset, err := s.rosterDataset(ctx, enrollments, map[string]string{group.ID: group.Name})
	if err != nil {
		return nil, "", err
	}
	title := fmt.Sprintf("Group roster %s", group.Name)
	return s.render(dataset, title, "group-"+group.Name, format)
}

func (s *ExportService) rosterDataset(ctx context.Context, enrollments []models.ClassEnrollment, groupNames map[string]string) (export.Dataset, error) {
	userIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		userIDs = append(userIDs, e.UserID)
	}
	accounts, err := s.accounts.FindByIDs(ctx, userIDs)
	if err != nil {
		s.logger.Warn("account resolution failed during export", zap.Error(err))
		accounts = map[string]models.Account{}
	}

	rows := make([]map[string]string, 0, len(enrollments))
	for _, e := range enrollments {
		row := map[string]string{
			"User ID": e.UserID,
			"Role":    string(e.RoleInClass),
		}
		if account, ok := accounts[e.UserID]; ok {
			row["Name"] = account.FirstName + " " + account.LastName
			row["Email"] = account.Email
			row["Student ID"] = account.StudentID
		}
		if e.GroupID != nil {
			row["Group"] = groupNames[*e.GroupID]
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: rosterHeaders, Rows: rows}, nil
}

func (s *ExportService) render(dataset export.Dataset, title, base, format string) ([]byte, string, error) {
	switch format {
	case FormatCSV, "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, base + ".csv", nil
	case FormatPDF:
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, base + ".pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format "+format)
	}
}
