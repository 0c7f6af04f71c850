package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
	appErrors "github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/errors"
)

// creditsPerCourse is the uniform credit weight applied to every enrolled
// section; the catalog does not carry per-course credit hours.
const creditsPerCourse = 3

type summaryStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

type summarySectionRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Section, error)
}

// StudentService serves student profile projections and the admin roster.
type StudentService struct {
	students summaryStudentRepository
	sections summarySectionRepository
	logger   *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(students summaryStudentRepository, sections summarySectionRepository, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, sections: sections, logger: logger}
}

// Summary returns the student's profile with their enrolled and waitlisted
// sections materialized into catalog projections.
func (s *StudentService) Summary(ctx context.Context, studentID string) (*models.StudentSummary, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load student")
	}

	enrolled, err := s.views(ctx, student.EnrolledSections)
	if err != nil {
		return nil, err
	}
	waitlisted, err := s.views(ctx, student.WaitlistedIn)
	if err != nil {
		return nil, err
	}

	return &models.StudentSummary{
		Student:      *student,
		Enrolled:     enrolled,
		Waitlisted:   waitlisted,
		TotalCredits: len(student.EnrolledSections) * creditsPerCourse,
	}, nil
}

// List returns a page of students for the admin roster.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list students")
	}
	return students, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	}, nil
}

func (s *StudentService) views(ctx context.Context, sectionIDs []string) ([]models.SectionView, error) {
	views := []models.SectionView{}
	if len(sectionIDs) == 0 {
		return views, nil
	}
	sections, err := s.sections.FindByIDs(ctx, sectionIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load sections")
	}
	for _, section := range sections {
		views = append(views, models.NewSectionView(section))
	}
	return views, nil
}
