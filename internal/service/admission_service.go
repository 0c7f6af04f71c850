package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
	appErrors "github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/errors"
)

type waitlistStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	SetLedgers(ctx context.Context, id string, enrolled, waitlisted []string) error
	ListWaitlistedFor(ctx context.Context, sectionID string) ([]models.Student, error)
}

type admissionSectionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	ReserveSeat(ctx context.Context, id string) (bool, error)
	ReleaseWaitlistSpot(ctx context.Context, id string) error
}

// AdmissionService moves students from a section's waitlist into its roster.
// Admission is a deliberate administrative action; nothing in the system
// promotes a waitlisted student automatically.
type AdmissionService struct {
	students   waitlistStudentRepository
	sections   admissionSectionRepository
	cache      catalogInvalidator
	reconciler sectionReconciler
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewAdmissionService constructs AdmissionService. cache, reconciler and
// metrics may be nil.
func NewAdmissionService(students waitlistStudentRepository, sections admissionSectionRepository, cache catalogInvalidator, reconciler sectionReconciler, metrics *MetricsService, logger *zap.Logger) *AdmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionService{
		students:   students,
		sections:   sections,
		cache:      cache,
		reconciler: reconciler,
		metrics:    metrics,
		logger:     logger,
	}
}

// ListWaitlisted returns the students queued for a section, oldest update
// first.
func (s *AdmissionService) ListWaitlisted(ctx context.Context, sectionID string) ([]models.Student, error) {
	if _, err := s.loadSection(ctx, sectionID); err != nil {
		return nil, err
	}
	students, err := s.students.ListWaitlistedFor(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list waitlisted students")
	}
	return students, nil
}

// Admit moves one waitlisted student into the section roster. The student
// must actually be on the waitlist, and a seat must be free at admission
// time; admitting into a full section is refused, it never overflows
// capacityMax.
func (s *AdmissionService) Admit(ctx context.Context, sectionID, studentID string) error {
	outcome, err := s.admit(ctx, sectionID, studentID)
	s.metrics.ObserveAdmission(outcome)
	return err
}

func (s *AdmissionService) admit(ctx context.Context, sectionID, studentID string) (string, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return outcomeOf(err), err
	}
	if !student.IsWaitlistedIn(sectionID) {
		err := appErrors.Clone(appErrors.ErrNotFound, "student is not on the waitlist for this section")
		return err.Code, err
	}

	section, err := s.loadSection(ctx, sectionID)
	if err != nil {
		return outcomeOf(err), err
	}
	if section.IsFull() {
		return appErrors.ErrNoSeatsAvailable.Code, appErrors.ErrNoSeatsAvailable
	}

	reserved, err := s.sections.ReserveSeat(ctx, sectionID)
	if err != nil {
		return outcomeOf(err), appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to reserve seat")
	}
	if !reserved {
		return appErrors.ErrNoSeatsAvailable.Code, appErrors.ErrNoSeatsAvailable
	}
	if err := s.sections.ReleaseWaitlistSpot(ctx, sectionID); err != nil {
		return appErrors.ErrPartialWrite.Code, s.partialWrite(ctx, sectionID, err)
	}

	enrolled := student.EnrolledSections
	if !student.IsEnrolledIn(sectionID) {
		enrolled = append(append([]string{}, enrolled...), sectionID)
	}
	waitlisted := removeID(student.WaitlistedIn, sectionID)
	if err := s.students.SetLedgers(ctx, studentID, enrolled, waitlisted); err != nil {
		return appErrors.ErrPartialWrite.Code, s.partialWrite(ctx, sectionID, err)
	}

	s.invalidateCatalog(ctx)
	return "ok", nil
}

func (s *AdmissionService) loadStudent(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load student")
	}
	return student, nil
}

func (s *AdmissionService) loadSection(ctx context.Context, sectionID string) (*models.Section, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load section")
	}
	return section, nil
}

func (s *AdmissionService) partialWrite(ctx context.Context, sectionID string, err error) error {
	s.logger.Error("partial write during admission",
		zap.String("section_id", sectionID),
		zap.Error(err),
	)
	s.metrics.ObservePartialWrite("admit")
	if s.reconciler != nil {
		s.reconciler.EnqueueSection(sectionID, "admit")
	}
	s.invalidateCatalog(ctx)
	return appErrors.Wrap(err, appErrors.ErrPartialWrite.Code, appErrors.ErrPartialWrite.Status, appErrors.ErrPartialWrite.Message)
}

func (s *AdmissionService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "catalog:*"); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}
