package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
	appErrors "github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/errors"
)

type studentLedgerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	SetEnrolled(ctx context.Context, id string, sectionIDs []string) error
	SetWaitlisted(ctx context.Context, id string, sectionIDs []string) error
}

type sectionCounterRepository interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Section, error)
	ReserveSeatIfOpen(ctx context.Context, id string) (bool, error)
	ReserveWaitlistSpot(ctx context.Context, id string) (bool, error)
	ReleaseSeat(ctx context.Context, id string) error
	ReleaseWaitlistSpot(ctx context.Context, id string) error
}

type catalogInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type sectionReconciler interface {
	EnqueueSection(sectionID, reason string)
}

// RegisterRequest asks to enroll the authenticated student into a section.
type RegisterRequest struct {
	SectionID string `json:"section_id" validate:"required"`
}

// WaitlistRequest asks to queue the authenticated student for a section.
type WaitlistRequest struct {
	SectionID string `json:"section_id" validate:"required"`
}

// RegistrationService is the enrollment transaction engine. Each operation
// is a read-validate-write sequence spanning two aggregates: the student's
// ledger and the section's counters. The two stores are not covered by a
// shared transaction, so the sequence is ordered to fail before mutating
// anything, and a write that leaves the aggregates out of step is surfaced
// as PARTIAL_WRITE_FAILURE and handed to the reconciler.
type RegistrationService struct {
	students   studentLedgerRepository
	sections   sectionCounterRepository
	cache      catalogInvalidator
	reconciler sectionReconciler
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewRegistrationService constructs RegistrationService. cache, reconciler
// and metrics may be nil.
func NewRegistrationService(students studentLedgerRepository, sections sectionCounterRepository, cache catalogInvalidator, reconciler sectionReconciler, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		students:   students,
		sections:   sections,
		cache:      cache,
		reconciler: reconciler,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// Register enrolls the student into a section. Validation order is fixed:
// duplicate membership, then capacity (an active waitlist closes the section
// to direct registration even with seats free), then schedule conflict.
// Validation failures mutate nothing.
func (s *RegistrationService) Register(ctx context.Context, studentID string, req RegisterRequest) error {
	outcome, err := s.register(ctx, studentID, req)
	s.metrics.ObserveRegistration("register", outcome)
	return err
}

func (s *RegistrationService) register(ctx context.Context, studentID string, req RegisterRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return outcomeOf(appErrors.ErrValidation), appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return outcomeOf(err), err
	}
	if student.IsEnrolledIn(req.SectionID) {
		return appErrors.ErrAlreadyEnrolled.Code, appErrors.ErrAlreadyEnrolled
	}

	// Ground truth at decision time: the counters are re-read here, never
	// taken from the catalog projection the student was looking at.
	section, err := s.loadSection(ctx, req.SectionID)
	if err != nil {
		return outcomeOf(err), err
	}
	if section.WaitlistActive() {
		return appErrors.ErrSectionFull.Code, appErrors.Clone(appErrors.ErrSectionFull, "a waitlist is active for this course, please join the waitlist instead")
	}
	if section.IsFull() {
		return appErrors.ErrSectionFull.Code, appErrors.ErrSectionFull
	}

	if err := s.checkConflicts(ctx, student, section); err != nil {
		return outcomeOf(err), err
	}

	// Single conditional write: the seat is claimed only if headroom still
	// exists and no waitlist formed since the read above.
	reserved, err := s.sections.ReserveSeatIfOpen(ctx, req.SectionID)
	if err != nil {
		return outcomeOf(err), s.storageErr(err, "failed to reserve seat")
	}
	if !reserved {
		return appErrors.ErrSectionFull.Code, appErrors.ErrSectionFull
	}

	// The seat is taken; the ledger write below is a second, independent
	// persist. If it fails the aggregates disagree until reconciliation.
	enrolled := append(append([]string{}, student.EnrolledSections...), req.SectionID)
	if err := s.students.SetEnrolled(ctx, studentID, enrolled); err != nil {
		return appErrors.ErrPartialWrite.Code, s.partialWrite(ctx, "register", req.SectionID, err)
	}

	s.invalidateCatalog(ctx)
	return "ok", nil
}

// Waitlist queues the student for a section. The student may not already be
// waitlisted, the waitlist must have headroom, and the section must not
// collide with the enrolled schedule (waitlisted sections are not checked
// against each other).
func (s *RegistrationService) Waitlist(ctx context.Context, studentID string, req WaitlistRequest) error {
	outcome, err := s.waitlist(ctx, studentID, req)
	s.metrics.ObserveRegistration("waitlist", outcome)
	return err
}

func (s *RegistrationService) waitlist(ctx context.Context, studentID string, req WaitlistRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return outcomeOf(appErrors.ErrValidation), appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid waitlist payload")
	}
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return outcomeOf(err), err
	}
	if student.IsWaitlistedIn(req.SectionID) {
		return appErrors.ErrAlreadyWaitlisted.Code, appErrors.ErrAlreadyWaitlisted
	}

	section, err := s.loadSection(ctx, req.SectionID)
	if err != nil {
		return outcomeOf(err), err
	}
	if section.IsWaitlistFull() {
		return appErrors.ErrWaitlistFull.Code, appErrors.ErrWaitlistFull
	}

	if err := s.checkConflicts(ctx, student, section); err != nil {
		return outcomeOf(err), err
	}

	reserved, err := s.sections.ReserveWaitlistSpot(ctx, req.SectionID)
	if err != nil {
		return outcomeOf(err), s.storageErr(err, "failed to reserve waitlist spot")
	}
	if !reserved {
		return appErrors.ErrWaitlistFull.Code, appErrors.ErrWaitlistFull
	}

	waitlisted := append(append([]string{}, student.WaitlistedIn...), req.SectionID)
	if err := s.students.SetWaitlisted(ctx, studentID, waitlisted); err != nil {
		return appErrors.ErrPartialWrite.Code, s.partialWrite(ctx, "waitlist", req.SectionID, err)
	}

	s.invalidateCatalog(ctx)
	return "ok", nil
}

// Drop removes the student from a section. Dropping a section the student is
// not enrolled in is a successful no-op that leaves the counters untouched.
// Dropping never admits anyone from the waitlist; admission is an explicit
// administrative action.
func (s *RegistrationService) Drop(ctx context.Context, studentID, sectionID string) error {
	outcome, err := s.drop(ctx, studentID, sectionID)
	s.metrics.ObserveRegistration("drop", outcome)
	return err
}

func (s *RegistrationService) drop(ctx context.Context, studentID, sectionID string) (string, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return outcomeOf(err), err
	}
	if !student.IsEnrolledIn(sectionID) {
		return "noop", nil
	}

	if err := s.students.SetEnrolled(ctx, studentID, removeID(student.EnrolledSections, sectionID)); err != nil {
		return outcomeOf(err), s.storageErr(err, "failed to update enrolled ledger")
	}
	if err := s.sections.ReleaseSeat(ctx, sectionID); err != nil {
		return appErrors.ErrPartialWrite.Code, s.partialWrite(ctx, "drop", sectionID, err)
	}

	s.invalidateCatalog(ctx)
	return "ok", nil
}

// RemoveFromWaitlist takes the student off a section's waitlist; symmetric
// to Drop.
func (s *RegistrationService) RemoveFromWaitlist(ctx context.Context, studentID, sectionID string) error {
	outcome, err := s.removeFromWaitlist(ctx, studentID, sectionID)
	s.metrics.ObserveRegistration("remove_waitlist", outcome)
	return err
}

func (s *RegistrationService) removeFromWaitlist(ctx context.Context, studentID, sectionID string) (string, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return outcomeOf(err), err
	}
	if !student.IsWaitlistedIn(sectionID) {
		return "noop", nil
	}

	if err := s.students.SetWaitlisted(ctx, studentID, removeID(student.WaitlistedIn, sectionID)); err != nil {
		return outcomeOf(err), s.storageErr(err, "failed to update waitlist ledger")
	}
	if err := s.sections.ReleaseWaitlistSpot(ctx, sectionID); err != nil {
		return appErrors.ErrPartialWrite.Code, s.partialWrite(ctx, "remove_waitlist", sectionID, err)
	}

	s.invalidateCatalog(ctx)
	return "ok", nil
}

func (s *RegistrationService) loadStudent(ctx context.Context, studentID string) (*models.Student, error) {
	if studentID == "" {
		return nil, appErrors.ErrNotAuthenticated
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, s.storageErr(err, "failed to load student")
	}
	return student, nil
}

func (s *RegistrationService) loadSection(ctx context.Context, sectionID string) (*models.Section, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course section not found")
		}
		return nil, s.storageErr(err, "failed to load section")
	}
	return section, nil
}

// checkConflicts materializes the student's enrolled sections and runs the
// conflict detector against the candidate.
func (s *RegistrationService) checkConflicts(ctx context.Context, student *models.Student, candidate *models.Section) error {
	if len(student.EnrolledSections) == 0 {
		return nil
	}
	enrolled, err := s.sections.FindByIDs(ctx, student.EnrolledSections)
	if err != nil {
		return s.storageErr(err, "failed to load enrolled sections")
	}
	if conflicting := FindConflict(*candidate, enrolled); conflicting != nil {
		return appErrors.WithDetails(appErrors.ErrScheduleConflict, conflictMessage(conflicting), conflictDetail(conflicting))
	}
	return nil
}

// partialWrite records a counter/ledger pair left inconsistent and hands the
// section to the reconciler. The caller still gets an error; the condition
// is never silently absorbed.
func (s *RegistrationService) partialWrite(ctx context.Context, operation, sectionID string, err error) error {
	s.logger.Error("partial write: ledger and counters disagree",
		zap.String("operation", operation),
		zap.String("section_id", sectionID),
		zap.Error(err),
	)
	s.metrics.ObservePartialWrite(operation)
	if s.reconciler != nil {
		s.reconciler.EnqueueSection(sectionID, operation)
	}
	s.invalidateCatalog(ctx)
	return appErrors.Wrap(err, appErrors.ErrPartialWrite.Code, appErrors.ErrPartialWrite.Status, appErrors.ErrPartialWrite.Message)
}

func (s *RegistrationService) storageErr(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, message)
}

func (s *RegistrationService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "catalog:*"); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}

func removeID(ids []string, id string) []string {
	next := make([]string, 0, len(ids))
	for _, candidate := range ids {
		if candidate != id {
			next = append(next, candidate)
		}
	}
	return next
}

// outcomeOf maps an error to a metrics outcome label.
func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return appErrors.FromError(err).Code
}
