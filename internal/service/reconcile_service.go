package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/jobs"
)

type membershipCounter interface {
	CountMemberships(ctx context.Context, sectionID string) (enrolled int, waitlisted int, err error)
}

type counterWriter interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	SetCounters(ctx context.Context, id string, capacityCurrent, waitlistCurrent int) error
}

// ReconcileConfig tunes the reconciliation worker pool.
type ReconcileConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// ReconcileService repairs sections whose counters drifted from the student
// ledgers after a partial write. The ledgers are the source of truth: the
// worker recounts memberships across all students and rewrites the section
// counters to match.
type ReconcileService struct {
	students membershipCounter
	sections counterWriter
	cache    catalogInvalidator
	queue    *jobs.Queue
	logger   *zap.Logger
}

// NewReconcileService builds the service and its backing queue. Start must
// be called before sections can be enqueued.
func NewReconcileService(students membershipCounter, sections counterWriter, cache catalogInvalidator, cfg ReconcileConfig, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReconcileService{
		students: students,
		sections: sections,
		cache:    cache,
		logger:   logger,
	}
	s.queue = jobs.NewQueue("reconcile", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool.
func (s *ReconcileService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *ReconcileService) Stop() {
	s.queue.Stop()
}

// EnqueueSection schedules a recount for the section. Failures to enqueue
// are logged, not returned; a caller reporting a partial write must not be
// masked by a full reconcile queue.
func (s *ReconcileService) EnqueueSection(sectionID, reason string) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    reason,
		Payload: sectionID,
	})
	if err != nil {
		s.logger.Error("failed to enqueue reconciliation",
			zap.String("section_id", sectionID),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
}

// Reconcile recounts one section synchronously. Used by the queue handler
// and exposed for the admin endpoint.
func (s *ReconcileService) Reconcile(ctx context.Context, sectionID string) error {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The section was deleted after the job was enqueued.
			s.logger.Warn("skipping reconciliation of missing section", zap.String("section_id", sectionID))
			return nil
		}
		return err
	}

	enrolled, waitlisted, err := s.students.CountMemberships(ctx, sectionID)
	if err != nil {
		return err
	}
	// The ledgers win even when the recount exceeds capacity_max; the
	// oversubscription itself needs operator action, not a masked counter.
	if enrolled > section.CapacityMax {
		s.logger.Warn("ledger count exceeds section capacity",
			zap.String("section_id", sectionID),
			zap.Int("enrolled", enrolled),
			zap.Int("capacity_max", section.CapacityMax),
		)
	}

	if enrolled == section.CapacityCurrent && waitlisted == section.WaitlistCurrent {
		return nil
	}
	s.logger.Info("repairing section counters",
		zap.String("section_id", sectionID),
		zap.Int("capacity_current", section.CapacityCurrent),
		zap.Int("capacity_recount", enrolled),
		zap.Int("waitlist_current", section.WaitlistCurrent),
		zap.Int("waitlist_recount", waitlisted),
	)
	if err := s.sections.SetCounters(ctx, sectionID, enrolled, waitlisted); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "catalog:*"); err != nil {
			s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
		}
	}
	return nil
}

func (s *ReconcileService) handle(ctx context.Context, job jobs.Job) error {
	sectionID, ok := job.Payload.(string)
	if !ok {
		s.logger.Error("reconcile job carries unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.Reconcile(ctx, sectionID)
}
