package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
)

// mockStudentStore is an in-memory stand-in for the student repository.
type mockStudentStore struct {
	students map[string]*models.Student

	failSetEnrolled   error
	failSetWaitlisted error
	failSetLedgers    error
}

func newMockStudentStore(students ...*models.Student) *mockStudentStore {
	store := &mockStudentStore{students: make(map[string]*models.Student)}
	for _, s := range students {
		store.students[s.ID] = s
	}
	return store
}

func (m *mockStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	copied.EnrolledSections = append([]string(nil), s.EnrolledSections...)
	copied.WaitlistedIn = append([]string(nil), s.WaitlistedIn...)
	return &copied, nil
}

func (m *mockStudentStore) SetEnrolled(ctx context.Context, id string, sectionIDs []string) error {
	if m.failSetEnrolled != nil {
		return m.failSetEnrolled
	}
	s, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.EnrolledSections = append([]string(nil), sectionIDs...)
	return nil
}

func (m *mockStudentStore) SetWaitlisted(ctx context.Context, id string, sectionIDs []string) error {
	if m.failSetWaitlisted != nil {
		return m.failSetWaitlisted
	}
	s, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.WaitlistedIn = append([]string(nil), sectionIDs...)
	return nil
}

func (m *mockStudentStore) SetLedgers(ctx context.Context, id string, enrolled, waitlisted []string) error {
	if m.failSetLedgers != nil {
		return m.failSetLedgers
	}
	s, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.EnrolledSections = append([]string(nil), enrolled...)
	s.WaitlistedIn = append([]string(nil), waitlisted...)
	return nil
}

func (m *mockStudentStore) ListWaitlistedFor(ctx context.Context, sectionID string) ([]models.Student, error) {
	var out []models.Student
	for _, s := range m.students {
		for _, id := range s.WaitlistedIn {
			if id == sectionID {
				out = append(out, *s)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStudentStore) CountMemberships(ctx context.Context, sectionID string) (int, int, error) {
	var enrolled, waitlisted int
	for _, s := range m.students {
		for _, id := range s.EnrolledSections {
			if id == sectionID {
				enrolled++
			}
		}
		for _, id := range s.WaitlistedIn {
			if id == sectionID {
				waitlisted++
			}
		}
	}
	return enrolled, waitlisted, nil
}

func (m *mockStudentStore) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, s := range m.students {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

// mockSectionStore is an in-memory stand-in for the section repository. The
// conditional reserve methods mirror the SQL guards.
type mockSectionStore struct {
	mu       sync.Mutex
	sections map[string]*models.Section

	denyReserve       bool
	failReserveSeat   error
	failReleaseSeat   error
	failReleaseSpot   error
	findByIDsErr      error
	reserveSeatCalls  int
	releaseSeatCalls  int
	reserveSpotCalls  int
	releaseSpotCalls  int
}

func newMockSectionStore(sections ...*models.Section) *mockSectionStore {
	store := &mockSectionStore{sections: make(map[string]*models.Section)}
	for _, s := range sections {
		store.sections[s.ID] = s
	}
	return store
}

func (m *mockSectionStore) FindByID(ctx context.Context, id string) (*models.Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sections[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (m *mockSectionStore) FindByIDs(ctx context.Context, ids []string) ([]models.Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findByIDsErr != nil {
		return nil, m.findByIDsErr
	}
	var out []models.Section
	for _, id := range ids {
		if s, ok := m.sections[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSectionStore) ReserveSeat(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denyReserve {
		return false, nil
	}
	m.reserveSeatCalls++
	if m.failReserveSeat != nil {
		return false, m.failReserveSeat
	}
	s, ok := m.sections[id]
	if !ok || s.CapacityCurrent >= s.CapacityMax {
		return false, nil
	}
	s.CapacityCurrent++
	s.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockSectionStore) ReserveSeatIfOpen(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denyReserve {
		return false, nil
	}
	m.reserveSeatCalls++
	if m.failReserveSeat != nil {
		return false, m.failReserveSeat
	}
	s, ok := m.sections[id]
	if !ok || s.CapacityCurrent >= s.CapacityMax || s.WaitlistCurrent > 0 {
		return false, nil
	}
	s.CapacityCurrent++
	s.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockSectionStore) ReserveWaitlistSpot(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denyReserve {
		return false, nil
	}
	m.reserveSpotCalls++
	s, ok := m.sections[id]
	if !ok || s.WaitlistCurrent >= s.WaitlistMax {
		return false, nil
	}
	s.WaitlistCurrent++
	return true, nil
}

func (m *mockSectionStore) ReleaseSeat(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseSeatCalls++
	if m.failReleaseSeat != nil {
		return m.failReleaseSeat
	}
	s, ok := m.sections[id]
	if !ok {
		return nil
	}
	if s.CapacityCurrent > 0 {
		s.CapacityCurrent--
	}
	return nil
}

func (m *mockSectionStore) ReleaseWaitlistSpot(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseSpotCalls++
	if m.failReleaseSpot != nil {
		return m.failReleaseSpot
	}
	s, ok := m.sections[id]
	if !ok {
		return nil
	}
	if s.WaitlistCurrent > 0 {
		s.WaitlistCurrent--
	}
	return nil
}

func (m *mockSectionStore) SetCounters(ctx context.Context, id string, capacityCurrent, waitlistCurrent int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sections[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.CapacityCurrent = capacityCurrent
	s.WaitlistCurrent = waitlistCurrent
	return nil
}

// counters reads a section's live counters under the store lock.
func (m *mockSectionStore) counters(id string) (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sections[id]
	return s.CapacityCurrent, s.WaitlistCurrent
}

type mockInvalidator struct {
	calls    int
	patterns []string
}

func (m *mockInvalidator) DeleteByPattern(ctx context.Context, pattern string) error {
	m.calls++
	m.patterns = append(m.patterns, pattern)
	return nil
}

type mockReconciler struct {
	enqueued []string
	reasons  []string
}

func (m *mockReconciler) EnqueueSection(sectionID, reason string) {
	m.enqueued = append(m.enqueued, sectionID)
	m.reasons = append(m.reasons, reason)
}

var errStoreDown = errors.New("connection refused")
