package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/middleware"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/service"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/response"
)

type studentStoreStub struct {
	student *models.Student
}

func (s *studentStoreStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s.student == nil || s.student.ID != id {
		return nil, sql.ErrNoRows
	}
	copied := *s.student
	return &copied, nil
}

func (s *studentStoreStub) SetEnrolled(ctx context.Context, id string, sectionIDs []string) error {
	s.student.EnrolledSections = sectionIDs
	return nil
}

func (s *studentStoreStub) SetWaitlisted(ctx context.Context, id string, sectionIDs []string) error {
	s.student.WaitlistedIn = sectionIDs
	return nil
}

type sectionStoreStub struct {
	section *models.Section
}

func (s *sectionStoreStub) FindByID(ctx context.Context, id string) (*models.Section, error) {
	if s.section == nil || s.section.ID != id {
		return nil, sql.ErrNoRows
	}
	copied := *s.section
	return &copied, nil
}

func (s *sectionStoreStub) FindByIDs(ctx context.Context, ids []string) ([]models.Section, error) {
	var out []models.Section
	for _, id := range ids {
		if s.section != nil && s.section.ID == id {
			out = append(out, *s.section)
		}
	}
	return out, nil
}

func (s *sectionStoreStub) ReserveSeatIfOpen(ctx context.Context, id string) (bool, error) {
	if s.section.CapacityCurrent >= s.section.CapacityMax || s.section.WaitlistCurrent > 0 {
		return false, nil
	}
	s.section.CapacityCurrent++
	return true, nil
}

func (s *sectionStoreStub) ReserveWaitlistSpot(ctx context.Context, id string) (bool, error) {
	if s.section.WaitlistCurrent >= s.section.WaitlistMax {
		return false, nil
	}
	s.section.WaitlistCurrent++
	return true, nil
}

func (s *sectionStoreStub) ReleaseSeat(ctx context.Context, id string) error {
	if s.section.CapacityCurrent > 0 {
		s.section.CapacityCurrent--
	}
	return nil
}

func (s *sectionStoreStub) ReleaseWaitlistSpot(ctx context.Context, id string) error {
	if s.section.WaitlistCurrent > 0 {
		s.section.WaitlistCurrent--
	}
	return nil
}

func newRegistrationHandlerFixture(student *models.Student, section *models.Section) *RegistrationHandler {
	svc := service.NewRegistrationService(
		&studentStoreStub{student: student},
		&sectionStoreStub{section: section},
		nil, nil, nil, nil, nil,
	)
	return NewRegistrationHandler(svc)
}

func registerRequest(t *testing.T, c *gin.Context, sectionID string) {
	t.Helper()
	body, err := json.Marshal(service.RegisterRequest{SectionID: sectionID})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, "/registrations", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
}

func TestRegistrationHandlerRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("success", func(t *testing.T) {
		h := newRegistrationHandlerFixture(
			&models.Student{ID: "s1", Role: models.RoleStudent},
			&models.Section{ID: "sec1", Days: "MW", TimeSlot: "10:00 AM", CapacityMax: 30},
		)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		registerRequest(t, c, "sec1")
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})

		h.Register(c)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("no claims yields 401", func(t *testing.T) {
		h := newRegistrationHandlerFixture(nil, nil)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		registerRequest(t, c, "sec1")

		h.Register(c)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed body yields 400", func(t *testing.T) {
		h := newRegistrationHandlerFixture(nil, nil)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		req, _ := http.NewRequest(http.MethodPost, "/registrations", bytes.NewReader([]byte(`{`)))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})

		h.Register(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("full section yields 409 with error envelope", func(t *testing.T) {
		h := newRegistrationHandlerFixture(
			&models.Student{ID: "s1", Role: models.RoleStudent},
			&models.Section{ID: "sec1", Days: "MW", TimeSlot: "10:00 AM", CapacityMax: 1, CapacityCurrent: 1},
		)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		registerRequest(t, c, "sec1")
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})

		h.Register(c)
		assert.Equal(t, http.StatusConflict, w.Code)

		var envelope response.Envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		require.NotNil(t, envelope.Error)
		assert.Equal(t, "SECTION_FULL", envelope.Error.Code)
	})
}

func TestRegistrationHandlerDrop(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := newRegistrationHandlerFixture(
		&models.Student{ID: "s1", Role: models.RoleStudent, EnrolledSections: []string{"sec1"}},
		&models.Section{ID: "sec1", Days: "MW", TimeSlot: "10:00 AM", CapacityMax: 30, CapacityCurrent: 1},
	)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/registrations/sec1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sec1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})

	h.Drop(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
