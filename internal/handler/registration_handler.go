package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/service"
	appErrors "github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/errors"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/response"
)

// RegistrationHandler exposes the enrollment endpoints.
type RegistrationHandler struct {
	registrations *service.RegistrationService
}

// NewRegistrationHandler constructs handler.
func NewRegistrationHandler(registrations *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// Register godoc
// @Summary Register for a course section
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body service.RegisterRequest true "Registration payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /registrations [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrNotAuthenticated)
		return
	}

	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.registrations.Register(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "registered", "section_id": req.SectionID}, nil)
}

// Waitlist godoc
// @Summary Join a section waitlist
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body service.WaitlistRequest true "Waitlist payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /waitlists [post]
func (h *RegistrationHandler) Waitlist(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrNotAuthenticated)
		return
	}

	var req service.WaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.registrations.Waitlist(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "waitlisted", "section_id": req.SectionID}, nil)
}

// Drop godoc
// @Summary Drop an enrolled section
// @Tags Registration
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /registrations/{id} [delete]
func (h *RegistrationHandler) Drop(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrNotAuthenticated)
		return
	}
	if err := h.registrations.Drop(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "dropped", "section_id": c.Param("id")}, nil)
}

// RemoveFromWaitlist godoc
// @Summary Leave a section waitlist
// @Tags Registration
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /waitlists/{id} [delete]
func (h *RegistrationHandler) RemoveFromWaitlist(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrNotAuthenticated)
		return
	}
	if err := h.registrations.RemoveFromWaitlist(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "removed from waitlist", "section_id": c.Param("id")}, nil)
}
