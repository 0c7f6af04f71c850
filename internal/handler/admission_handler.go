package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/service"
	appErrors "github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/errors"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/response"
)

// AdmissionHandler exposes the admin waitlist-admission endpoints.
type AdmissionHandler struct {
	admissions *service.AdmissionService
}

// NewAdmissionHandler constructs handler.
func NewAdmissionHandler(admissions *service.AdmissionService) *AdmissionHandler {
	return &AdmissionHandler{admissions: admissions}
}

// AdmitRequest names the waitlisted student to admit.
type AdmitRequest struct {
	StudentID string `json:"student_id" binding:"required"`
}

// ListWaitlist godoc
// @Summary List students waitlisted for a section
// @Tags Admissions
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/sections/{id}/waitlist [get]
func (h *AdmissionHandler) ListWaitlist(c *gin.Context) {
	students, err := h.admissions.ListWaitlisted(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Admit godoc
// @Summary Admit a waitlisted student into a section
// @Tags Admissions
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body handler.AdmitRequest true "Admission payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/sections/{id}/admissions [post]
func (h *AdmissionHandler) Admit(c *gin.Context) {
	var req AdmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.admissions.Admit(c.Request.Context(), c.Param("id"), req.StudentID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "admitted", "student_id": req.StudentID}, nil)
}
