package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/service"
	appErrors "github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/errors"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/response"
)

// ScheduleHandler exposes the weekly schedule and export endpoints.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// Week godoc
// @Summary Fetch the weekly schedule grid
// @Tags Schedule
// @Produce json
// @Param today query bool false "Limit the grid to the current weekday"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedule [get]
func (h *ScheduleHandler) Week(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrNotAuthenticated)
		return
	}
	schedule, err := h.schedules.WeekSchedule(c.Request.Context(), claims.UserID, c.Query("today") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Export godoc
// @Summary Download the schedule as CSV or PDF
// @Tags Schedule
// @Produce octet-stream
// @Param format query string true "Export format (csv or pdf)"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrNotAuthenticated)
		return
	}
	data, filename, contentType, err := h.schedules.Export(c.Request.Context(), claims.UserID, c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
