package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/subkeeper-api/internal/models"
	"github.com/noah-isme/subkeeper-api/internal/service"
	appErrors "github.com/noah-isme/subkeeper-api/pkg/errors"
	"github.com/noah-isme/subkeeper-api/pkg/response"
)

type dashboardService interface {
	GetDashboard(ctx context.Context, userID int64, semesterID *int64, filter models.AssignmentFilter) (*models.DashboardView, error)
	GetCalendar(ctx context.Context, userID, semesterID int64) (*models.CalendarView, error)
}

type calendarExporter interface {
	ExportCalendar(ctx context.Context, userID, semesterID int64, format string) (*service.ExportFile, error)
}

// DashboardHandler serves the dashboard and calendar read views.
type DashboardHandler struct {
	service  dashboardService
	exporter calendarExporter
}

// NewDashboardHandler constructs the handler. A nil exporter disables the
// calendar export endpoint.
func NewDashboardHandler(service dashboardService, exporter calendarExporter) *DashboardHandler {
	return &DashboardHandler{service: service, exporter: exporter}
}

// Latest godoc
// @Summary Dashboard of the most recent semester
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param subjectId query int false "Only assignments of this subject"
// @Param category query string false "Comma separated categories (0 assignment, 1 lecture, 2 todo)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Latest(c *gin.Context) {
	h.dashboard(c, nil)
}

// ForSemester godoc
// @Summary Dashboard of a semester
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param semId path int true "Semester ID"
// @Param subjectId query int false "Only assignments of this subject"
// @Param category query string false "Comma separated categories (0 assignment, 1 lecture, 2 todo)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /semesters/{semId}/dashboard [get]
func (h *DashboardHandler) ForSemester(c *gin.Context) {
	semesterID, err := idParam(c, "semId")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.dashboard(c, &semesterID)
}

func (h *DashboardHandler) dashboard(c *gin.Context, semesterID *int64) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter, err := parseAssignmentFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.GetDashboard(c.Request.Context(), userID, semesterID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, map[string]interface{}{
		"incomplete_count": len(view.Incomplete),
		"complete_count":   len(view.Complete),
	})
}

// Calendar godoc
// @Summary Semester calendar ordered by due date
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param semId path int true "Semester ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /semesters/{semId}/calendar [get]
func (h *DashboardHandler) Calendar(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	semesterID, err := idParam(c, "semId")
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.GetCalendar(c.Request.Context(), userID, semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// ExportCalendar godoc
// @Summary Download semester calendar
// @Tags Dashboard
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param semId path int true "Semester ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /semesters/{semId}/calendar/export [get]
func (h *DashboardHandler) ExportCalendar(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "calendar export is disabled"))
		return
	}
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	semesterID, err := idParam(c, "semId")
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.ExportCalendar(c.Request.Context(), userID, semesterID, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// parseAssignmentFilter reads subjectId and category. Categories may be given
// as a comma separated list, repeated, or both.
func parseAssignmentFilter(c *gin.Context) (models.AssignmentFilter, error) {
	var filter models.AssignmentFilter
	if raw := strings.TrimSpace(c.Query("subjectId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, appErrors.Clone(appErrors.ErrValidation, "subjectId must be a positive integer")
		}
		filter.SubjectID = &id
	}
	for _, value := range c.QueryArray("category") {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.ParseInt(part, 10, 16)
			category := models.Category(n)
			if err != nil || !category.Valid() {
				return filter, appErrors.Clone(appErrors.ErrValidation, "category must be 0, 1 or 2")
			}
			filter.Categories = append(filter.Categories, category)
		}
	}
	return filter, nil
}
