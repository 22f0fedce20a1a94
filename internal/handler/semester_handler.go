package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/subkeeper-api/internal/models"
	"github.com/noah-isme/subkeeper-api/pkg/response"
)

type semesterService interface {
	Create(ctx context.Context, userID int64, req models.CreateSemesterRequest) (*models.Semester, error)
	Delete(ctx context.Context, userID, semesterID int64) error
}

// SemesterHandler handles semester endpoints.
type SemesterHandler struct {
	service semesterService
}

// NewSemesterHandler constructs a semester handler.
func NewSemesterHandler(svc semesterService) *SemesterHandler {
	return &SemesterHandler{service: svc}
}

// Create godoc
// @Summary Create semester
// @Tags Semesters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateSemesterRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /semesters [post]
func (h *SemesterHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid semester payload"))
		return
	}
	semester, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// Delete godoc
// @Summary Delete semester with its subjects and assignments
// @Tags Semesters
// @Security BearerAuth
// @Param semId path int true "Semester ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /semesters/{semId} [delete]
func (h *SemesterHandler) Delete(c *gin.Context) {
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
	if err := h.service.Delete(c.Request.Context(), userID, semesterID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
