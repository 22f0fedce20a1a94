package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/subkeeper-api/internal/models"
	"github.com/noah-isme/subkeeper-api/pkg/response"
)

type subjectService interface {
	Create(ctx context.Context, userID, semesterID int64, req models.CreateSubjectRequest) (*models.Subject, error)
	Delete(ctx context.Context, userID, subjectID int64) error
}

// SubjectHandler handles subject endpoints.
type SubjectHandler struct {
	service subjectService
}

// NewSubjectHandler constructs a subject handler.
func NewSubjectHandler(svc subjectService) *SubjectHandler {
	return &SubjectHandler{service: svc}
}

// Create godoc
// @Summary Create subject in a semester
// @Tags Subjects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param semId path int true "Semester ID"
// @Param payload body models.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /semesters/{semId}/subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
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
	var req models.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid subject payload"))
		return
	}
	subject, err := h.service.Create(c.Request.Context(), userID, semesterID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// Delete godoc
// @Summary Delete subject with its assignments
// @Tags Subjects
// @Security BearerAuth
// @Param subId path int true "Subject ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /subjects/{subId} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	subjectID, err := idParam(c, "subId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, subjectID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
