package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/subkeeper-api/internal/models"
	appErrors "github.com/noah-isme/subkeeper-api/pkg/errors"
	"github.com/noah-isme/subkeeper-api/pkg/response"
)

type assignmentService interface {
	Create(ctx context.Context, userID, subjectID int64, req models.CreateAssignmentRequest) (*models.Assignment, error)
	Update(ctx context.Context, userID, assignmentID int64, req models.UpdateAssignmentRequest) (*models.Assignment, error)
	ApplyCompletion(ctx context.Context, userID, assignmentID int64, flag int) (*models.Assignment, error)
	Delete(ctx context.Context, userID, assignmentID int64) error
}

// AssignmentHandler handles assignment endpoints.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler constructs an assignment handler.
func NewAssignmentHandler(svc assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// Create godoc
// @Summary Create assignment
// @Description New assignments start incomplete; the daily sweep promotes them once due soon
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subId path int true "Subject ID"
// @Param payload body models.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subjects/{subId}/assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
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
	var req models.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid assignment payload"))
		return
	}
	assignment, err := h.service.Create(c.Request.Context(), userID, subjectID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Update godoc
// @Summary Edit assignment fields
// @Description Completed assignments stay completed; open ones are re-evaluated against the due-soon window
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignId path int true "Assignment ID"
// @Param payload body models.UpdateAssignmentRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments/{assignId} [patch]
func (h *AssignmentHandler) Update(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	assignmentID, err := idParam(c, "assignId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid assignment payload"))
		return
	}
	assignment, err := h.service.Update(c.Request.Context(), userID, assignmentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment)
}

// UpdateState godoc
// @Summary Complete or reopen assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignId path int true "Assignment ID"
// @Param payload body models.UpdateStateRequest true "1 completes, 0 reopens"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments/{assignId}/state [patch]
func (h *AssignmentHandler) UpdateState(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	assignmentID, err := idParam(c, "assignId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.UpdateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid state payload"))
		return
	}
	if req.State == nil || (*req.State != 0 && *req.State != 1) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "state must be 0 or 1"))
		return
	}
	assignment, err := h.service.ApplyCompletion(c.Request.Context(), userID, assignmentID, int(*req.State))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment)
}

// Delete godoc
// @Summary Delete assignment
// @Tags Assignments
// @Security BearerAuth
// @Param assignId path int true "Assignment ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /assignments/{assignId} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	assignmentID, err := idParam(c, "assignId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, assignmentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
