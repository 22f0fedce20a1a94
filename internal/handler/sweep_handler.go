package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/subkeeper-api/internal/models"
	appErrors "github.com/noah-isme/subkeeper-api/pkg/errors"
	"github.com/noah-isme/subkeeper-api/pkg/response"
)

type sweepDispatcher interface {
	Dispatch(source string) (*models.SweepTicket, error)
}

// SweepHandler exposes manual due-soon sweeps to configured operators.
type SweepHandler struct {
	dispatcher sweepDispatcher
	operators  map[int64]struct{}
}

// NewSweepHandler constructs a SweepHandler. Only users listed in operatorIDs
// may trigger a sweep.
func NewSweepHandler(dispatcher sweepDispatcher, operatorIDs []int64) *SweepHandler {
	operators := make(map[int64]struct{}, len(operatorIDs))
	for _, id := range operatorIDs {
		operators[id] = struct{}{}
	}
	return &SweepHandler{dispatcher: dispatcher, operators: operators}
}

// Trigger godoc
// @Summary Enqueue an immediate due-soon sweep
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 202 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /admin/sweeps [post]
func (h *SweepHandler) Trigger(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if _, ok := h.operators[claims.UserID]; !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "sweeps can only be triggered by operators"))
		return
	}
	ticket, err := h.dispatcher.Dispatch("api:user:" + strconv.FormatInt(claims.UserID, 10))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, ticket)
}
