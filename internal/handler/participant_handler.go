package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/roster-booking-api/pkg/response"
)

type participantService interface {
	Remove(ctx context.Context, id int64) (bool, error)
}

// ParticipantHandler exposes participant lifecycle endpoints.
type ParticipantHandler struct {
	service participantService
}

// NewParticipantHandler builds a new handler.
func NewParticipantHandler(service participantService) *ParticipantHandler {
	return &ParticipantHandler{service: service}
}

// Remove godoc
// @Summary Remove a participant and everything that references it
// @Tags Participants
// @Produce json
// @Param id path int true "Participant ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /participants/{id} [delete]
func (h *ParticipantHandler) Remove(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	removed, err := h.service.Remove(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Removed(c, boolCount(removed))
}
