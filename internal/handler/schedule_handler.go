package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/roster-booking-api/internal/dto"
	"github.com/noah-isme/roster-booking-api/internal/models"
	"github.com/noah-isme/roster-booking-api/internal/service"
	"github.com/noah-isme/roster-booking-api/pkg/export"
	appErrors "github.com/noah-isme/roster-booking-api/pkg/errors"
	"github.com/noah-isme/roster-booking-api/pkg/response"
)

type scheduleService interface {
	ForOwner(ctx context.Context, ownerID int64, window dto.ScheduleWindow) ([]dto.SessionView, error)
	ForParticipant(ctx context.Context, participantID int64, window dto.ScheduleWindow) ([]dto.SessionView, error)
	ExportOwner(ctx context.Context, ownerID int64, window dto.ScheduleWindow, format export.Format) (*service.ExportFile, error)
}

type participantAccess interface {
	AuthorizeView(ctx context.Context, claims *models.JWTClaims, participantID int64) error
}

// ScheduleHandler exposes read-only schedule views.
type ScheduleHandler struct {
	service scheduleService
	access  participantAccess
}

// NewScheduleHandler builds a new handler.
func NewScheduleHandler(service scheduleService, access participantAccess) *ScheduleHandler {
	return &ScheduleHandler{service: service, access: access}
}

// Owner godoc
// @Summary Sessions owned by an instructor
// @Tags Schedules
// @Produce json
// @Param id path int true "Owner ID"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end, exclusive (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /owners/{id}/schedule [get]
func (h *ScheduleHandler) Owner(c *gin.Context) {
	h.respond(c, h.service.ForOwner)
}

// Participant godoc
// @Summary Sessions a participant is enrolled in
// @Tags Schedules
// @Produce json
// @Param id path int true "Participant ID"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end, exclusive (RFC3339)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /participants/{id}/schedule [get]
func (h *ScheduleHandler) Participant(c *gin.Context) {
	claims := claimsFromContext(c)
	h.respond(c, func(ctx context.Context, id int64, window dto.ScheduleWindow) ([]dto.SessionView, error) {
		if err := h.access.AuthorizeView(ctx, claims, id); err != nil {
			return nil, err
		}
		return h.service.ForParticipant(ctx, id, window)
	})
}

func (h *ScheduleHandler) respond(c *gin.Context, load func(context.Context, int64, dto.ScheduleWindow) ([]dto.SessionView, error)) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	window, err := scheduleWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	views, err := load(c.Request.Context(), id, window)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, map[string]interface{}{"total": len(views)})
}

// Export godoc
// @Summary Export an instructor's schedule
// @Tags Schedules
// @Produce text/csv
// @Produce application/pdf
// @Param id path int true "Owner ID"
// @Param format query string false "csv or pdf"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end, exclusive (RFC3339)"
// @Success 200 {file} file
// @Router /owners/{id}/schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	window, err := scheduleWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	file, err := h.service.ExportOwner(c.Request.Context(), id, window, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Payload)
}
