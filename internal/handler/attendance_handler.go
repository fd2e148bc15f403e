package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/roster-booking-api/internal/dto"
	"github.com/noah-isme/roster-booking-api/internal/models"
	appErrors "github.com/noah-isme/roster-booking-api/pkg/errors"
	"github.com/noah-isme/roster-booking-api/pkg/response"
)

type attendanceService interface {
	Mark(ctx context.Context, req dto.MarkAttendanceRequest) (*models.AttendanceRecord, error)
	ListForSession(ctx context.Context, lessonID int64) ([]models.SessionAttendanceRow, error)
}

// AttendanceHandler exposes per-lesson attendance endpoints.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler builds a new handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Mark godoc
// @Summary Record the attendance outcome of one participant
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param payload body dto.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id}/attendance [put]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	lessonID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	req.LessonID = lessonID
	if claims := claimsFromContext(c); claims != nil {
		req.ActorID = claims.UserID
	}
	record, err := h.service.Mark(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// List godoc
// @Summary Attendance sheet of a lesson
// @Tags Attendance
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id}/attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	lessonID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.service.ListForSession(c.Request.Context(), lessonID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows)
}
