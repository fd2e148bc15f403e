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

type lessonService interface {
	CreateSeries(ctx context.Context, req dto.CreateLessonRequest) (*dto.LessonSeriesResult, error)
	Get(ctx context.Context, id int64) (*models.Lesson, error)
	ListSeries(ctx context.Context, groupID string) ([]models.Lesson, error)
	DeleteSession(ctx context.Context, id int64) (bool, error)
	DeleteSeriesFrom(ctx context.Context, req dto.DeleteSeriesRequest) (int64, error)
}

// LessonHandler exposes lesson and lesson series endpoints.
type LessonHandler struct {
	service lessonService
}

// NewLessonHandler builds a new handler.
func NewLessonHandler(service lessonService) *LessonHandler {
	return &LessonHandler{service: service}
}

// Create godoc
// @Summary Create a lesson or a weekly lesson series
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req dto.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	if err := req.CheckParticipantRule(); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	result, err := h.service.CreateSeries(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Get godoc
// @Summary Get a lesson
// @Tags Lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	lesson, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson)
}

// Delete godoc
// @Summary Delete one lesson with its enrollments and attendance
// @Tags Lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	removed, err := h.service.DeleteSession(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Removed(c, boolCount(removed))
}

// ListSeries godoc
// @Summary List the lessons of a recurrence group
// @Tags Lessons
// @Produce json
// @Param groupId path string true "Recurrence group ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lesson-series/{groupId} [get]
func (h *LessonHandler) ListSeries(c *gin.Context) {
	lessons, err := h.service.ListSeries(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, map[string]interface{}{"total": len(lessons)})
}

// DeleteSeries godoc
// @Summary Delete the lessons of a series starting at or after a cutoff
// @Tags Lessons
// @Produce json
// @Param groupId path string true "Recurrence group ID"
// @Param from query string true "Cutoff instant (RFC3339)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lesson-series/{groupId} [delete]
func (h *LessonHandler) DeleteSeries(c *gin.Context) {
	from, err := timeQuery(c, "from")
	if err != nil {
		response.Error(c, err)
		return
	}
	if from == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from is required"))
		return
	}
	count, err := h.service.DeleteSeriesFrom(c.Request.Context(), dto.DeleteSeriesRequest{
		RecurrenceGroupID: c.Param("groupId"),
		From:              *from,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Removed(c, count)
}
