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

type activityService interface {
	Create(ctx context.Context, req dto.CreateActivityRequest) (*models.Activity, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type bookingService interface {
	ListEligible(ctx context.Context, activityID int64) ([]dto.EligibleParticipant, error)
	ListBooked(ctx context.Context, activityID int64) ([]models.BookingSummary, error)
	Book(ctx context.Context, req dto.BookActivityRequest) (*models.ActivityBooking, error)
	Cancel(ctx context.Context, bookingID int64) (bool, error)
	ManagerView(ctx context.Context, managerID int64) ([]dto.ActivityView, error)
	TeacherView(ctx context.Context, teacherID int64) ([]dto.ActivityView, error)
}

// ActivityHandler exposes activity management and booking endpoints.
type ActivityHandler struct {
	activities activityService
	bookings   bookingService
}

// NewActivityHandler builds a new handler.
func NewActivityHandler(activities activityService, bookings bookingService) *ActivityHandler {
	return &ActivityHandler{activities: activities, bookings: bookings}
}

// Create godoc
// @Summary Create an activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param payload body dto.CreateActivityRequest true "Activity payload"
// @Success 201 {object} response.Envelope
// @Router /activities [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	var req dto.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	activity, err := h.activities.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}

// Delete godoc
// @Summary Delete an activity with its bookings
// @Tags Activities
// @Produce json
// @Param id path int true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activities/{id} [delete]
func (h *ActivityHandler) Delete(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	removed, err := h.activities.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Removed(c, boolCount(removed))
}

// Eligible godoc
// @Summary Participants currently eligible and not yet booked
// @Tags Activities
// @Produce json
// @Param id path int true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activities/{id}/eligible [get]
func (h *ActivityHandler) Eligible(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.bookings.ListEligible(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Booked godoc
// @Summary Bookings of an activity in booking order
// @Tags Activities
// @Produce json
// @Param id path int true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activities/{id}/bookings [get]
func (h *ActivityHandler) Booked(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.bookings.ListBooked(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Book godoc
// @Summary Book a participant onto an activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path int true "Activity ID"
// @Param payload body dto.BookActivityRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /activities/{id}/bookings [post]
func (h *ActivityHandler) Book(c *gin.Context) {
	activityID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.BookActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	req.ActivityID = activityID
	if claims := claimsFromContext(c); claims != nil {
		req.ActingStaffID = claims.UserID
	}
	booking, err := h.bookings.Book(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// Cancel godoc
// @Summary Cancel a booking
// @Tags Activities
// @Produce json
// @Param id path int true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [delete]
func (h *ActivityHandler) Cancel(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	removed, err := h.bookings.Cancel(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Removed(c, boolCount(removed))
}

// Mine godoc
// @Summary Upcoming activities for the caller's participants
// @Tags Activities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/activities [get]
func (h *ActivityHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var (
		views []dto.ActivityView
		err   error
	)
	switch claims.Role {
	case models.RoleManager:
		views, err = h.bookings.ManagerView(c.Request.Context(), claims.UserID)
	case models.RoleTeacher:
		views, err = h.bookings.TeacherView(c.Request.Context(), claims.UserID)
	default:
		err = appErrors.ErrForbidden
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, map[string]interface{}{"total": len(views)})
}

func boolCount(removed bool) int64 {
	if removed {
		return 1
	}
	return 0
}
