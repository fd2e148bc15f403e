package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/roster-booking-api/internal/dto"
	"github.com/noah-isme/roster-booking-api/internal/middleware"
	"github.com/noah-isme/roster-booking-api/internal/models"
	appErrors "github.com/noah-isme/roster-booking-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func int64Param(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}

func timeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, name+" must be an RFC3339 timestamp")
	}
	return &t, nil
}

func scheduleWindow(c *gin.Context) (dto.ScheduleWindow, error) {
	from, err := timeQuery(c, "from")
	if err != nil {
		return dto.ScheduleWindow{}, err
	}
	to, err := timeQuery(c, "to")
	if err != nil {
		return dto.ScheduleWindow{}, err
	}
	return dto.ScheduleWindow{From: from, To: to}, nil
}
