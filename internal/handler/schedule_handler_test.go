package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roster-booking-api/internal/dto"
	"github.com/noah-isme/roster-booking-api/internal/middleware"
	"github.com/noah-isme/roster-booking-api/internal/models"
	"github.com/noah-isme/roster-booking-api/internal/service"
	"github.com/noah-isme/roster-booking-api/pkg/export"
)

type scheduleServiceMock struct {
	window       dto.ScheduleWindow
	format       export.Format
	participants []int64
}

func (m *scheduleServiceMock) ForOwner(ctx context.Context, ownerID int64, window dto.ScheduleWindow) ([]dto.SessionView, error) {
	m.window = window
	return []dto.SessionView{{LessonID: 1, OwnerID: ownerID}}, nil
}

func (m *scheduleServiceMock) ForParticipant(ctx context.Context, participantID int64, window dto.ScheduleWindow) ([]dto.SessionView, error) {
	m.window = window
	m.participants = append(m.participants, participantID)
	return nil, nil
}

func (m *scheduleServiceMock) ExportOwner(ctx context.Context, ownerID int64, window dto.ScheduleWindow, format export.Format) (*service.ExportFile, error) {
	m.format = format
	return &service.ExportFile{Filename: "schedule.csv", ContentType: format.ContentType(), Payload: []byte("a,b\n")}, nil
}

// participantLinks answers scope lookups from fixed participant id lists.
type participantLinks map[models.ParticipantScope][]int64

func (l participantLinks) Remove(ctx context.Context, id int64) (bool, error) {
	return false, nil
}

func (l participantLinks) InScope(ctx context.Context, participantID int64, scope models.ParticipantScope) (bool, error) {
	for _, id := range l[scope] {
		if id == participantID {
			return true, nil
		}
	}
	return false, nil
}

func newScheduleRouter(svc scheduleService) *gin.Engine {
	return newScheduleRouterAs(svc, participantLinks{}, &models.JWTClaims{UserID: 1, Role: models.RoleAdmin})
}

// newScheduleRouterAs mounts the handler behind the same role gate the API uses.
func newScheduleRouterAs(svc scheduleService, links participantLinks, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewScheduleHandler(svc, service.NewParticipantService(links, nil, nil))
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, claims)
		c.Next()
	})
	r.GET("/owners/:id/schedule", h.Owner)
	r.GET("/owners/:id/schedule/export", h.Export)
	r.GET("/participants/:id/schedule",
		middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher, models.RoleManager, models.RoleStudent),
		h.Participant)
	return r
}

func TestScheduleHandlerParsesWindow(t *testing.T) {
	svc := &scheduleServiceMock{}
	router := newScheduleRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/owners/3/schedule?from=2025-01-01T00:00:00Z", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.window.From)
	assert.Nil(t, svc.window.To)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/participants/3/schedule?to=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleHandlerExport(t *testing.T) {
	svc := &scheduleServiceMock{}
	router := newScheduleRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/owners/3/schedule/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.FormatCSV, svc.format)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "schedule.csv")
	assert.Equal(t, "a,b\n", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/owners/3/schedule/export?format=xlsx", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleHandlerParticipantAccess(t *testing.T) {
	links := participantLinks{
		{Kind: models.ScopeGuardian, OwnerID: 12}: {41},
		{Kind: models.ScopeSelf, OwnerID: 5}:      {88},
	}
	cases := []struct {
		name   string
		claims *models.JWTClaims
		path   string
		want   int
	}{
		{"student user id matching an unrelated participant", &models.JWTClaims{UserID: 5, Role: models.RoleStudent}, "/participants/5/schedule", http.StatusForbidden},
		{"student own participant record", &models.JWTClaims{UserID: 5, Role: models.RoleStudent}, "/participants/88/schedule", http.StatusOK},
		{"unlinked manager", &models.JWTClaims{UserID: 77, Role: models.RoleManager}, "/participants/999/schedule", http.StatusForbidden},
		{"guardian manager", &models.JWTClaims{UserID: 12, Role: models.RoleManager}, "/participants/41/schedule", http.StatusOK},
		{"teacher", &models.JWTClaims{UserID: 3, Role: models.RoleTeacher}, "/participants/999/schedule", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &scheduleServiceMock{}
			router := newScheduleRouterAs(svc, links, tc.claims)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusForbidden {
				assert.Empty(t, svc.participants)
			} else {
				assert.Len(t, svc.participants, 1)
			}
		})
	}
}
