package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roster-booking-api/internal/dto"
	"github.com/noah-isme/roster-booking-api/internal/models"
	appErrors "github.com/noah-isme/roster-booking-api/pkg/errors"
)

type lessonServiceMock struct {
	createCalled bool
	createResp   *dto.LessonSeriesResult
	createErr    error
	getErr       error
	deleted      bool
	seriesReq    dto.DeleteSeriesRequest
	seriesCount  int64
}

func (m *lessonServiceMock) CreateSeries(ctx context.Context, req dto.CreateLessonRequest) (*dto.LessonSeriesResult, error) {
	m.createCalled = true
	return m.createResp, m.createErr
}

func (m *lessonServiceMock) Get(ctx context.Context, id int64) (*models.Lesson, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &models.Lesson{ID: id}, nil
}

func (m *lessonServiceMock) ListSeries(ctx context.Context, groupID string) ([]models.Lesson, error) {
	return []models.Lesson{{ID: 1}, {ID: 2}}, nil
}

func (m *lessonServiceMock) DeleteSession(ctx context.Context, id int64) (bool, error) {
	return m.deleted, nil
}

func (m *lessonServiceMock) DeleteSeriesFrom(ctx context.Context, req dto.DeleteSeriesRequest) (int64, error) {
	m.seriesReq = req
	return m.seriesCount, nil
}

func newLessonRouter(svc lessonService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewLessonHandler(svc)
	r := gin.New()
	r.POST("/lessons", h.Create)
	r.GET("/lessons/:id", h.Get)
	r.DELETE("/lessons/:id", h.Delete)
	r.GET("/lesson-series/:groupId", h.ListSeries)
	r.DELETE("/lesson-series/:groupId", h.DeleteSeries)
	return r
}

func decodeRemoval(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Data
}

func TestLessonHandlerCreateRejectsSoloWithTwoParticipants(t *testing.T) {
	svc := &lessonServiceMock{}
	router := newLessonRouter(svc)

	body := `{"ownerId":1,"participantIds":[2,3],"subjectId":4,"firstStart":"2025-01-06T09:00:00Z","durationMinutes":60,"occurrenceCount":1,"kind":"solo"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/lessons", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, svc.createCalled)
}

func TestLessonHandlerCreate(t *testing.T) {
	svc := &lessonServiceMock{createResp: &dto.LessonSeriesResult{ParticipantIDs: []int64{2}}}
	router := newLessonRouter(svc)

	body := `{"ownerId":1,"participantIds":[2],"subjectId":4,"firstStart":"2025-01-06T09:00:00Z","durationMinutes":60,"occurrenceCount":3,"kind":"solo"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/lessons", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, svc.createCalled)
}

func TestLessonHandlerDeleteMissingIsNoOp(t *testing.T) {
	router := newLessonRouter(&lessonServiceMock{deleted: false})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/lessons/42", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeRemoval(t, rec.Body.Bytes())
	assert.Equal(t, false, data["removed"])
	assert.Equal(t, float64(0), data["count"])
}

func TestLessonHandlerGetNotFound(t *testing.T) {
	router := newLessonRouter(&lessonServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "lesson not found")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lessons/42", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lessons/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLessonHandlerDeleteSeries(t *testing.T) {
	svc := &lessonServiceMock{seriesCount: 3}
	router := newLessonRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/lesson-series/group-1?from=2025-02-03T00:00:00Z", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "group-1", svc.seriesReq.RecurrenceGroupID)
	assert.True(t, svc.seriesReq.From.Equal(time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)))
	data := decodeRemoval(t, rec.Body.Bytes())
	assert.Equal(t, true, data["removed"])
	assert.Equal(t, float64(3), data["count"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/lesson-series/group-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
