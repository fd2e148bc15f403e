package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type observedRequest struct {
	method string
	path   string
	status int
}

type recordingObserver struct {
	requests []observedRequest
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.requests = append(r.requests, observedRequest{method: method, path: path, status: status})
}

func TestMetricsRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	router := gin.New()
	router.Use(Metrics(observer, "/metrics"))
	router.GET("/lessons/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/lessons/41", "/lessons/42", "/metrics", "/nowhere/7"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, []observedRequest{
		{method: http.MethodGet, path: "/lessons/:id", status: http.StatusOK},
		{method: http.MethodGet, path: "/lessons/:id", status: http.StatusOK},
		{method: http.MethodGet, path: unmatchedRoute, status: http.StatusNotFound},
	}, observer.requests)
}
