package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func serveWith(l *zap.Logger, path string, status int) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(l))
	r.GET(path, func(c *gin.Context) { c.Status(status) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
}

func TestGinMiddlewareLogsRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	serveWith(zap.New(core), "/student/mood", http.StatusOK)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request completed", entry.Message)
	assert.Equal(t, zap.InfoLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "/student/mood", fields["route"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
}

func TestGinMiddlewareSkipsHealth(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	serveWith(zap.New(core), "/health", http.StatusOK)

	assert.Equal(t, 0, logs.Len())
}

func TestGinMiddlewareServerErrorLevel(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	serveWith(zap.New(core), "/student/appointments", http.StatusInternalServerError)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zap.ErrorLevel, logs.All()[0].Level)
}
