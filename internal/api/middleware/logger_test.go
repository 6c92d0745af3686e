package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedRouter(buf *bytes.Buffer) *gin.Engine {
	log := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	router := gin.New()
	router.Use(CorrelationID())
	router.Use(Logger(log))
	return router
}

func TestLogger_RequestLine(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	router := loggedRouter(&buf)
	router.GET("/installments", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	correlationID := uuid.New().String()
	req, _ := http.NewRequest(http.MethodGet, "/installments?status=pending", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(CorrelationIDHeader, correlationID)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	line := buf.String()
	require.NotEmpty(t, line)
	assert.Contains(t, line, `"level":"INFO"`)
	assert.Contains(t, line, `"msg":"HTTP request"`)
	assert.Contains(t, line, `"method":"GET"`)
	assert.Contains(t, line, `"path":"/installments?status=pending"`)
	assert.Contains(t, line, `"status":200`)
	assert.Contains(t, line, `"latency":`)
	assert.Contains(t, line, `"client_ip":`)
	assert.Contains(t, line, `"user_agent":"test-agent"`)
	assert.Contains(t, line, `"correlation_id":"`+correlationID+`"`)
}

func TestLogger_GeneratedCorrelationIDIsLogged(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	router := loggedRouter(&buf)
	router.POST("/installments", func(c *gin.Context) {
		c.String(http.StatusCreated, "Created")
	})

	req, _ := http.NewRequest(http.MethodPost, "/installments", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	line := buf.String()
	assert.Contains(t, line, `"msg":"HTTP request"`)
	assert.Contains(t, line, `"method":"POST"`)
	assert.Contains(t, line, `"status":201`)
	assert.Contains(t, line, `"correlation_id":`)
}
