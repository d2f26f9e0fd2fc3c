package middleware

import (
	"context"
	stdErrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"template-mailer/auth"
	"template-mailer/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newRouter(log *zap.Logger, handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), ErrorHandler(log))
	router.GET("/t", handlers...)
	return router
}

func TestErrorHandler_APIError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := newRouter(zap.New(core), func(c *gin.Context) {
		c.Error(errors.NotFound("template not found", nil))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/t", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"template not found"}`, w.Body.String())
	assert.Equal(t, 1, logs.FilterLevelExact(zap.InfoLevel).Len())
}

func TestErrorHandler_RawErrorIsInternal(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := newRouter(zap.New(core), func(c *gin.Context) {
		c.Error(stdErrors.New("boom"))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/t", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"internal_error"`)
	assert.NotContains(t, w.Body.String(), "boom")
	assert.Equal(t, 1, logs.FilterLevelExact(zap.ErrorLevel).Len())
}

func TestRequestID_PropagatesIncomingHeader(t *testing.T) {
	var seen string
	router := newRouter(zap.NewNop(), func(c *gin.Context) {
		seen = c.GetString(RequestIDKey)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set(RequestIDHeader, "req-incoming-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-incoming-123", seen)
	assert.Equal(t, "req-incoming-123", w.Header().Get(RequestIDHeader))
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	router := newRouter(zap.NewNop(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/t", nil)
	router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestLog_WritesLine(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), RequestLog(zap.New(core)))
	router.GET("/t", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/t", nil)
	router.ServeHTTP(w, req)

	entries := logs.FilterMessage("http_request").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, int64(http.StatusTeapot), fields["status"])
		assert.Equal(t, "/t", fields["path"])
		assert.NotEmpty(t, fields["request_id"])
	}
}

type countingLimiter struct {
	limit int
	seen  map[string]int
}

func (l *countingLimiter) Allow(_ context.Context, key string) bool {
	l.seen[key]++
	return l.seen[key] <= l.limit
}

func TestRateLimit_PerUser(t *testing.T) {
	limiter := &countingLimiter{limit: 1, seen: map[string]int{}}
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler(zap.NewNop()))
	router.GET("/t", func(c *gin.Context) {
		c.Set(auth.ContextEmail, c.Query("u"))
		c.Next()
	}, RateLimit(limiter, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(user string) int {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/t?u="+user, nil)
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("alice"))
	assert.Equal(t, http.StatusTooManyRequests, do("alice"))
	assert.Equal(t, http.StatusOK, do("bob"))
	assert.Equal(t, 2, limiter.seen["alice"])
}

func TestRateLimit_FallsBackToIP(t *testing.T) {
	limiter := &countingLimiter{limit: 5, seen: map[string]int{}}
	router := newRouter(zap.NewNop(), RateLimit(limiter, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/t", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, limiter.seen["ip:10.0.0.7"])
}
