package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"template-mailer/auth"
	"template-mailer/internal/errors"
	"template-mailer/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockService is a mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) BeginLogin(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockService) CompleteLogin(ctx context.Context, state, code string) (string, *Identity, error) {
	args := m.Called(ctx, state, code)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*Identity), args.Error(2)
}

func (m *MockService) Logout(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func setupRouter(handler *Handler, signedIn bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler(zap.NewNop()))

	router.GET("/auth/login", handler.Login)
	router.GET("/auth/callback", handler.Callback)

	authed := router.Group("/")
	authed.Use(func(c *gin.Context) {
		if signedIn {
			c.Set(auth.ContextSessionID, "sid-1")
			c.Set(auth.ContextEmail, "alice@example.com")
			c.Set(auth.ContextName, "Alice")
			c.Set(auth.ContextAccessToken, "ya29.token")
		}
		c.Next()
	})
	authed.DELETE("/auth/logout", handler.Logout)
	authed.GET("/me", handler.GetProfile)

	return router
}

func newTestHandler(svc Service) *Handler {
	return NewHandler(svc, "http://localhost:3000", time.Hour, false)
}

func TestLogin_Redirects(t *testing.T) {
	svc := new(MockService)
	svc.On("BeginLogin", mock.Anything).Return("https://accounts.example/consent?state=s", nil)
	router := setupRouter(newTestHandler(svc), false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/auth/login", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://accounts.example/consent?state=s", w.Header().Get("Location"))
}

func TestCallback_SetsCookieAndRedirects(t *testing.T) {
	svc := new(MockService)
	svc.On("CompleteLogin", mock.Anything, "s", "c").
		Return("jwt-token", &Identity{Email: "alice@example.com", Name: "Alice"}, nil)
	router := setupRouter(newTestHandler(svc), false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/auth/callback?state=s&code=c", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Equal(t, "jwt-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestCallback_JSONClient(t *testing.T) {
	svc := new(MockService)
	svc.On("CompleteLogin", mock.Anything, "s", "c").
		Return("jwt-token", &Identity{Email: "alice@example.com", Name: "Alice", AccessToken: "secret"}, nil)
	router := setupRouter(newTestHandler(svc), false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/auth/callback?state=s&code=c", nil)
	req.Header.Set("Accept", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "jwt-token", body["access_token"])
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestCallback_ProviderError(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(newTestHandler(svc), false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "CompleteLogin", mock.Anything, mock.Anything, mock.Anything)
}

func TestCallback_BadState(t *testing.T) {
	svc := new(MockService)
	svc.On("CompleteLogin", mock.Anything, "x", "c").
		Return("", nil, errors.Unauthorized("Invalid login state", nil))
	router := setupRouter(newTestHandler(svc), false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/auth/callback?state=x&code=c", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"unauthorized"`)
}

func TestLogout_ClearsCookie(t *testing.T) {
	svc := new(MockService)
	svc.On("Logout", mock.Anything, "sid-1").Return(nil)
	router := setupRouter(newTestHandler(svc), true)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/auth/logout", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	svc.AssertExpectations(t)
}

func TestGetProfile(t *testing.T) {
	router := setupRouter(newTestHandler(new(MockService)), true)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice@example.com")
	assert.NotContains(t, w.Body.String(), "ya29.token")
}

func TestGetProfile_Anonymous(t *testing.T) {
	router := setupRouter(newTestHandler(new(MockService)), false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
