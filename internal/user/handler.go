package user

import (
	"net/http"
	"time"

	"template-mailer/auth"
	"template-mailer/internal/errors"

	"github.com/gin-gonic/gin"
)

// Handler handles sign-in HTTP requests
type Handler struct {
	service     Service
	frontendURL string
	cookieTTL   time.Duration
	secure      bool
}

// NewHandler creates a new sign-in handler. After a successful callback the
// browser is sent to frontendURL with the session cookie set.
func NewHandler(service Service, frontendURL string, cookieTTL time.Duration, secure bool) *Handler {
	return &Handler{service: service, frontendURL: frontendURL, cookieTTL: cookieTTL, secure: secure}
}

// Login redirects to the Google consent page.
func (h *Handler) Login(c *gin.Context) {
	url, err := h.service.BeginLogin(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// Callback finishes the OAuth flow. API clients asking for JSON get the
// token in the body instead of a redirect.
func (h *Handler) Callback(c *gin.Context) {
	if oauthErr := c.Query("error"); oauthErr != "" {
		c.Error(errors.Unauthorized("Login cancelled: "+oauthErr, nil))
		return
	}

	token, ident, err := h.service.CompleteLogin(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		c.Error(err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(h.cookieTTL.Seconds()), "/", "", h.secure, true)

	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		c.JSON(http.StatusOK, gin.H{"access_token": token, "user": ident})
		return
	}
	c.Redirect(http.StatusFound, h.frontendURL)
}

// Logout drops the session and clears the cookie.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), c.GetString(auth.ContextSessionID)); err != nil {
		c.Error(err)
		return
	}
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.secure, true)
	c.Status(http.StatusNoContent)
}

// GetProfile returns the current identity
func (h *Handler) GetProfile(c *gin.Context) {
	ident, ok := IdentityFromContext(c)
	if !ok {
		c.Error(errors.Unauthorized("user not found", nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": ident})
}
