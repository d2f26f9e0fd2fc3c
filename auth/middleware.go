package auth

import (
	"context"
	"strings"

	"template-mailer/internal/errors"
	"template-mailer/redis"

	"github.com/gin-gonic/gin"
)

// CookieName holds the session token for browser clients.
const CookieName = "session"

// context keys set for authenticated requests
const (
	ContextEmail       = "user_email"
	ContextName        = "user_name"
	ContextAccessToken = "access_token"
	ContextSessionID   = "session_id"
)

// SessionGetter looks up live sessions.
type SessionGetter interface {
	Get(ctx context.Context, sid string) (*redis.Session, error)
}

// TokenFromRequest reads a Bearer header first, then the session cookie.
func TokenFromRequest(ctx *gin.Context) string {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := ctx.Cookie(CookieName); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleWare verifies the token and that its session is still alive,
// then exposes the identity to handlers.
func AuthMiddleWare(tokens *Tokens, sessions SessionGetter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := TokenFromRequest(ctx)
		if token == "" {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		claims, err := tokens.VerifyJWT(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		// check on redis
		sess, err := sessions.Get(ctx.Request.Context(), claims.SessionID)
		if err != nil {
			ctx.Error(errors.Unauthorized("Session expired or not found", err))
			ctx.Abort()
			return
		}

		ctx.Set(ContextSessionID, claims.SessionID)
		ctx.Set(ContextEmail, sess.Email)
		ctx.Set(ContextName, sess.Name)
		ctx.Set(ContextAccessToken, sess.AccessToken)
		ctx.Next()
	}
}
