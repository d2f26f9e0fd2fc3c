package user

import (
	"template-mailer/auth"

	"github.com/gin-gonic/gin"
)

// Identity is the signed-in user. Email doubles as the user id that keys
// the personal overlay.
type Identity struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	AccessToken string `json:"-"`
}

// IdentityFromContext reads the identity stored by the auth middleware.
func IdentityFromContext(c *gin.Context) (Identity, bool) {
	email := c.GetString(auth.ContextEmail)
	if email == "" {
		return Identity{}, false
	}
	return Identity{
		Email:       email,
		Name:        c.GetString(auth.ContextName),
		AccessToken: c.GetString(auth.ContextAccessToken),
	}, true
}
