package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gymsync/internal/models"
)

const (
	TokenCookie = "token"
	RoleCookie  = "role"
)

type CookieConfig struct {
	Secure bool
}

// SetCredentials writes the HTTP-only credential cookies. The role cookie is
// informational; nothing trusts it.
func (cfg CookieConfig) SetCredentials(c *gin.Context, token string, role models.Role, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, token, maxAge, "/", "", cfg.Secure, true)
	c.SetCookie(RoleCookie, string(role), maxAge, "/", "", cfg.Secure, true)
}

func (cfg CookieConfig) ClearCredentials(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, "", -1, "/", "", cfg.Secure, true)
	c.SetCookie(RoleCookie, "", -1, "/", "", cfg.Secure, true)
}
