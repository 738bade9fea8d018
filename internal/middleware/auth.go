package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"gymsync/internal/apperr"
	"gymsync/internal/models"
	"gymsync/internal/response"
	"gymsync/internal/security"
)

const (
	CurrentAccountKey = "current_account"
	AccessTokenKey    = "access_token"
	AccessClaimsKey   = "access_claims"
)

type Verifier interface {
	Verify(ctx context.Context, raw string) (models.Account, security.Token, error)
}

// Auth requires a signed credential from the Authorization header or the
// token cookie and loads the account it belongs to.
func Auth(verifier Verifier, render response.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := Credential(c)
		if raw == "" {
			render.Error(c, apperr.ErrUnauthenticated)
			return
		}

		account, token, err := verifier.Verify(c.Request.Context(), raw)
		if err != nil {
			render.Error(c, err)
			return
		}

		c.Set(AccessTokenKey, raw)
		if token.Claims != nil {
			c.Set(AccessClaimsKey, *token.Claims)
		}
		c.Set(CurrentAccountKey, account)

		c.Next()
	}
}

// Credential returns the bearer token, falling back to the token cookie when
// the Authorization header carries no bearer credential.
func Credential(c *gin.Context) string {
	if scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " "); ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// CurrentAccount returns the account loaded by Auth.
func CurrentAccount(c *gin.Context) (models.Account, bool) {
	val, exists := c.Get(CurrentAccountKey)
	if !exists {
		return models.Account{}, false
	}
	account, ok := val.(models.Account)
	return account, ok
}
