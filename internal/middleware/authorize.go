package middleware

import (
	"github.com/gin-gonic/gin"

	"gymsync/internal/apperr"
	"gymsync/internal/models"
	"gymsync/internal/rbac"
	"gymsync/internal/response"
)

func RequireRoles(registry *rbac.Registry, render response.Renderer, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			render.Error(c, apperr.ErrUnauthenticated)
			return
		}
		if !registry.HasRole(account.Role, roles...) {
			render.Error(c, apperr.ErrForbidden)
			return
		}
		c.Next()
	}
}

func RequirePermission(registry *rbac.Registry, render response.Renderer, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			render.Error(c, apperr.ErrUnauthenticated)
			return
		}
		if !registry.HasPermission(account.Role, permission) {
			render.Error(c, apperr.ErrForbidden.WithDetails(map[string]string{"permission": permission}))
			return
		}
		c.Next()
	}
}

// RequireApproved blocks gym owners whose application has not been approved.
func RequireApproved(render response.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			render.Error(c, apperr.ErrUnauthenticated)
			return
		}
		if account.Role.NeedsApproval() {
			switch account.Status {
			case models.StatusPending:
				render.Error(c, apperr.ErrPendingApproval)
				return
			case models.StatusRejected:
				render.Error(c, apperr.ErrApplicationRejected)
				return
			}
		}
		c.Next()
	}
}
