package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gymsync/internal/middleware"
	"gymsync/internal/models"
)

// Dashboard describes the view the route guard let through. Rendering is
// left to the frontend.
func (h HandlerSet) Dashboard(c *gin.Context) {
	role, _ := c.Get(middleware.GuardRoleKey)
	r, _ := role.(models.Role)

	c.JSON(http.StatusOK, gin.H{
		"path":        c.Request.URL.Path,
		"role":        r,
		"home":        h.deps.Registry.HomePath(r),
		"permissions": h.deps.Registry.Permissions(r),
	})
}
