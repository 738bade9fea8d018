package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gymsync/internal/apperr"
	"gymsync/internal/guard"
	"gymsync/internal/response"
)

// GuardRoleKey holds the role the route guard resolved for an allowed request.
const GuardRoleKey = "guard_role"

// RouteGuard applies guard decisions to UI paths.
func RouteGuard(g *guard.Guard, cookies CookieConfig, render response.Renderer, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := g.Decide(guard.Request{
			Path:      c.Request.URL.Path,
			Token:     Credential(c),
			WantsJSON: wantsJSON(c.Request),
		})

		if decision.ClearCredentials {
			cookies.ClearCredentials(c)
		}

		switch decision.Outcome {
		case guard.Allow:
			c.Set(GuardRoleKey, decision.Role)
			c.Next()
		case guard.Redirect:
			log.Debug().
				Str("path", c.Request.URL.Path).
				Str("target", decision.Target).
				Str("reason", decision.Reason).
				Msg("route guard redirect")
			c.Redirect(http.StatusFound, decision.Target)
			c.Abort()
		default:
			if decision.Status == http.StatusUnauthorized {
				render.Error(c, apperr.ErrUnauthenticated)
				return
			}
			render.Error(c, apperr.ErrForbidden)
		}
	}
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
