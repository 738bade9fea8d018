package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"gymsync/internal/apperr"
	"gymsync/internal/response"
)

func Recovery(render response.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				render.Error(c, apperr.ErrInternal.Wrap(fmt.Errorf("panic: %v", r)))
			}
		}()
		c.Next()
	}
}
