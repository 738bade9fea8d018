// Package response renders service errors as the JSON error envelope shared
// by handlers and middleware.
package response

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gymsync/internal/apperr"
)

type errorBody struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
	Details any         `json:"details,omitempty"`
}

type envelope struct {
	Error errorBody `json:"error"`
	// Stack is the internal cause chain; only rendered in development.
	Stack string `json:"stack,omitempty"`
}

type Renderer struct {
	log         zerolog.Logger
	development bool
}

func NewRenderer(log zerolog.Logger, development bool) Renderer {
	return Renderer{log: log, development: development}
}

// Error aborts the request with err. Causes are logged, never sent, outside
// development.
func (r Renderer) Error(c *gin.Context, err error) {
	appErr := apperr.From(err)
	status := appErr.Status()

	event := r.log.Debug()
	if status >= 500 {
		event = r.log.Error()
	}
	event.
		Err(err).
		Str("code", string(appErr.Code)).
		Int("status", status).
		Str("path", c.Request.URL.Path).
		Str("request_id", c.GetString("X-Request-Id")).
		Msg("request failed")

	body := envelope{Error: errorBody{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}}
	if r.development && appErr.Err != nil {
		body.Stack = appErr.Error()
	}
	c.AbortWithStatusJSON(status, body)
}
