package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"gymsync/internal/apperr"
	"gymsync/internal/middleware"
	"gymsync/internal/models"
)

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// bindJSON decodes the body into dst and renders a validation error on failure.
func (h HandlerSet) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.render.Error(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		return apperr.ErrInvalidRequest.WithDetails(map[string]any{"fields": fields}).Wrap(err)
	}
	return apperr.ErrInvalidRequest.WithDetails(map[string]string{"reason": "malformed JSON body"}).Wrap(err)
}

// currentAccount renders 401 and returns false when Auth did not run.
func (h HandlerSet) currentAccount(c *gin.Context) (models.Account, bool) {
	account, ok := middleware.CurrentAccount(c)
	if !ok {
		h.render.Error(c, apperr.ErrUnauthenticated)
	}
	return account, ok
}
