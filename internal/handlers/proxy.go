package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"gymsync/internal/apperr"
	"gymsync/internal/proxy"
)

func (h HandlerSet) Proxy(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		h.render.Error(c, apperr.ErrMissingFields.WithDetails(map[string][]string{"fields": {"endpoint"}}))
		return
	}

	var body io.Reader
	if c.Request.Method == http.MethodPost {
		body = c.Request.Body
	}

	resp, err := h.deps.Proxy.Forward(c.Request.Context(), c.Request.Method, endpoint, c.GetHeader("Authorization"), body)
	if err != nil {
		h.render.Error(c, proxyError(err))
		return
	}

	h.log.Debug().Str("endpoint", endpoint).Int("status", resp.Status).Msg("proxy success")

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.Status, contentType, resp.Body)
}

func proxyError(err error) error {
	var statusErr *proxy.StatusError
	switch {
	case errors.Is(err, proxy.ErrInvalidEndpoint):
		return apperr.ErrInvalidRequest.WithDetails(map[string]string{"reason": err.Error()}).Wrap(err)
	case errors.Is(err, proxy.ErrTimeout):
		return apperr.ErrTimeout.Wrap(err)
	case errors.As(err, &statusErr):
		return apperr.ErrServiceUnavailable.WithDetails(map[string]int{"upstreamStatus": statusErr.Status}).Wrap(err)
	default:
		return apperr.ErrServiceUnavailable.Wrap(err)
	}
}
