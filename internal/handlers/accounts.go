package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gymsync/internal/apperr"
	"gymsync/internal/media/sniffer"
	"gymsync/internal/models"
)

type updateProfileRequest struct {
	Name             *string `json:"name" binding:"omitempty,max=120"`
	OrganizationName *string `json:"organizationName" binding:"omitempty,max=200"`
	PhoneNumber      *string `json:"phoneNumber" binding:"omitempty,max=40"`
	Address          *string `json:"address" binding:"omitempty,max=300"`
	Description      *string `json:"description" binding:"omitempty,max=2000"`
}

// multipartOverhead leaves room for part headers around the file itself.
const multipartOverhead = 64 << 10

func (h HandlerSet) GetProfile(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toAccountResponse(account)})
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	updated, err := h.deps.Profiles.Update(c.Request.Context(), account, models.Profile{
		Name:             req.Name,
		OrganizationName: req.OrganizationName,
		PhoneNumber:      req.PhoneNumber,
		Address:          req.Address,
		Description:      req.Description,
	})
	if err != nil {
		h.render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toAccountResponse(updated)})
}

func (h HandlerSet) UploadAvatar(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}

	if h.deps.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.deps.MaxUploadBytes+multipartOverhead)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.render.Error(c, apperr.ErrInvalidRequest.WithDetails(map[string]any{
				"reason":   "file too large",
				"maxBytes": h.deps.MaxUploadBytes,
			}).Wrap(err))
			return
		}
		h.render.Error(c, apperr.ErrInvalidRequest.WithDetails(map[string]string{"reason": "multipart field file is required"}).Wrap(err))
		return
	}

	file, err := header.Open()
	if err != nil {
		h.render.Error(c, apperr.ErrInvalidRequest.Wrap(err))
		return
	}
	defer file.Close()

	updated, err := h.deps.Profiles.UploadAvatar(c.Request.Context(), account, file, header.Size, sniffer.MimeTypeFromHTTP(header.Header))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toAccountResponse(updated)})
}

func (h HandlerSet) Permissions(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"role":         account.Role,
		"permissions":  h.deps.Profiles.Permissions(account),
		"allowedPaths": h.deps.Registry.AllowedPaths(account.Role),
	})
}
