package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gymsync/internal/middleware"
	"gymsync/internal/models"
	"gymsync/internal/service"
)

type registerRequest struct {
	Name             string `json:"name" binding:"max=120"`
	Email            string `json:"email" binding:"max=254"`
	Password         string `json:"password" binding:"max=128"`
	Role             string `json:"role"`
	OrganizationName string `json:"organizationName" binding:"max=200"`
	PhoneNumber      string `json:"phoneNumber" binding:"max=40"`
	Address          string `json:"address" binding:"max=300"`
	Description      string `json:"description" binding:"max=2000"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type accountResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	OrganizationName string     `json:"organizationName,omitempty"`
	PhoneNumber      string     `json:"phoneNumber,omitempty"`
	Address          string     `json:"address,omitempty"`
	Description      string     `json:"description,omitempty"`
	AvatarKey        *string    `json:"avatarKey,omitempty"`
	Role             string     `json:"role"`
	Status           string     `json:"status"`
	ReviewedBy       *string    `json:"reviewedBy,omitempty"`
	ReviewedAt       *time.Time `json:"reviewedAt,omitempty"`
	RejectionReason  string     `json:"rejectionReason,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func toAccountResponse(a models.Account) accountResponse {
	return accountResponse{
		ID:               a.ID,
		Email:            a.Email,
		Name:             a.Name,
		OrganizationName: a.OrganizationName,
		PhoneNumber:      a.PhoneNumber,
		Address:          a.Address,
		Description:      a.Description,
		AvatarKey:        a.AvatarKey,
		Role:             string(a.Role),
		Status:           string(a.Status),
		ReviewedBy:       a.ReviewedBy,
		ReviewedAt:       a.ReviewedAt,
		RejectionReason:  a.RejectionReason,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toAccountResponses(accounts []models.Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	return out
}

type authResponse struct {
	Token           string          `json:"token,omitempty"`
	ExpiresAt       *time.Time      `json:"expiresAt,omitempty"`
	User            accountResponse `json:"user"`
	PendingApproval bool            `json:"pendingApproval"`
	Message         string          `json:"message,omitempty"`
}

func (h HandlerSet) SignUp(c *gin.Context) {
	var req registerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.deps.Auth.Register(c.Request.Context(), service.RegisterInput{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		Role:             req.Role,
		OrganizationName: req.OrganizationName,
		PhoneNumber:      req.PhoneNumber,
		Address:          req.Address,
		Description:      req.Description,
	})
	if err != nil {
		h.render.Error(c, err)
		return
	}

	message := "Registered successfully."
	if result.PendingApproval {
		message = "Application received. A super admin must approve it before you can log in."
	}
	h.sendAuthResponse(c, http.StatusCreated, result, message)
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.deps.Auth.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.render.Error(c, err)
		return
	}

	h.sendAuthResponse(c, http.StatusOK, result, "")
}

func (h HandlerSet) sendAuthResponse(c *gin.Context, status int, result service.AuthResult, message string) {
	resp := authResponse{
		User:            toAccountResponse(result.Account),
		PendingApproval: result.PendingApproval,
		Message:         message,
	}
	if result.Token != "" {
		expiresAt := result.ExpiresAt
		resp.Token = result.Token
		resp.ExpiresAt = &expiresAt
		h.deps.Cookies.SetCredentials(c, result.Token, result.Account.Role, result.ExpiresAt)
	}
	c.JSON(status, resp)
}

func (h HandlerSet) Logout(c *gin.Context) {
	if raw := middleware.Credential(c); raw != "" {
		if err := h.deps.Auth.Logout(c.Request.Context(), raw); err != nil {
			h.render.Error(c, err)
			return
		}
	}
	h.deps.Cookies.ClearCredentials(c)
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Me(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": toAccountResponse(account),
	})
}
