package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"gymsync/internal/models"
)

type rejectRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type listFunc func(ctx context.Context, caller models.Account) ([]models.Account, error)

func (h HandlerSet) ListPending(c *gin.Context) {
	h.listApplications(c, h.deps.Approvals.ListPending)
}

func (h HandlerSet) ListApproved(c *gin.Context) {
	h.listApplications(c, h.deps.Approvals.ListApproved)
}

func (h HandlerSet) ListRejected(c *gin.Context) {
	h.listApplications(c, h.deps.Approvals.ListRejected)
}

func (h HandlerSet) listApplications(c *gin.Context, list listFunc) {
	caller, ok := h.currentAccount(c)
	if !ok {
		return
	}
	accounts, err := list(c.Request.Context(), caller)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(accounts),
		"data":  toAccountResponses(accounts),
	})
}

func (h HandlerSet) ApprovalStats(c *gin.Context) {
	caller, ok := h.currentAccount(c)
	if !ok {
		return
	}
	counts, err := h.deps.Approvals.Stats(c.Request.Context(), caller)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h HandlerSet) Approve(c *gin.Context) {
	caller, ok := h.currentAccount(c)
	if !ok {
		return
	}
	account, err := h.deps.Approvals.Approve(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Gym owner approved.",
		"user":    toAccountResponse(account),
	})
}

func (h HandlerSet) Reject(c *gin.Context) {
	caller, ok := h.currentAccount(c)
	if !ok {
		return
	}
	var req rejectRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	account, err := h.deps.Approvals.Reject(c.Request.Context(), caller, c.Param("id"), req.Reason)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Gym owner application rejected.",
		"user":    toAccountResponse(account),
	})
}
