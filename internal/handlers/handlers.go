package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gymsync/internal/guard"
	"gymsync/internal/middleware"
	"gymsync/internal/proxy"
	"gymsync/internal/rbac"
	"gymsync/internal/response"
	"gymsync/internal/service"
)

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Dependencies struct {
	Auth      *service.AuthService
	Approvals *service.ApprovalService
	Profiles  *service.ProfileService
	Proxy     *proxy.Client
	Guard     *guard.Guard
	Registry  *rbac.Registry
	Checks    map[string]HealthCheck
	Cookies   middleware.CookieConfig
	// MaxUploadBytes caps multipart request bodies.
	MaxUploadBytes int64
	Environment    string
	Development    bool
}

type HandlerSet struct {
	log    zerolog.Logger
	deps   Dependencies
	render response.Renderer
}

func NewHandlerSet(log zerolog.Logger, deps Dependencies) HandlerSet {
	return HandlerSet{
		log:    log,
		deps:   deps,
		render: response.NewRenderer(log, deps.Development),
	}
}

func (h HandlerSet) Renderer() response.Renderer {
	return h.render
}

// Register mounts the JSON API.
func (h HandlerSet) Register(router *gin.RouterGroup) {
	authenticated := middleware.Auth(h.deps.Auth, h.render)

	router.GET("/healthz", h.Health)

	auth := router.Group("/auth")
	{
		auth.POST("/register", h.SignUp)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", authenticated, h.Me)
	}

	approvals := router.Group("/approvals")
	approvals.Use(
		authenticated,
		middleware.RequirePermission(h.deps.Registry, h.render, rbac.PermReviewApplications),
	)
	{
		approvals.GET("", h.ListPending)
		approvals.GET("/approved", h.ListApproved)
		approvals.GET("/rejected", h.ListRejected)
		approvals.GET("/stats", h.ApprovalStats)
		approvals.POST("/approve/:id", h.Approve)
		approvals.POST("/reject/:id", h.Reject)
	}

	accounts := router.Group("/accounts/me")
	accounts.Use(authenticated)
	{
		accounts.GET("", h.GetProfile)
		accounts.PATCH("", h.UpdateProfile)
		accounts.PUT("/avatar", h.UploadAvatar)
		accounts.GET("/permissions", h.Permissions)
	}

	proxied := router.Group("/proxy")
	proxied.Use(authenticated, middleware.RequireApproved(h.render))
	{
		proxied.GET("", h.Proxy)
		proxied.POST("", h.Proxy)
	}
}

// RegisterUI mounts the guarded dashboard paths.
func (h HandlerSet) RegisterUI(router *gin.RouterGroup) {
	routeGuard := middleware.RouteGuard(h.deps.Guard, h.deps.Cookies, h.render, h.log)
	for _, prefix := range []string{"/dashboard", "/member", "/trainer", "/gym-owner", "/admin"} {
		group := router.Group(prefix)
		group.Use(routeGuard)
		group.GET("", h.Dashboard)
		group.GET("/*path", h.Dashboard)
	}
}
