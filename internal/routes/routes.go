// Package routes defines the HTTP routes for the Dukes' Club service.
package routes

import (
	"github.com/JAFletch-surg/dukes-club/docs"
	"github.com/JAFletch-surg/dukes-club/internal/config"
	"github.com/JAFletch-surg/dukes-club/internal/handlers"
	"github.com/JAFletch-surg/dukes-club/internal/metrics"
	"github.com/JAFletch-surg/dukes-club/internal/middleware"
	"github.com/JAFletch-surg/dukes-club/internal/pages"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers groups everything Setup mounts.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Catalog     *handlers.CatalogHandler
	Members     *handlers.MemberHandler
	Dashboard   *handlers.DashboardHandler
	Content     *handlers.ContentHandler
	Upload      *handlers.UploadHandler
	Health      *handlers.HealthHandler
	Pages       *pages.Handler
	Collections []handlers.CollectionRoutes
}

// Setup configures all HTTP routes for the application. Session loading
// and request logging are installed on router by the caller.
func Setup(router *gin.Engine, h Handlers, cfg *config.Config, m *metrics.Metrics) {
	csrf := middleware.CSRF(middleware.CSRFConfig{AllowedOrigins: cfg.AllowedOrigins})
	limited := middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})

	// Health check
	router.GET("/health", h.Health.Check)
	// Metrics
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// Auth routes
	auth := router.Group("/api/v1/auth", csrf)
	{
		auth.POST("/register", limited, h.Auth.Register)
		auth.POST("/login", limited, h.Auth.Login)
		auth.POST("/forgot-password", limited, h.Auth.ForgotPassword)
		auth.POST("/reset-password", limited, h.Auth.ResetPassword)
		auth.POST("/approval-preview", limited, h.Auth.ApprovalPreview)
		auth.POST("/logout", h.Auth.Logout)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.GET("/verify", h.Auth.VerifyEmail)
		auth.GET("/session", h.Auth.Session)
		auth.GET("/resolve", h.Auth.Resolve)
	}

	// Public catalog
	public := router.Group("/api/v1/public")
	{
		public.GET("/events", h.Catalog.Events)
		public.GET("/events/:slug", h.Catalog.EventBySlug)
		public.GET("/fellowships", h.Catalog.Fellowships)
		public.GET("/sponsors", h.Catalog.Sponsors)
		public.GET("/team", h.Catalog.Team)
	}

	// Approved members
	members := router.Group("/api/v1/members", csrf, middleware.RequireApproved())
	{
		members.GET("/feed", h.Catalog.MembersFeed)
		members.GET("/videos", h.Catalog.Videos)
		members.GET("/podcasts", h.Catalog.Podcasts)
		members.GET("/directory", h.Members.Directory)
		members.POST("/flags", h.Content.ReportFlag)
	}

	// Self service is open to pending members too.
	me := router.Group("/api/v1/me", csrf, middleware.RequireSession())
	{
		me.GET("", h.Members.Me)
		me.PATCH("", h.Members.UpdateMe)
		me.PUT("/privacy", h.Members.UpdatePrivacy)
		me.POST("/deletion", h.Members.RequestDeletion)
	}

	// Admin CMS
	admin := router.Group("/api/v1/admin", csrf, middleware.RequireStaff())
	{
		admin.GET("/dashboard", h.Dashboard.Stats)
		for _, col := range h.Collections {
			col.Register(admin)
		}
		admin.GET("/events/:id/faculty", h.Content.EventFaculty)
		admin.PUT("/events/:id/faculty", h.Content.SetEventFaculty)
		admin.GET("/flags", h.Content.OpenFlags)
		admin.PATCH("/flags/:id/resolve", h.Content.ResolveFlag)
		admin.POST("/uploads", h.Upload.Upload)
		admin.GET("/members", h.Members.List)
		admin.PATCH("/members/:id/approval", h.Members.Review)
		admin.PATCH("/members/:id/role", middleware.RequireAdmin(), h.Members.ChangeRole)
	}

	// Swagger documentation (only if SWAGGER_HOST is configured)
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Pages
	h.Pages.Mount(router.Group("", middleware.GuardPages(m)))
}
