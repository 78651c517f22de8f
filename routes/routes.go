package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"awazgram-server/config"
	"awazgram-server/logger"
	"awazgram-server/middleware"
	"awazgram-server/services"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Config     *config.Config
	Complaints *services.ComplaintService
	Stats      *services.StatsService
	Auth       *services.AuthService
	Staff      *services.StaffService
	Limiter    *middleware.RateLimiter
}

// Handler holds the dependencies shared by every route.
type Handler struct {
	cfg        *config.Config
	complaints *services.ComplaintService
	stats      *services.StatsService
	auth       *services.AuthService
	staff      *services.StaffService
	log        *slog.Logger
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		cfg:        deps.Config,
		complaints: deps.Complaints,
		stats:      deps.Stats,
		auth:       deps.Auth,
		staff:      deps.Staff,
		log:        logger.WithComponent("routes"),
	}
}

// SetupRouter builds the gin engine with the middleware stack and every route.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	middleware.RegisterValidators()

	limiter := deps.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter()
	}

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.MaxMultipartMemory = cfg.Media.MaxBytes * 2

	router.Use(gin.Recovery())
	router.Use(middleware.AuditLogMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(middleware.InputValidationMiddleware(cfg.Server.MaxBodyBytes))

	router.SetHTMLTemplate(mustLoadTemplates())
	if cfg.Media.Backend == "" || cfg.Media.Backend == "local" {
		router.Static(cfg.Media.URLPath, cfg.Media.Root)
	}

	h := NewHandler(deps)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "AwazGram server is running",
			"time":    time.Now().UTC(),
		})
	})

	submitLimit := middleware.RateLimitMiddleware(limiter, cfg.RateLimit.SubmitPerMinute, cfg.RateLimit.SubmitBurst)
	loginLimit := middleware.RateLimitMiddleware(limiter, cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst)

	RegisterPublicRoutes(router, h)
	RegisterComplaintRoutes(router, h, submitLimit)
	RegisterAuthRoutes(router, h, loginLimit)

	admin := router.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware(deps.Auth, cfg.JWT.CookieName))
	RegisterAdminRoutes(admin, h)
	RegisterStaffRoutes(admin, h)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
	})

	return router
}
