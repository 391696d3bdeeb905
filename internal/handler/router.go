package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/makkenzo/cnc-license-admin/internal/ierr"
	"go.uber.org/zap"
)

// Handlers groups everything NewRouter mounts. Metrics may be nil.
type Handlers struct {
	Health    *HealthHandler
	Requests  *RequestHandler
	Licenses  *LicenseHandler
	Dashboard *DashboardHandler
	Auth      *AuthHandler
	APIKeys   *APIKeyHandler
	Metrics   http.Handler

	AdminAuth    gin.HandlerFunc
	APIKeyAuth   gin.HandlerFunc
	ErrorHandler gin.HandlerFunc
}

func NewRouter(h Handlers, allowOrigins []string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(h.ErrorHandler)
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logMsg := "Panic recovered"
		if err, ok := recovered.(string); ok {
			logMsg = fmt.Sprintf("%s: %s", logMsg, err)
		} else if err, ok := recovered.(error); ok {
			logMsg = fmt.Sprintf("%s: %v", logMsg, err)
		}
		logger.Error(logMsg, zap.Stack("stack"))

		_ = c.Error(ierr.ErrInternalServer)
		c.Abort()
	}))

	if len(allowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: allowOrigins,
			AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders: []string{
				"Origin",
				"Content-Type",
				"Accept",
				"Authorization",
				"X-API-Key",
			},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", h.Health.Check)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api")

	userRoutes := api.Group("/user")
	{
		userRoutes.POST("/request", h.Requests.Submit)
		userRoutes.POST("/login", h.Licenses.Login)
	}

	adminRoutes := api.Group("/admin")
	adminRoutes.Use(h.APIKeyAuth)
	{
		adminRoutes.POST("/login", h.Auth.Login)

		protected := adminRoutes.Group("")
		protected.Use(h.AdminAuth)
		{
			protected.GET("/me", h.Auth.Me)
			protected.GET("/pending-requests", h.Requests.ListPending)
			protected.GET("/active-users", h.Licenses.ListActive)
			protected.POST("/approve", h.Requests.Approve)
			protected.POST("/reject", h.Requests.Reject)
			protected.POST("/extend", h.Licenses.Extend)
			protected.POST("/revoke", h.Licenses.Revoke)
			protected.GET("/stats", h.Dashboard.GetStats)

			protected.POST("/apikeys", h.APIKeys.Create)
			protected.GET("/apikeys", h.APIKeys.List)
			protected.DELETE("/apikeys/:id", h.APIKeys.Revoke)
		}
	}

	return router
}
