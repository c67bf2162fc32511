package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stratushq/tenant_go_server/config"
	"github.com/stratushq/tenant_go_server/internal/api/handler"
	"github.com/stratushq/tenant_go_server/internal/api/middleware"
	"github.com/stratushq/tenant_go_server/internal/model"
	"github.com/stratushq/tenant_go_server/internal/pkg/cache"
)

type Router struct {
	authHandler      *handler.AuthHandler
	userHandler      *handler.UserHandler
	companyHandler   *handler.CompanyHandler
	sessionHandler   *handler.SessionHandler
	trackHandler     *handler.TrackHandler
	billingHandler   *handler.BillingHandler
	reportHandler    *handler.ReportHandler
	webhookHandler   *handler.WebhookHandler
	websocketHandler *handler.WebSocketHandler
	authCache        *cache.Service
	cfg              *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	companyHandler *handler.CompanyHandler,
	sessionHandler *handler.SessionHandler,
	trackHandler *handler.TrackHandler,
	billingHandler *handler.BillingHandler,
	reportHandler *handler.ReportHandler,
	webhookHandler *handler.WebhookHandler,
	websocketHandler *handler.WebSocketHandler,
	authCache *cache.Service,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:      authHandler,
		userHandler:      userHandler,
		companyHandler:   companyHandler,
		sessionHandler:   sessionHandler,
		trackHandler:     trackHandler,
		billingHandler:   billingHandler,
		reportHandler:    reportHandler,
		webhookHandler:   webhookHandler,
		websocketHandler: websocketHandler,
		authCache:        authCache,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	// Dashboard pages, routed by the role cookie.
	dashboard := engine.Group("/dashboard", middleware.DashboardGate())
	{
		dashboard.GET("/superadmin", dashboardPage("superadmin"))
		dashboard.GET("/admin", dashboardPage("admin"))
		dashboard.GET("/user", dashboardPage("user"))
	}

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// Processor webhooks; plain status codes, no envelope.
		api.POST("/webhooks/stripe", r.webhookHandler.HandleStripe)

		// Page-exit session flush via sendBeacon; no auth header available.
		api.GET("/track/session/:id", r.sessionHandler.Flush)

		// Public auth endpoints
		auth := api.Group("/auth")
		{
			auth.POST("/signup", r.authHandler.SignUp)
			auth.POST("/signin", r.authHandler.SignIn)
			auth.POST("/otp/send", r.authHandler.SendOTP)
			auth.POST("/otp/verify", r.authHandler.VerifyOTP)
		}

		// Authenticated endpoints
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret, r.authCache))
		{
			authenticated.POST("/auth/signout", r.authHandler.SignOut)
			authenticated.PUT("/auth/password", r.authHandler.UpdatePassword)
			authenticated.GET("/auth/me", r.authHandler.Profile)

			authenticated.GET("/sessions", r.sessionHandler.List)
			authenticated.POST("/track/event", r.trackHandler.Touch)
			authenticated.GET("/track/counters", r.trackHandler.Counters)
			authenticated.POST("/users/avatar", r.userHandler.UploadAvatar)

			billing := authenticated.Group("/billing")
			billing.Use(middleware.RequireRole(model.RoleAdmin))
			{
				billing.GET("", r.billingHandler.Overview)
				billing.POST("/checkout", r.billingHandler.Checkout)
				billing.POST("/portal", r.billingHandler.Portal)
				billing.PUT("/payment-methods/default", r.billingHandler.SetDefaultPaymentMethod)
			}

			reports := authenticated.Group("/reports")
			{
				reports.GET("", r.reportHandler.List)
				reports.GET("/:id", r.reportHandler.Get)
			}
			reportsAdmin := authenticated.Group("/reports")
			reportsAdmin.Use(middleware.RequireRole(model.RoleAdmin))
			{
				reportsAdmin.POST("", r.reportHandler.Create)
				reportsAdmin.PUT("/:id", r.reportHandler.Update)
				reportsAdmin.DELETE("/:id", r.reportHandler.Delete)
			}

			users := authenticated.Group("/users")
			users.Use(middleware.RequireRole(model.RoleAdmin))
			{
				users.POST("", r.userHandler.Create)
				users.GET("", r.userHandler.List)
				users.GET("/:id", r.userHandler.Get)
				users.PUT("/:id", r.userHandler.Update)
				users.DELETE("/:id", r.userHandler.Delete)
			}

			companies := authenticated.Group("/companies")
			companies.Use(middleware.RequireRole(model.RoleSuperAdmin))
			{
				companies.POST("", r.companyHandler.Create)
				companies.GET("", r.companyHandler.List)
				companies.GET("/:id", r.companyHandler.Get)
				companies.PUT("/:id", r.companyHandler.Update)
				companies.DELETE("/:id", r.companyHandler.Delete)
			}
		}
	}

	return engine
}

// dashboardPage answers with the dashboard identifier; the frontend build
// serves the actual page and uses this for routing checks.
func dashboardPage(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"dashboard": name})
	}
}
