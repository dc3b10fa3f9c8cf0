package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/config"
	"github.com/sangkips/pos-api/internal/domain/enum"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/presentation/http/handler"
	"github.com/sangkips/pos-api/internal/presentation/http/middleware"
	"github.com/sangkips/pos-api/pkg/utils"
	"gorm.io/gorm"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth            *handler.AuthHandler
	Business        *handler.BusinessHandler
	Branch          *handler.BranchHandler
	Category        *handler.CategoryHandler
	Customer        *handler.CustomerHandler
	Product         *handler.ProductHandler
	RegisterSession *handler.RegisterSessionHandler
	Sale            *handler.SaleHandler
	Receipt         *handler.ReceiptHandler
	Report          *handler.ReportHandler
	User            *handler.UserHandler
	Printer         *handler.PrinterHandler
	Events          *handler.EventsHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	// RateLimiter is optional; Setup builds one from Cfg when nil.
	RateLimiter *middleware.RateLimiter
	// DB is pinged by /health when set.
	DB *gorm.DB
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", health(deps))

	limiter := deps.RateLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Requests: deps.Cfg.RateLimit.Requests,
			Window:   time.Duration(deps.Cfg.RateLimit.Duration) * time.Second,
		})
	}

	api := router.Group("/api")
	{
		// Public routes, limited per client IP
		public := api.Group("")
		public.Use(limiter.Middleware())
		registerAuthRoutes(public, h)

		// The websocket accepts its token in the query string
		api.GET("/events", middleware.WebSocketAuthMiddleware(deps.JWTManager), h.Events.Subscribe)

		// Protected routes, limited per business
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(limiter.Middleware())
		protected.Use(middleware.Idempotency(deps.IdempotencyRepo))

		registerProtectedRoutes(protected, h)
	}

	return router
}

func health(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		}
		if deps.DB != nil {
			body["database"] = "ok"
			sqlDB, err := deps.DB.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body["database"] = "unavailable"
			}
		}
		c.JSON(status, body)
	}
}

func registerAuthRoutes(api *gin.RouterGroup, h *Handlers) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/reset-password", h.Auth.ResetPassword)
		// Google OAuth routes
		auth.GET("/google", h.Auth.GoogleLogin)
		auth.GET("/google/callback", h.Auth.GoogleCallback)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers) {
	protected.GET("/auth/me", h.Auth.Me)
	protected.PUT("/auth/password", h.Auth.ChangePassword)

	business := protected.Group("/business")
	{
		business.GET("", h.Business.Get)
		business.GET("/stats", h.Business.Stats)
		business.PUT("/subscription", h.Business.UpdateSubscription)
	}

	registerBranchRoutes(protected, h)
	registerCatalogRoutes(protected, h)
	registerCustomerRoutes(protected, h)
	registerRegisterRoutes(protected, h)
	registerSaleRoutes(protected, h)
	registerUserRoutes(protected, h)

	printer := protected.Group("/printer")
	{
		printer.GET("/status", h.Printer.GetStatus)
		printer.POST("/test", h.Printer.TestPrint)
	}
}

func registerBranchRoutes(protected *gin.RouterGroup, h *Handlers) {
	branches := protected.Group("/branches")
	{
		branches.GET("", h.Branch.List)
		branches.POST("", h.Branch.Create)
		branches.GET("/:id", h.Branch.Get)
		branches.PUT("/:id", h.Branch.Update)
		branches.GET("/:id/summary", h.Branch.Summary)
		branches.PUT("/:id/deactivate", h.Branch.Deactivate)
	}
}

func registerCatalogRoutes(protected *gin.RouterGroup, h *Handlers) {
	categories := protected.Group("/categories")
	{
		categories.GET("", h.Category.List)
		categories.GET("/tree", h.Category.Tree)
		categories.POST("", h.Category.Create)
		categories.GET("/:id/path", h.Category.Path)
		categories.PUT("/:id", h.Category.Update)
		categories.PUT("/:id/move", h.Category.Move)
		categories.DELETE("/:id", h.Category.Delete)
	}

	products := protected.Group("/products")
	{
		products.GET("", h.Product.List)
		products.GET("/low-stock", h.Product.LowStock)
		products.POST("", h.Product.Create)
		products.GET("/:id", h.Product.Get)
		products.PUT("/:id", h.Product.Update)
		products.DELETE("/:id", h.Product.Delete)
		products.POST("/:id/stock", h.Product.UpdateStock)
		products.GET("/:id/movements", h.Product.Movements)
	}
}

func registerCustomerRoutes(protected *gin.RouterGroup, h *Handlers) {
	customers := protected.Group("/customers")
	{
		customers.GET("", h.Customer.List)
		customers.GET("/search", h.Customer.Search)
		customers.GET("/top", h.Customer.Top)
		customers.POST("", h.Customer.Create)
		customers.GET("/:id", h.Customer.Get)
		customers.PUT("/:id", h.Customer.Update)
	}
}

func registerRegisterRoutes(protected *gin.RouterGroup, h *Handlers) {
	sessions := protected.Group("/register-sessions")
	{
		sessions.GET("", h.RegisterSession.List)
		sessions.GET("/current", h.RegisterSession.Current)
		sessions.POST("", h.RegisterSession.Open)
		sessions.GET("/:id", h.RegisterSession.Get)
		sessions.GET("/:id/report", h.RegisterSession.Report)
		sessions.PUT("/:id/close", h.RegisterSession.Close)
	}
}

func registerSaleRoutes(protected *gin.RouterGroup, h *Handlers) {
	sales := protected.Group("/sales")
	{
		sales.GET("", h.Sale.List)
		sales.POST("", middleware.RequireIdempotencyKey(), h.Sale.Create)

		reports := sales.Group("")
		reports.Use(middleware.RequireCapability(enum.CapViewReports))
		reports.GET("/report", h.Report.SalesReport)
		reports.GET("/report/pdf", h.Report.SalesReportPDF)
		reports.GET("/top-products", h.Report.TopProducts)

		sales.GET("/:id", h.Sale.Get)
		sales.PUT("/:id/cancel", h.Sale.Cancel)
		sales.GET("/:id/receipt", h.Receipt.Get)
		sales.GET("/:id/receipt/pdf", h.Receipt.PDF)
		sales.POST("/:id/receipt/print", h.Receipt.Print)
		sales.POST("/:id/receipt/email", h.Receipt.Email)
	}
}

func registerUserRoutes(protected *gin.RouterGroup, h *Handlers) {
	users := protected.Group("/users")
	users.Use(middleware.RequireCapability(enum.CapManageUsers))
	{
		users.GET("", h.User.List)
		users.POST("", h.User.Create)
		users.GET("/:id", h.User.Get)
		users.PUT("/:id", h.User.Update)
		users.PUT("/:id/permissions", h.User.SetPermissions)
		users.PUT("/:id/deactivate", h.User.Deactivate)
	}
}
