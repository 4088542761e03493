// Package server wires services, handlers and middleware into the HTTP router.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"invoiceflow/internal/config"
	_ "invoiceflow/internal/docs" // Import swagger docs
	"invoiceflow/internal/handlers"
	"invoiceflow/internal/mailer"
	"invoiceflow/internal/metrics"
	"invoiceflow/internal/middleware"
	"invoiceflow/internal/pdf"
	"invoiceflow/internal/services"
)

// Services groups the business services behind the API.
type Services struct {
	Users    services.UserServicer
	Clients  services.ClientServicer
	Invoices services.InvoiceServicer
	Delivery services.DeliveryServicer
	Audit    services.AuditServicer
}

// NewServices builds the services on top of db. The renderer and sender are
// injected so tests can replace the PDF and email collaborators.
func NewServices(db *gorm.DB, renderer pdf.Renderer, sender mailer.Sender, resendAPIKey string) Services {
	users := services.NewUserService(db)
	invoices := services.NewInvoiceService(db)
	return Services{
		Users:    users,
		Clients:  services.NewClientService(db),
		Invoices: invoices,
		Delivery: services.NewDeliveryService(invoices, users, renderer, sender, resendAPIKey),
		Audit:    services.NewAuditService(db),
	}
}

// Options holds the router settings taken from configuration.
type Options struct {
	CORSOrigin    string
	AuthRateLimit float64
	AuthRateBurst int
	MetricsAPIKey string
}

// OptionsFromConfig extracts the router options from the app configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		CORSOrigin:    cfg.CORSOrigin,
		AuthRateLimit: cfg.AuthRateLimit,
		AuthRateBurst: cfg.AuthRateBurst,
		MetricsAPIKey: cfg.MetricsAPIKey,
	}
}

// NewRouter registers every route of the API.
func NewRouter(svc Services, opts Options) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Audit)
	clientHandler := handlers.NewClientHandler(svc.Clients, svc.Audit)
	invoiceHandler := handlers.NewInvoiceHandler(svc.Invoices, svc.Delivery, svc.Audit)
	emailHandler := handlers.NewEmailHandler(svc.Delivery)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(metrics.Middleware())
	router.Use(middleware.CORS(opts.CORSOrigin))
	router.Use(middleware.ErrorHandler())
	router.NoRoute(middleware.NotFound())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus metrics
	router.GET("/metrics", middleware.MetricsAuthMiddleware(opts.MetricsAPIKey), gin.WrapH(metrics.Handler()))

	api := router.Group("/api")

	// Health check endpoint
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	})

	// Public auth routes
	authLimiter := middleware.NewRateLimiter(opts.AuthRateLimit, opts.AuthRateBurst)
	auth := api.Group("/auth")
	auth.POST("/register", authLimiter.Handler(), authHandler.Register)
	auth.POST("/login", authLimiter.Handler(), authHandler.Login)

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(svc.Users))

	protected.GET("/auth/me", authHandler.Me)
	protected.PUT("/auth/profile", authHandler.UpdateProfile)

	clients := protected.Group("/clients")
	clients.GET("", clientHandler.ListClients)
	clients.POST("", clientHandler.CreateClient)
	clients.GET("/:id", clientHandler.GetClient)
	clients.PUT("/:id", clientHandler.UpdateClient)
	clients.DELETE("/:id", clientHandler.DeleteClient)

	invoices := protected.Group("/invoices")
	invoices.GET("", invoiceHandler.ListInvoices)
	invoices.POST("", invoiceHandler.CreateInvoice)
	invoices.GET("/stats", invoiceHandler.GetStats)
	invoices.GET("/:id", invoiceHandler.GetInvoice)
	invoices.PUT("/:id", invoiceHandler.UpdateInvoice)
	invoices.DELETE("/:id", invoiceHandler.DeleteInvoice)
	invoices.GET("/:id/pdf", invoiceHandler.DownloadPDF)
	invoices.GET("/:id/preview", invoiceHandler.PreviewPDF)
	invoices.POST("/:id/send-email", invoiceHandler.SendEmail)

	protected.GET("/email/verify", emailHandler.Verify)

	return router
}
