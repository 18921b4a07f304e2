package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/campuskart/marketplace-api/internal/api/handler"
	"github.com/campuskart/marketplace-api/internal/api/middleware"
	"github.com/campuskart/marketplace-api/internal/core/domain"
	"github.com/campuskart/marketplace-api/internal/core/ports"
	"github.com/campuskart/marketplace-api/internal/core/service"
	mongodb "github.com/campuskart/marketplace-api/internal/infrastructure/db/mongo"
	redisdb "github.com/campuskart/marketplace-api/internal/infrastructure/db/redis"
	"github.com/campuskart/marketplace-api/internal/infrastructure/mail"
)

// RouterConfig carries the settings the HTTP layer needs from the environment.
type RouterConfig struct {
	Env                string
	AccessSecret       string
	RefreshSecret      string
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	AllowedEmailDomain string
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *goredis.Client, cfg RouterConfig, activity ports.ActivityRecorder, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log, cfg.Env)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("marketplace"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	listingRepo := mongodb.NewListingRepository(db)
	orderRepo := mongodb.NewOrderRepository(db)
	views := redisdb.NewViewTracker(rdb)
	mailer := mail.NewLogMailer(log)

	tokenService := service.NewTokenService(userRepo, cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL, log)
	authService := service.NewAuthService(userRepo, tokenService, mailer, activity, cfg.AllowedEmailDomain, log)
	listingService := service.NewListingService(listingRepo, views, activity, log)
	orderService := service.NewOrderService(orderRepo, listingRepo, listingService, activity, log)

	authHandler := handler.NewAuthHandler(authService, cfg.AccessTTL, cfg.RefreshTTL)
	listingHandler := handler.NewListingHandler(listingService)
	orderHandler := handler.NewOrderHandler(orderService)

	authRequired := middleware.Auth(tokenService)
	authOptional := middleware.OptionalAuth(tokenService)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout, authRequired)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/verify-email", authHandler.VerifyEmail)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.POST("/change-password", authHandler.ChangePassword, authRequired)
	auth.GET("/me", authHandler.Me, authRequired)
	auth.PUT("/me", authHandler.UpdateMe, authRequired)

	// --- Admin user management ---
	users := e.Group("/users", authRequired, adminOnly)
	users.GET("", authHandler.ListUsers)
	users.GET("/:id", authHandler.GetUser)
	users.DELETE("/:id", authHandler.DeleteUser)
	users.PUT("/:id/roles", authHandler.UpdateRoles)

	// --- Listings ---
	listings := e.Group("/listings")
	listings.GET("", listingHandler.Browse)
	listings.POST("", listingHandler.Create, authRequired)
	listings.GET("/mine", listingHandler.Mine, authRequired)
	listings.GET("/:id", listingHandler.Get, authOptional)
	listings.PATCH("/:id/activate", listingHandler.Activate, authRequired)
	listings.PATCH("/:id/deactivate", listingHandler.Deactivate, authRequired)
	listings.PATCH("/:id/reserve", listingHandler.Reserve, authRequired)
	listings.PATCH("/:id/sold", listingHandler.MarkSold, authRequired)

	// --- Orders ---
	orders := e.Group("/orders", authRequired)
	orders.POST("", orderHandler.Create)
	orders.GET("/mine", orderHandler.Mine)
	orders.GET("/sales", orderHandler.Sales)
	orders.GET("/:id", orderHandler.Get)
	orders.PATCH("/:id/status", orderHandler.UpdateStatus)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
