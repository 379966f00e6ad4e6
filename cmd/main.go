package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"billease/internal/analytics"
	"billease/internal/caching"
	"billease/internal/config"
	"billease/internal/handlers"
	"billease/internal/jobs/background"
	"billease/internal/logger"
	"billease/internal/middleware"
	"billease/internal/repositories"
	"billease/internal/services"
	"billease/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := logger.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	pool, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = random.String(32)
		log.Warn().Msg("JWT_SECRET not set, using a generated secret; tokens will not survive restarts")
	}

	// Storage for generated invoice PDFs
	storageSvc, err := services.NewMinioStorageService(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	partyRepo := repositories.NewPartyRepository(pool)
	itemRepo := repositories.NewItemRepository(pool)
	invoiceRepo := repositories.NewInvoiceRepository(pool)

	// Cache
	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	// Services
	analyticsSvc := analytics.NewAnalyticsService(invoiceRepo, partyRepo, cacheSvc)
	partySvc := services.NewPartyService(partyRepo, cacheSvc)
	itemSvc := services.NewItemService(itemRepo, cacheSvc)
	invoiceSvc := services.NewInvoiceService(invoiceRepo, partyRepo, itemRepo, cacheSvc)
	authSvc := services.NewAuthService(jwtSecret, cacheSvc)

	var insightsSvc services.InsightsService
	if cfg.OpenAIAPIKey != "" {
		insightsSvc = services.NewInsightsService(openai.NewClient(cfg.OpenAIAPIKey), cfg.OpenAIModel)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, insights endpoint disabled")
	}

	// Handlers
	authHandlers := handlers.NewAuthHandlers(userRepo, authSvc)
	partyHandlers := handlers.NewPartyHandlers(partySvc)
	itemHandlers := handlers.NewItemHandlers(itemSvc)
	invoiceHandlers := handlers.NewInvoiceHandlers(invoiceSvc, partySvc, storageSvc)
	dashboardHandlers := handlers.NewDashboardHandlers(analyticsSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Background jobs
	scheduler, err := background.NewJobScheduler(analyticsSvc, invoiceRepo)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create job scheduler")
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop job scheduler")
		}
	}()

	// Echo instance
	e := echo.New()
	e.HideBanner = true

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	v1 := e.Group("/v1")

	// Authentication routes (no JWT required)
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)

	// Protected routes
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(jwtSecret),
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			token, err := jwt.ParseWithClaims(auth, new(middleware.JWTCustomClaims), func(t *jwt.Token) (interface{}, error) {
				if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
				}
				return []byte(jwtSecret), nil
			})
			if err != nil {
				return nil, err
			}
			claims, ok := token.Claims.(*middleware.JWTCustomClaims)
			if !ok || !token.Valid {
				return nil, fmt.Errorf("invalid token")
			}
			return middleware.ParseJWTPayload(c, claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(401, "Invalid token")
		},
	}))

	protected.GET("/me", authHandlers.Me)

	// Party routes
	protected.GET("/parties", partyHandlers.ListParties)
	protected.POST("/parties", partyHandlers.CreateParty)
	protected.GET("/parties/:id", partyHandlers.GetPartyByID)
	protected.PUT("/parties/:id", partyHandlers.UpdateParty)
	protected.DELETE("/parties/:id", partyHandlers.DeleteParty)

	// Item routes
	protected.GET("/items", itemHandlers.ListItems)
	protected.GET("/items/search", itemHandlers.SearchItems)
	protected.POST("/items", itemHandlers.CreateItem)
	protected.GET("/items/:id", itemHandlers.GetItemByID)
	protected.PUT("/items/:id", itemHandlers.UpdateItem)
	protected.DELETE("/items/:id", itemHandlers.DeleteItem)

	// Invoice routes
	protected.GET("/invoices", invoiceHandlers.ListInvoices)
	protected.POST("/invoices", invoiceHandlers.CreateInvoice)
	protected.GET("/invoices/:id", invoiceHandlers.GetInvoiceByID)
	protected.DELETE("/invoices/:id", invoiceHandlers.DeleteInvoice)
	protected.POST("/invoices/:id/payments", invoiceHandlers.RecordPayment)
	protected.POST("/invoices/:id/generate-pdf", invoiceHandlers.GenerateInvoicePDF)

	// Dashboard routes
	protected.GET("/dashboard/stats", dashboardHandlers.GetDashboardStats)
	protected.POST("/dashboard/stats/refresh", dashboardHandlers.RefreshDashboardStats)

	// Insights route, only when a model is configured
	if insightsSvc != nil {
		insightsHandlers := handlers.NewInsightsHandlers(insightsSvc)
		protected.POST("/insights", insightsHandlers.GenerateInsights)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Str("addr", addr).Msg("Starting server")
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
