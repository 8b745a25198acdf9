package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
	"github.com/storelink/warehouse-rental-backend/internal/config"
	"github.com/storelink/warehouse-rental-backend/internal/database"
	"github.com/storelink/warehouse-rental-backend/internal/handlers"
	"github.com/storelink/warehouse-rental-backend/internal/middleware"
	"github.com/storelink/warehouse-rental-backend/internal/services"
	"github.com/storelink/warehouse-rental-backend/pkg/jwt"
	"github.com/storelink/warehouse-rental-backend/pkg/mail"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

// sweepStore joins the rental and lot repositories into the persistence
// slice the expiration sweep works over.
type sweepStore struct {
	*database.RentalRepository
	*database.LotRepository
}

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting StoreLink Warehouse Rental Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Repositories need the underlying *sqlx.DB
	sqlxDB, ok := db.(*database.PostgresDB)
	if !ok {
		logger.Fatal("Failed to cast database connection to PostgresDB")
	}

	// Initialize repositories
	lotRepo := database.NewLotRepository(sqlxDB.DB)
	rentalRepo := database.NewRentalRepository(sqlxDB.DB)
	paymentRepo := database.NewPaymentRepository(sqlxDB.DB)
	contractRepo := database.NewContractRepository(sqlxDB.DB)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	var mailer mail.Mailer
	if cfg.Mail.Mode == "production" {
		mailer = mail.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
		logger.Info("SMTP mailer initialized")
	} else {
		mailer = mail.NewLogMailer(logger)
		logger.Info("Mailer in development mode (mail is logged, not sent)")
	}

	notificationService := services.NewNotificationService(mailer, []string{cfg.Mail.From}, logger)
	gatewayService := services.NewGatewayService(cfg.Gateway, logger)
	rentalService := services.NewRentalService(rentalRepo, lotRepo, notificationService, cfg.Sweep.Lookahead, logger)
	paymentService := services.NewPaymentService(paymentRepo, rentalRepo, gatewayService, logger)
	reconciliationService := services.NewReconciliationService(gatewayService, paymentRepo, rentalRepo, logger)

	// Start the expiration sweep
	expirationService := services.NewExpirationService(
		&sweepStore{RentalRepository: rentalRepo, LotRepository: lotRepo},
		cfg.Sweep,
		logger,
	)
	expirationService.Start()

	logger.Info("Services initialized")

	// Initialize handlers
	rentalHandler := handlers.NewRentalHandler(rentalService, logger)
	lotHandler := handlers.NewLotHandler(rentalService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, reconciliationService, logger)
	contractHandler := handlers.NewContractHandler(contractRepo, rentalRepo)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Gateway callbacks (public; authenticated by signature, not JWT)
		payments := v1.Group("/payments")
		{
			payments.GET("/ipn", paymentHandler.IPN)
			payments.GET("/gateway-return", paymentHandler.GatewayReturn)
		}

		// Rental routes (protected)
		rentals := v1.Group("/rentals")
		rentals.Use(middleware.AuthMiddleware(jwtService))
		{
			rentals.POST("", rentalHandler.CreateRental)
			rentals.GET("/expiring", rentalHandler.ListExpiring)
			rentals.GET("/:id", rentalHandler.GetRental)
			rentals.PATCH("/:id/status", rentalHandler.UpdateRentalStatus)
			rentals.POST("/:id/end-contract", rentalHandler.EndContract)
			rentals.POST("/:id/payments", paymentHandler.InitiatePayment)
			rentals.GET("/:id/payments", paymentHandler.ListRentalPayments)
			rentals.POST("/:id/contract", contractHandler.AttachContract)
		}

		// Lot routes (protected)
		warehouses := v1.Group("/warehouses")
		warehouses.Use(middleware.AuthMiddleware(jwtService))
		{
			warehouses.GET("/:id/lots", lotHandler.ListLots)
		}

		lots := v1.Group("/lots")
		lots.Use(middleware.AuthMiddleware(jwtService))
		{
			lots.PATCH("/:id/status", lotHandler.UpdateLotStatus)
		}

		// Contract routes (protected)
		contracts := v1.Group("/contracts")
		contracts.Use(middleware.AuthMiddleware(jwtService))
		{
			contracts.GET("/:id", contractHandler.GetContract)
			contracts.POST("/:id/sign", contractHandler.SignContract)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop the background sweep before closing the database
	expirationService.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)

		ua := user_agent.New(c.Request.UserAgent())
		browser, browserVersion := ua.Browser()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"os":         ua.OS(),
			"browser":    browser + " " + browserVersion,
			"mobile":     ua.Mobile(),
		}

		if actor, exists := middleware.GetActor(c); exists {
			fields["user_id"] = actor.UserID
			fields["role"] = actor.Role
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
