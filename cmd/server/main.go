package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/railsewa/railway-reservation-backend/internal/cache"
	"github.com/railsewa/railway-reservation-backend/internal/config"
	"github.com/railsewa/railway-reservation-backend/internal/database"
	"github.com/railsewa/railway-reservation-backend/internal/events"
	"github.com/railsewa/railway-reservation-backend/internal/handlers"
	"github.com/railsewa/railway-reservation-backend/internal/middleware"
	"github.com/railsewa/railway-reservation-backend/internal/models"
	"github.com/railsewa/railway-reservation-backend/internal/services"
	"github.com/railsewa/railway-reservation-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Railway Reservation Backend")
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

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// The booking repository manages its own transactions, so it needs the
	// underlying *sqlx.DB rather than the DB interface
	sqlxDB, ok := db.(*database.PostgresDB)
	if !ok {
		logger.Fatal("Failed to cast database connection to PostgresDB")
	}

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	refreshTokenRepo := database.NewRefreshTokenRepository(db)
	sessionRepo := database.NewSessionRepository(db)
	stationRepo := database.NewStationRepository(db)
	trainRepo := database.NewTrainRepository(db)
	bookingRepo := database.NewBookingRepository(sqlxDB.DB)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	sessionService := services.NewSessionService(sessionRepo, logger)
	availabilityService := services.NewAvailabilityService(
		bookingRepo,
		cfg.Booking.RACRatio,
		cfg.Booking.WaitlistRatio,
		logger,
	)
	fareCalculator := services.NewFareCalculator(services.FixedDistance(cfg.Booking.AssumedDistanceKm))

	// Optional kafka producer for booking lifecycle events
	var producer services.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = events.NewKafkaProducer(cfg.Kafka.Brokers)
		logger.WithField("brokers", cfg.Kafka.Brokers).Info("Kafka producer enabled")
	} else {
		logger.Info("Kafka brokers not configured, event publishing disabled")
	}

	bookingService := services.NewBookingService(
		bookingRepo,
		trainRepo,
		availabilityService,
		fareCalculator,
		producer,
		cfg.Booking,
		logger,
	)

	// Optional redis cache for train search
	var searchCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		searchCache = cache.NewRedisCache(cfg.Redis, cfg.Booking.SearchCacheTTL)
		defer searchCache.Close()
		logger.WithField("addr", cfg.Redis.Addr).Info("Redis search cache enabled")
	} else {
		logger.Info("Redis not configured, train search cache disabled")
	}

	// Initialize and start cron service
	cronService := services.NewCronService(refreshTokenRepo, bookingRepo)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("Cron service started")

	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userRepo, refreshTokenRepo, jwtService, sessionService, cfg, logger)
	userHandler := handlers.NewUserHandler(userRepo, refreshTokenRepo, sessionRepo, cfg, logger)
	stationHandler := handlers.NewStationHandler(stationRepo, logger)
	trainHandler := handlers.NewTrainHandler(trainRepo, bookingService, searchCache, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)

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

	// API routes
	api := router.Group("/api")
	{
		// Authentication routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)

			authProtected := auth.Group("")
			authProtected.Use(middleware.AuthMiddleware(jwtService))
			{
				authProtected.POST("/logout", authHandler.Logout)
			}
		}

		// User routes (protected)
		users := api.Group("/users")
		users.Use(middleware.AuthMiddleware(jwtService))
		{
			users.GET("/profile", userHandler.GetProfile)
			users.PUT("/profile", userHandler.UpdateProfile)
			users.PUT("/password", userHandler.ChangePassword)
			users.GET("/sessions", userHandler.GetSessions)

			admin := users.Group("")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.GET("", userHandler.ListUsers)
				admin.PUT("/:userId/status", userHandler.UpdateUserStatus)
				admin.PUT("/:userId/role", userHandler.UpdateUserRole)
			}
		}

		// Station routes (reads public, writes admin)
		stations := api.Group("/stations")
		{
			stations.GET("", stationHandler.ListStations)
			stations.GET("/:stationId", stationHandler.GetStation)

			stationAdmin := stations.Group("")
			stationAdmin.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(models.RoleAdmin))
			{
				stationAdmin.POST("", stationHandler.CreateStation)
				stationAdmin.PUT("/:stationId", stationHandler.UpdateStation)
				stationAdmin.DELETE("/:stationId", stationHandler.DeactivateStation)
			}
		}

		// Train routes (reads public, writes admin)
		trains := api.Group("/trains")
		{
			trains.GET("/search", trainHandler.SearchTrains)
			trains.GET("/:trainId", trainHandler.GetTrain)
			trains.GET("/:trainId/availability", trainHandler.GetAvailability)

			trainAdmin := trains.Group("")
			trainAdmin.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(models.RoleAdmin))
			{
				trainAdmin.POST("", trainHandler.CreateTrain)
				trainAdmin.PUT("/:trainId", trainHandler.UpdateTrain)
				trainAdmin.DELETE("/:trainId", trainHandler.DeactivateTrain)
			}
		}

		// Booking routes (all protected)
		bookings := api.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService))
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.POST("/:bookingId/cancel", bookingHandler.CancelBooking)
			bookings.GET("/pnr/:pnr", bookingHandler.GetBookingByPNR)
			bookings.GET("/history", bookingHandler.GetBookingHistory)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
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

	// Stop cron service
	cronService.Stop()

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
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = userCtx.UserID
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
