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

	"github.com/himaltransit/fleet-booking-backend/internal/config"
	"github.com/himaltransit/fleet-booking-backend/internal/database"
	"github.com/himaltransit/fleet-booking-backend/internal/handlers"
	"github.com/himaltransit/fleet-booking-backend/internal/middleware"
	"github.com/himaltransit/fleet-booking-backend/internal/services"
	"github.com/himaltransit/fleet-booking-backend/internal/utils"
	"github.com/himaltransit/fleet-booking-backend/pkg/jwt"
	"github.com/himaltransit/fleet-booking-backend/pkg/realtime"
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

	logger.Info("Starting Fleet Booking Backend")
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

	// Initialize repositories
	vehicleRepo := database.NewVehicleRepository(db)
	routeRepo := database.NewRouteRepository(db)
	scheduleRepo := database.NewScheduleRepository(db)
	seatRepo := database.NewSeatRepository(db)
	seatAvailRepo := database.NewSeatAvailabilityRepository(db)
	ticketRepo := database.NewTicketRepository(db)
	offerRepo := database.NewOfferRepository(db)
	reservationRepo := database.NewSpecialReservationRepository(db)
	customerRepo := database.NewCustomerRepository(db)
	notificationRepo := database.NewNotificationRepository(db)

	// Initialize realtime hub
	hub := realtime.NewHub(logger)
	go hub.Run()

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	notificationService := services.NewNotificationService(notificationRepo, customerRepo, logger)
	availabilityService := services.NewAvailabilityService(vehicleRepo, scheduleRepo, reservationRepo, logger)
	pricingService := services.NewPricingService(services.NewDefaultSurchargePolicy(cfg.Pricing), cfg.Pricing, logger)
	seatService := services.NewSeatService(seatRepo, seatAvailRepo, vehicleRepo, logger)
	authService := services.NewAuthService(customerRepo, jwtService, notificationService, logger)
	vehicleService := services.NewVehicleService(vehicleRepo, seatService, notificationService, hub, logger)
	offerService := services.NewOfferService(offerRepo, pricingService, logger)
	scheduleService := services.NewScheduleService(
		db,
		scheduleRepo,
		routeRepo,
		vehicleRepo,
		ticketRepo,
		availabilityService,
		seatService,
		pricingService,
		notificationService,
		hub,
		logger,
	)
	bookingService := services.NewBookingService(
		db,
		ticketRepo,
		scheduleRepo,
		offerRepo,
		seatAvailRepo,
		seatService,
		pricingService,
		notificationService,
		hub,
		logger,
	)
	reservationService := services.NewReservationService(
		db,
		reservationRepo,
		vehicleRepo,
		availabilityService,
		pricingService,
		notificationService,
		hub,
		cfg.Pricing,
		logger,
	)

	// Initialize and start background sweeps
	cronService := services.NewCronService(
		scheduleService,
		reservationService,
		bookingService,
		notificationService,
		cfg.Sweep,
		logger,
	)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger)
	vehicleHandler := handlers.NewVehicleHandler(vehicleService, availabilityService, logger)
	routeHandler := handlers.NewRouteHandler(routeRepo, logger)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, seatService, logger)
	ticketHandler := handlers.NewTicketHandler(bookingService, logger)
	offerHandler := handlers.NewOfferHandler(offerService, logger)
	reservationHandler := handlers.NewReservationHandler(reservationService, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationService, logger)
	realtimeHandler := handlers.NewRealtimeHandler(hub, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Realtime event stream
	router.GET("/ws", middleware.AuthMiddleware(jwtService), realtimeHandler.Serve)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)

			protected := auth.Group("")
			protected.Use(middleware.AuthMiddleware(jwtService))
			{
				protected.GET("/me", authHandler.Me)
			}
		}

		// Vehicle routes
		vehicles := v1.Group("/vehicles")
		vehicles.Use(middleware.AuthMiddleware(jwtService))
		{
			vehicles.GET("", vehicleHandler.ListVehicles)
			vehicles.GET("/available", vehicleHandler.ListAvailable)
			vehicles.GET("/:id", vehicleHandler.GetVehicle)
			vehicles.GET("/:id/availability", vehicleHandler.CheckAvailability)

			staffOnly := vehicles.Group("")
			staffOnly.Use(middleware.RequireStaff())
			{
				staffOnly.POST("", vehicleHandler.CreateVehicle)
				staffOnly.PATCH("/:id/status", vehicleHandler.UpdateStatus)
			}
		}

		// Vehicle type and subtype routes (staff)
		vehicleTypes := v1.Group("/vehicle-types")
		vehicleTypes.Use(middleware.AuthMiddleware(jwtService), middleware.RequireStaff())
		{
			vehicleTypes.POST("", vehicleHandler.CreateType)
		}
		vehicleSubtypes := v1.Group("/vehicle-subtypes")
		vehicleSubtypes.Use(middleware.AuthMiddleware(jwtService))
		{
			vehicleSubtypes.GET("", vehicleHandler.ListSubtypes)
			vehicleSubtypes.POST("", middleware.RequireStaff(), vehicleHandler.CreateSubtype)
		}

		// Route routes
		routes := v1.Group("/routes")
		routes.Use(middleware.AuthMiddleware(jwtService))
		{
			routes.GET("", routeHandler.ListRoutes)
			routes.GET("/:id", routeHandler.GetRoute)
			routes.POST("", middleware.RequireStaff(), routeHandler.CreateRoute)
		}

		// Schedule routes
		schedules := v1.Group("/schedules")
		schedules.Use(middleware.AuthMiddleware(jwtService))
		{
			schedules.GET("", scheduleHandler.ListSchedules)
			schedules.GET("/:id", scheduleHandler.GetSchedule)
			schedules.GET("/:id/seats", scheduleHandler.GetSeats)

			staffOnly := schedules.Group("")
			staffOnly.Use(middleware.RequireStaff())
			{
				staffOnly.POST("", scheduleHandler.CreateSchedule)
				staffOnly.PUT("/:id", scheduleHandler.UpdateSchedule)
				staffOnly.POST("/:id/complete", scheduleHandler.CompleteSchedule)
			}
		}

		// Ticket routes
		tickets := v1.Group("/tickets")
		tickets.Use(middleware.AuthMiddleware(jwtService))
		{
			tickets.POST("", ticketHandler.BookTicket)
			tickets.GET("/mine", ticketHandler.ListMine)
			tickets.GET("/:id", ticketHandler.GetTicket)
			tickets.POST("/:id/cancel", ticketHandler.CancelTicket)
			tickets.POST("/:id/confirm", middleware.RequireStaff(), ticketHandler.ConfirmTicket)
		}

		// Offer routes
		offers := v1.Group("/offers")
		offers.Use(middleware.AuthMiddleware(jwtService))
		{
			offers.POST("/validate", offerHandler.ValidateOffer)

			staffOnly := offers.Group("")
			staffOnly.Use(middleware.RequireStaff())
			{
				staffOnly.POST("", offerHandler.CreateOffer)
				staffOnly.GET("", offerHandler.ListOffers)
			}
		}

		// Charter reservation routes
		reservations := v1.Group("/reservations")
		reservations.Use(middleware.AuthMiddleware(jwtService))
		{
			reservations.POST("", reservationHandler.CreateReservation)
			reservations.POST("/quote", reservationHandler.QuoteReservation)
			reservations.GET("/mine", reservationHandler.ListMine)
			reservations.GET("/:id", reservationHandler.Get)
			reservations.POST("/:id/cancel", reservationHandler.Cancel)

			staffOnly := reservations.Group("")
			staffOnly.Use(middleware.RequireStaff())
			{
				staffOnly.GET("", reservationHandler.List)
				staffOnly.POST("/:id/approve", reservationHandler.Approve)
				staffOnly.POST("/:id/reject", reservationHandler.Reject)
				staffOnly.POST("/:id/complete", reservationHandler.Complete)
				staffOnly.POST("/:id/payments", reservationHandler.RecordPayment)
			}
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthMiddleware(jwtService))
		{
			notifications.GET("", notificationHandler.List)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
		}

		// Realtime status (staff)
		v1.GET("/realtime/status",
			middleware.AuthMiddleware(jwtService), middleware.RequireStaff(),
			realtimeHandler.Status)
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

	// Stop background sweeps first so no new work starts mid-shutdown
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
			"ip":         utils.GetRealIP(c),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["customer_id"] = userCtx.CustomerID
			fields["role"] = userCtx.Role
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
