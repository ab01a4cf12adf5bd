package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/holosched/backend/config"
	"github.com/holosched/backend/internal/auth"
	"github.com/holosched/backend/internal/cache"
	"github.com/holosched/backend/internal/database"
	"github.com/holosched/backend/internal/handlers"
	"github.com/holosched/backend/internal/middleware"
	"github.com/holosched/backend/internal/repository"
	"github.com/holosched/backend/internal/websocket"
	"github.com/holosched/backend/internal/youtube"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewPostgresDB(cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	log.Println("Running database migrations...")
	if err := database.RunMigrations(db.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	// Connect to Redis
	redis, err := cache.NewRedisClient(cfg.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		log.Println("Running without Redis - metadata caching and live updates disabled")
		redis = nil
	} else {
		defer redis.Close()
	}

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	ytClient := youtube.NewClient(cfg.YouTube.APIKey, time.Duration(cfg.YouTube.TimeoutSeconds)*time.Second)
	if redis != nil {
		ytClient.SetCache(redis)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	streamRepo := repository.NewStreamRepository(db)
	followRepo := repository.NewFollowRepository(db)
	bookRepo := repository.NewBookRepository(db)
	loanRepo := repository.NewLoanRepository(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userRepo, jwtService)
	streamHandler := handlers.NewStreamHandler(streamRepo, ytClient, redis, cfg)
	followHandler := handlers.NewFollowHandler(followRepo, userRepo)
	libraryHandler := handlers.NewLibraryHandler(bookRepo, loanRepo)

	// Initialize WebSocket hub (only if Redis is available)
	var wsHandler *websocket.Handler
	if redis != nil {
		hub := websocket.NewHub(redis)
		go hub.Run()
		wsHandler = websocket.NewHandler(hub, jwtService, cfg.CORS.AllowedOrigins)
	}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg.API.RateLimitRequestsPerSec)
	rateLimiter.Cleanup()

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public routes
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	// WebSocket endpoint (only if Redis is available)
	if wsHandler != nil {
		router.GET("/ws", wsHandler.HandleWebSocket)
	}

	// Protected routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtService))
	{
		// User routes
		api.GET("/me", authHandler.GetMe)

		// Stream routes
		api.GET("/streams", streamHandler.ListStreams)
		api.POST("/streams", middleware.RateLimitMiddleware(rateLimiter), streamHandler.CreateStream)
		api.POST("/streams/youtube", middleware.RateLimitMiddleware(rateLimiter), streamHandler.AddFromYouTube)
		api.POST("/streams/import", middleware.RateLimitMiddleware(rateLimiter), streamHandler.ImportChannel)
		api.DELETE("/streams/:id", streamHandler.DeleteStream)

		// Weekly schedule
		api.GET("/schedule", streamHandler.GetWeeklySchedule)

		// Follow routes
		api.GET("/follows", followHandler.ListFollowed)
		api.POST("/follows", followHandler.Follow)
		api.DELETE("/follows/:streamer_id", followHandler.Unfollow)
		api.GET("/streamers", followHandler.SearchStreamers)

		// Library routes
		api.GET("/library/books", libraryHandler.SearchBooks)
		api.GET("/library/books/:id", libraryHandler.GetBook)
		api.GET("/library/categories", libraryHandler.ListCategories)
		api.GET("/library/categories/:id/books", libraryHandler.ListBooksByCategory)
		api.POST("/library/loans", middleware.RateLimitMiddleware(rateLimiter), libraryHandler.BorrowBook)
		api.POST("/library/loans/return", libraryHandler.ReturnBook)
		api.GET("/library/loans", libraryHandler.ListLoans)
	}

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Starting holosched server on %s (env: %s)", addr, cfg.Server.Env)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
