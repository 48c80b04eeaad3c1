package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"aioracle/database"
	"aioracle/handlers"
	"aioracle/middleware"
	"aioracle/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Initialize database (optional; game records only)
	database.InitDB()

	// Wire up the game stack
	registry := services.NewRegistry()
	content := services.NewContentService()
	oracle := services.NewOracleService()
	game := services.NewGameService(registry, content, oracle, services.DefaultTiming())
	handlers.InitMultiplayer(game)

	// Background maintenance
	services.InitCleanupService(game)
	services.GetCleanupService().Start()
	defer services.GetCleanupService().Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    1 * 1024 * 1024, // 1MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	// Apply rate limiting to all routes
	app.Use(middleware.FiberRateLimitMiddleware())

	// Serve the game client
	app.Static("/", "./static")
	app.Static("/css", "./static/css")
	app.Static("/js", "./static/js")

	// API Routes
	api := app.Group("/api")

	// Game record routes
	api.Get("/games/recent", handlers.GetRecentGames)
	api.Get("/players/:name/stats", handlers.GetPlayerStats)

	// Debug endpoints for troubleshooting live games (remove in production)
	api.Get("/debug/rooms", handlers.GetActiveRooms)
	api.Get("/debug/rooms/:code", handlers.GetRoomByCode)

	// Clients connecting to /ws on the HTTP port get pointed at the
	// WebSocket server; Fiber cannot proxy the upgrade.
	app.Get("/ws", func(c *fiber.Ctx) error {
		wsPort := getEnv("WS_PORT", "4000")
		wsURL := "ws://localhost:" + wsPort + "/ws"
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
			"error":   "WebSocket endpoint moved",
			"message": "Please connect to " + wsURL,
			"ws_url":  wsURL,
		})
	})

	// HTML routes
	app.Get("/", serveFile("./static/index.html"))
	app.Get("/game", serveFile("./static/game.html"))
	app.Get("/game.html", serveFile("./static/game.html"))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "healthy",
			"timestamp":   time.Now().Unix(),
			"version":     "1.0.0",
			"rooms":       registry.Count(),
			"connections": handlers.ActiveConnections(),
		})
	})

	// Start WebSocket server (pure net/http)
	wsPort := getEnv("WS_PORT", "4000")
	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", handlers.WebSocketHandler)

	var wsHandler http.Handler = wsMux
	wsHandler = middleware.SocketRateLimitMiddleware(wsHandler)
	wsHandler = middleware.HTTPCORSMiddleware([]string{corsOrigins})(wsHandler)
	wsHandler = middleware.HTTPRecoverMiddleware(wsHandler)

	wsServer := &http.Server{
		Addr:    ":" + wsPort,
		Handler: wsHandler,
	}

	go func() {
		log.Printf("🌐 WebSocket server starting on port %s", wsPort)
		if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("WebSocket server failed:", err)
		}
	}()

	// Start Fiber HTTP/REST server
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("🚀 HTTP server starting on port %s", port)
	log.Printf("📊 Environment: %s", getEnv("APP_ENV", "development"))
	log.Printf("🔮 Oracle AI configured: %v", oracle.IsAvailable())
	log.Printf("🌐 WebSocket available at ws://localhost:%s/ws", wsPort)

	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start HTTP server:", err)
	}
}

// Helper functions
func serveFile(filepath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendFile(filepath)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Don't expose internal errors in production
	if os.Getenv("APP_ENV") == "production" && code == 500 {
		message = "An error occurred. Please try again later."
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
