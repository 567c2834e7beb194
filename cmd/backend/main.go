package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	config "github.com/drummonds/gobrewer/config"
	database "github.com/drummonds/gobrewer/database"
	_ "github.com/drummonds/gobrewer/docs"
	engine "github.com/drummonds/gobrewer/engine"
	"github.com/drummonds/gobrewer/engine/compiler"
	"github.com/drummonds/gobrewer/engine/viewer"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	database.Logger = Logger
	config.Logger = Logger
	engine.Logger = Logger
	compiler.Logger = Logger
	viewer.SetLogger(Logger.With("component", "viewer"))
}

func main() {
	port := flag.String("port", "", "Port to run backend server on (overrides SERVER_PORT)")
	open := flag.String("open", "", "Source to open at startup (overrides OPEN_PATH)")
	flag.Parse()

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("🔧  GOBREWER Backend API Server")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("• API-only mode (no frontend)")
	fmt.Println("• All endpoints under /api/*")
	fmt.Println("• CORS enabled for frontend access")
	fmt.Println(strings.Repeat("=", 50) + "\n")

	viewerConfig, logger := config.SetupViewer()
	injectGlobals(logger) //inject the logger into all of the packages
	if *port != "" {
		viewerConfig.ListenAddrPort = *port
	}
	if *open != "" {
		viewerConfig.OpenPath = *open
	}

	repo, err := database.NewRepository(viewerConfig)
	if err != nil {
		Logger.Error("Failed to set up database", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	e := echo.New()
	e.HideBanner = true

	// Custom 404 handler for API endpoints
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}
		if code == http.StatusNotFound {
			c.JSON(http.StatusNotFound, map[string]string{
				"error":   "Not Found",
				"message": "The requested API endpoint does not exist",
				"path":    c.Request().URL.Path,
			})
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}

	serverHandler, err := engine.NewViewerServer(viewerConfig, repo, e)
	if err != nil {
		Logger.Error("Failed to create viewer", "error", err)
		os.Exit(1)
	}
	defer serverHandler.Close()

	Logger.Info("Initializing backend services...")
	serverHandler.InitializeSchedules()
	if err := serverHandler.StartupChecks(); err != nil {
		Logger.Warn("Startup checks reported a problem", "error", err)
	}

	// CORS configuration - allow frontend from different origin
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"}, // In production, specify your frontend URL
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Request logging
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool { return c.Path() == "/api/view/events" },
		Format:  "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
	}))

	// Health check endpoint
	e.GET("/api/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "GOBREWER Backend API",
		})
	})

	addr := fmt.Sprintf("%s:%s", viewerConfig.ListenAddrIP, viewerConfig.ListenAddrPort)
	Logger.Info("Starting Backend API Server", "address", addr)
	fmt.Printf("\n✅  Backend API Server running on %s\n", addr)
	fmt.Printf("📡  API endpoints available at http://%s/api/\n", addr)
	fmt.Printf("🏥  Health check: http://%s/api/health\n\n", addr)

	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		Logger.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}
