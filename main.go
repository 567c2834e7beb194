package main

import (
	"embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	config "github.com/drummonds/gobrewer/config"
	database "github.com/drummonds/gobrewer/database"
	_ "github.com/drummonds/gobrewer/docs"
	engine "github.com/drummonds/gobrewer/engine"
	"github.com/drummonds/gobrewer/engine/compiler"
	"github.com/drummonds/gobrewer/engine/viewer"
	"github.com/drummonds/gobrewer/webapp"
)

//go:embed webapp/webapp.css
var webappFS embed.FS

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// @title GOBREWER API
// @version 1.0
// @description Document viewer: open PDF, Markdown or YAML sources, page through them and save the compiled PDF.
// @BasePath /api

// @tag.name View
// @tag.description Open, navigate and render the current document

// @tag.name Preferences
// @tag.description Remembered folders and recent documents

// @tag.name Jobs
// @tag.description Load, reload and save job tracking

// @tag.name Admin
// @tag.description Version and configuration

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
	viewerConfig, logger := config.SetupViewer()
	injectGlobals(logger) //inject the logger into all of the packages

	// Show info banner if using ephemeral database
	if viewerConfig.DatabaseType == "ephemeral" {
		fmt.Println("\n" + strings.Repeat("=", 50))
		fmt.Println("🚀  EPHEMERAL DATABASE MODE")
		fmt.Println(strings.Repeat("=", 50))
		fmt.Println("• Preferences and recent documents are lost on exit")
		fmt.Println(strings.Repeat("=", 50) + "\n")
	}

	Logger.Info("Setting up database", "type", viewerConfig.DatabaseType)
	db, err := database.NewRepository(viewerConfig)
	if err != nil {
		Logger.Error("Failed to set up database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	Logger.Info("Database setup complete")

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = newErrorHandler(e)

	serverHandler, err := engine.NewViewerServer(viewerConfig, db, e)
	if err != nil {
		Logger.Error("Failed to create viewer", "error", err)
		os.Exit(1)
	}
	defer serverHandler.Close()

	serverHandler.InitializeSchedules() //initialize all the cron jobs
	if err := serverHandler.StartupChecks(); err != nil {
		Logger.Warn("Startup checks reported a problem", "error", err)
	}
	Logger.Info("Startup checks complete")
	e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))

	registerUI(e, viewerConfig.ServerAPIURL)

	// Close the viewer cleanly on Ctrl-C so the last document is released.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		Logger.Info("Shutting down")
		if err := e.Close(); err != nil {
			Logger.Error("Failed to close server", "error", err)
		}
	}()

	if viewerConfig.ListenAddrIP == "" {
		Logger.Info("No Ip Addr set, binding on ALL addresses")
	}
	startWithRetry(e, &viewerConfig)
}

// newErrorHandler answers unknown API paths with JSON and everything else
// with a small HTML page.
func newErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		if code == http.StatusNotFound {
			if strings.HasPrefix(c.Request().URL.Path, "/api/") {
				c.JSON(http.StatusNotFound, map[string]string{
					"error":   "Not Found",
					"message": "The requested API endpoint does not exist",
					"path":    c.Request().URL.Path,
				})
				return
			}
			c.HTML(http.StatusNotFound, `<!DOCTYPE html>
<html>
<head><title>404 - Not Found</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
	<h1>404 - Page Not Found</h1>
	<a href="/" style="color: #3498db; text-decoration: none; font-size: 18px;">← Back to the viewer</a>
</body>
</html>`)
			return
		}

		e.DefaultHTTPErrorHandler(err, c)
	}
}

// registerUI serves the go-app client. The wasm binary is built separately
// into web/app.wasm.
func registerUI(e *echo.Echo, apiURL string) {
	Logger.Info("Setting up go-app WASM UI")
	appHandler := webapp.Handler()

	e.File("/wasm_exec.js", "web/wasm_exec.js")
	e.GET("/app.js", echo.WrapHandler(appHandler))
	e.GET("/app.css", echo.WrapHandler(appHandler))
	e.GET("/manifest.webmanifest", echo.WrapHandler(appHandler))
	e.Static("/web", "web")

	e.GET("/webapp/webapp.css", func(c echo.Context) error {
		data, err := webappFS.ReadFile("webapp/webapp.css")
		if err != nil {
			return c.String(http.StatusNotFound, "webapp.css not found")
		}
		return c.Blob(http.StatusOK, "text/css", data)
	})

	e.GET("/config.js", func(c echo.Context) error {
		c.Response().Header().Set("Content-Type", "application/javascript")
		return c.String(http.StatusOK, webapp.ConfigScript(apiURL))
	})

	// Serve go-app handler for all other routes (must be last)
	e.Any("/*", echo.WrapHandler(appHandler))
}

// startWithRetry starts the server, moving to the next port while the
// requested one is taken.
func startWithRetry(e *echo.Echo, cfg *config.ViewerConfig) {
	maxRetries := 5
	startPort := cfg.ListenAddrPort

	for attempt := 0; attempt < maxRetries; attempt++ {
		addr := fmt.Sprintf("%s:%s", cfg.ListenAddrIP, cfg.ListenAddrPort)
		Logger.Info("Attempting to start server", "address", addr, "attempt", attempt+1)
		if cfg.ListenAddrPort != startPort {
			Logger.Warn("Starting on alternative port due to conflicts",
				"requested_port", startPort,
				"actual_port", cfg.ListenAddrPort)
		}

		err := e.Start(addr)
		switch {
		case err == nil || err == http.ErrServerClosed:
			return
		case isAddressInUse(err):
			Logger.Warn("Port already in use, trying next port",
				"port", cfg.ListenAddrPort,
				"attempt", attempt+1,
				"max_attempts", maxRetries)
			portNum := 0
			fmt.Sscanf(cfg.ListenAddrPort, "%d", &portNum)
			cfg.ListenAddrPort = fmt.Sprintf("%d", portNum+1)
		default:
			Logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}
	Logger.Error("Failed to find available port after maximum retries",
		"start_port", startPort,
		"end_port", cfg.ListenAddrPort,
		"max_retries", maxRetries)
	os.Exit(1)
}

// isAddressInUse checks if the error is due to address already in use
func isAddressInUse(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "address already in use")
}
