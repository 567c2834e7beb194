package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ViewerConfig contains all of the viewer server settings
type ViewerConfig struct {
	ListenAddrIP     string
	ListenAddrPort   string
	DatabaseType     string
	DatabaseHost     string
	DatabasePort     string
	DatabaseUser     string
	DatabasePassword string `json:"-"`
	DatabaseDbname   string
	DatabaseSslmode  string
	// RendererBackend is pdfium or fitz.
	RendererBackend string
	// WarmupPages is how many leading pages are rasterized before a new
	// document is shown. Negative disables warm-up.
	WarmupPages int
	// TemplatePath is where the search for a templates directory starts.
	TemplatePath string
	// ChromePath is the browser used to print Markdown. Empty means search.
	ChromePath string
	// OpenPath is a source to open at startup.
	OpenPath string
	AutoReload bool
	// ReloadInterval is in seconds.
	ReloadInterval int
	FrontEndConfig
}

// FrontEndConfig stores all of the frontend settings
type FrontEndConfig struct {
	ServerAPIURL string
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// SetupViewer loads configuration and returns ViewerConfig and Logger
func SetupViewer() (ViewerConfig, *slog.Logger) {
	// Load .env file (silently ignore if doesn't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")

	logger := setupLogging()
	Logger = logger

	cfg := loadViewerConfig()
	logger.Info("Database configuration loaded", "type", cfg.DatabaseType)

	if cfg.ChromePath != "" {
		if err := checkExecutables(cfg.ChromePath, logger); err != nil {
			logger.Warn("Markdown and YAML sources will fail to compile", "chromePath", cfg.ChromePath)
		}
	} else if path, ok := FindBrowser(); ok {
		cfg.ChromePath = path
		logger.Info("Browser found for Markdown printing", "path", path)
	} else {
		logger.Warn("No Chrome/Chromium found, only PDF sources can be opened")
	}

	fmt.Println("\n========================================")
	fmt.Println("   GOBREWER - Document Viewer")
	fmt.Println("========================================")
	fmt.Printf("Server will start on: %s:%s\n", cfg.ListenAddrIP, cfg.ListenAddrPort)
	if cfg.ListenAddrIP == "" {
		fmt.Println("(Listening on all network interfaces)")
	}
	fmt.Printf("Detailed logs: %s\n", getEnv("LOG_FILE", "gobrewer.log"))

	return cfg, logger
}

// loadViewerConfig reads every setting from the environment.
func loadViewerConfig() ViewerConfig {
	cfg := ViewerConfig{}

	cfg.ListenAddrPort = getEnv("SERVER_PORT", "8000")
	cfg.ListenAddrIP = getEnv("SERVER_ADDR", "")

	cfg.DatabaseType = getEnv("DATABASE_TYPE", "sqlite")
	cfg.DatabaseHost = getEnv("DATABASE_HOST", "localhost")
	cfg.DatabasePort = getEnv("DATABASE_PORT", "5432")
	cfg.DatabaseUser = getEnv("DATABASE_USER", "gobrewer")
	cfg.DatabasePassword = getEnv("DATABASE_PASSWORD", "")
	cfg.DatabaseDbname = getEnv("DATABASE_NAME", "databases/gobrewer.sqlite")
	cfg.DatabaseSslmode = getEnv("DATABASE_SSLMODE", "disable")

	cfg.RendererBackend = getEnv("RENDERER", "pdfium")
	cfg.WarmupPages = getEnvInt("WARMUP_PAGES", 10)

	templatePath, err := filepath.Abs(filepath.ToSlash(getEnv("TEMPLATE_PATH", ".")))
	if err != nil {
		Logger.Error("Failed creating absolute path for template search", "error", err)
	}
	cfg.TemplatePath = templatePath
	cfg.ChromePath = getEnv("CHROME_PATH", "")
	cfg.OpenPath = getEnv("OPEN_PATH", "")

	cfg.AutoReload = getEnvBool("AUTO_RELOAD", true)
	cfg.ReloadInterval = getEnvInt("RELOAD_INTERVAL", 2)
	if cfg.ReloadInterval < 1 {
		cfg.ReloadInterval = 1
	}

	cfg.ServerAPIURL = getEnv("SERVER_API_URL", "")
	return cfg
}

// SetupFrontend loads the settings of the standalone UI server, which
// proxies the API to a separate backend.
func SetupFrontend() (FrontEndConfig, *slog.Logger) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")
	_ = godotenv.Load("frontend.env")

	logger := setupLogging()
	Logger = logger

	frontendConfig := FrontEndConfig{
		ServerAPIURL: getEnv("SERVER_API_URL", "http://localhost:8000"),
	}
	logger.Info("Frontend configuration loaded", "apiURL", frontendConfig.ServerAPIURL)
	return frontendConfig, logger
}

// setupLogging configures the application logger
func setupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "file")
	var logWriter io.Writer

	if logOutput == "stdout" {
		logWriter = os.Stdout
	} else {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "gobrewer.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
			logWriter = os.Stdout
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
				logWriter = os.Stdout
			} else {
				logWriter = logFile
				fmt.Println("Logging to file: ", logPath)
			}
		}
	}

	handler := slog.NewTextHandler(logWriter, handlerOptions)
	return slog.New(handler)
}

var browserNames = []string{
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
}

// FindBrowser looks for a Chrome or Chromium binary on PATH.
func FindBrowser() (string, bool) {
	for _, name := range browserNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

// checkExecutables verifies that an executable exists at the given path
func checkExecutables(path string, logger *slog.Logger) error {
	info, err := os.Stat(path)
	if err != nil {
		logger.Error("Cannot find executable at location specified", "path", path)
		return err
	}
	if info.IsDir() {
		logger.Error("Executable path is a directory", "path", path)
		return fmt.Errorf("%s is a directory", path)
	}
	logger.Debug("Executable found", "path", path)
	return nil
}
