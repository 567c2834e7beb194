package engine

import (
	"errors"
	"os"

	"github.com/drummonds/gobrewer/config"
	"github.com/drummonds/gobrewer/database"
	"github.com/drummonds/gobrewer/engine/compiler"
)

// StartupChecks performs all the checks to make sure everything works and
// opens the configured startup source, if any.
func (serverHandler *ServerHandler) StartupChecks() error {
	browserChecks(serverHandler.Config)
	templateChecks(serverHandler.Config)
	if err := openPathChecks(serverHandler.Config); err != nil {
		return err
	}
	if serverHandler.Config.OpenPath != "" {
		if _, err := serverHandler.OpenSource(serverHandler.Config.OpenPath, database.JobTypeLoad); err != nil {
			Logger.Error("Failed to open startup source", "path", serverHandler.Config.OpenPath, "error", err)
			return err
		}
	}
	return nil
}

func browserChecks(cfg config.ViewerConfig) {
	if cfg.ChromePath == "" {
		Logger.Info("No browser configured, Markdown and YAML sources will fail to compile")
		return
	}
	info, err := os.Stat(cfg.ChromePath)
	if err != nil {
		Logger.Warn("Browser executable not found, Markdown printing will fail", "path", cfg.ChromePath, "error", err)
		return
	}
	if info.IsDir() {
		Logger.Warn("Browser path is a directory, not an executable", "path", cfg.ChromePath)
		return
	}
	Logger.Info("Browser executable found", "path", cfg.ChromePath)
}

// templateChecks looks for the templates directory YAML sources need.
func templateChecks(cfg config.ViewerConfig) {
	dir, err := compiler.FindTemplates(cfg.TemplatePath)
	if err != nil {
		Logger.Warn("No templates directory found, YAML sources will fail to compile", "searchFrom", cfg.TemplatePath)
		return
	}
	Logger.Info("Templates directory found", "path", dir)
}

// openPathChecks validates the startup source.
func openPathChecks(cfg config.ViewerConfig) error {
	if cfg.OpenPath == "" {
		return nil
	}
	info, err := os.Stat(cfg.OpenPath)
	if err != nil {
		Logger.Error("Startup source not readable", "path", cfg.OpenPath, "error", err)
		return err
	}
	if info.IsDir() {
		Logger.Error("Startup source is a directory", "path", cfg.OpenPath)
		return errors.New("startup source is a directory: " + cfg.OpenPath)
	}
	return nil
}
