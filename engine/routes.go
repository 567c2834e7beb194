package engine

import (
	"errors"
	"net/http"

	"github.com/drummonds/gobrewer/database"
	"github.com/drummonds/gobrewer/engine/compiler"
	"github.com/drummonds/gobrewer/engine/viewer"
	"github.com/drummonds/gobrewer/internal/build"
	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"
)

// OpenRequest names a source to open.
type OpenRequest struct {
	Path string `json:"path"`
}

// SaveRequest names where to save the current PDF.
type SaveRequest struct {
	Path string `json:"path"`
}

// PageRequest sets the page index.
type PageRequest struct {
	Index int `json:"index"`
}

// ViewportRequest sets the viewport size.
type ViewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RegisterRoutes adds every API route to the echo instance
func (serverHandler *ServerHandler) RegisterRoutes() {
	e := serverHandler.Echo

	e.GET("/api/view", serverHandler.GetViewState)
	e.GET("/api/view/events", serverHandler.StreamViewEvents)
	e.GET("/api/view/raster.png", serverHandler.GetRaster)
	e.POST("/api/view/open", serverHandler.OpenDocument)
	e.POST("/api/view/first", serverHandler.navigate(func(n *viewer.Navigator) { n.First() }))
	e.POST("/api/view/previous", serverHandler.navigate(func(n *viewer.Navigator) { n.Previous() }))
	e.POST("/api/view/next", serverHandler.navigate(func(n *viewer.Navigator) { n.Next() }))
	e.POST("/api/view/last", serverHandler.navigate(func(n *viewer.Navigator) { n.Last() }))
	e.PUT("/api/view/page", serverHandler.SetPage)
	e.PUT("/api/view/viewport", serverHandler.SetViewport)
	e.POST("/api/view/save", serverHandler.SaveDocument)

	e.GET("/api/preferences", serverHandler.GetPreferences)
	e.GET("/api/recent", serverHandler.GetRecentDocuments)
	e.GET("/api/about", serverHandler.GetAboutInfo)
	e.GET("/api/swagger.json", serverHandler.GetSwagger)

	// Job tracking API routes
	e.GET("/api/jobs", serverHandler.GetRecentJobs)
	e.GET("/api/jobs/active", serverHandler.GetActiveJobs)
	e.GET("/api/jobs/:id", serverHandler.GetJob)
}

// sync waits for moves forwarded to the presentation loop to be applied.
func (serverHandler *ServerHandler) sync() {
	if err := serverHandler.View.Loop().Call(func() {}); err != nil {
		Logger.Warn("Presentation loop unavailable", "error", err)
	}
}

// GetViewState returns the current view state
// @Summary Get view state
// @Description Page index, page range, enabled navigation, loading flag, title and last error
// @Tags View
// @Produce json
// @Success 200 {object} ViewState "View state"
// @Router /view [get]
func (serverHandler *ServerHandler) GetViewState(c echo.Context) error {
	return c.JSON(http.StatusOK, serverHandler.State())
}

// GetRaster returns the drawing surface as PNG
// @Summary Get rendered page
// @Description The drawing surface: the current page fitted and centered in the viewport on a white background
// @Tags View
// @Produce png
// @Success 200 {file} binary "PNG image"
// @Router /view/raster.png [get]
func (serverHandler *ServerHandler) GetRaster(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "image/png")
	c.Response().Header().Set("Cache-Control", "no-store")
	c.Response().WriteHeader(http.StatusOK)
	return serverHandler.Canvas.EncodePNG(c.Response())
}

// OpenDocument compiles and opens a source file
// @Summary Open a source
// @Description Compile a PDF, Markdown or YAML source and load it into the viewer. Returns the job tracking the load.
// @Tags View
// @Accept json
// @Produce json
// @Param request body OpenRequest true "Source path"
// @Success 202 {object} database.Job "Load job"
// @Failure 400 {object} map[string]interface{} "Invalid or unsupported path"
// @Router /view/open [post]
func (serverHandler *ServerHandler) OpenDocument(c echo.Context) error {
	var req OpenRequest
	if err := c.Bind(&req); err != nil || req.Path == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "A source path is required",
		})
	}

	job, err := serverHandler.OpenSource(req.Path, database.JobTypeLoad)
	switch {
	case errors.Is(err, compiler.ErrUnsupported):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	case errors.Is(err, viewer.ErrClosed):
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"error": "Viewer is shutting down",
		})
	case err != nil:
		Logger.Error("Failed to open source", "path", req.Path, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to start load",
		})
	}
	return c.JSON(http.StatusAccepted, job)
}

// navigate returns a handler applying a navigator move
// @Summary Navigate pages
// @Description Move to the first, previous, next or last page. Moves that would not change the page are ignored.
// @Tags View
// @Produce json
// @Success 200 {object} ViewState "View state after the move"
// @Router /view/first [post]
// @Router /view/previous [post]
// @Router /view/next [post]
// @Router /view/last [post]
func (serverHandler *ServerHandler) navigate(move func(*viewer.Navigator)) echo.HandlerFunc {
	return func(c echo.Context) error {
		move(serverHandler.View.Navigator)
		serverHandler.sync()
		return c.JSON(http.StatusOK, serverHandler.State())
	}
}

// SetPage moves to a page
// @Summary Set page
// @Description Move to a page index, clamped to the document's page range
// @Tags View
// @Accept json
// @Produce json
// @Param request body PageRequest true "Page index"
// @Success 200 {object} ViewState "View state"
// @Failure 400 {object} map[string]interface{} "Invalid body"
// @Router /view/page [put]
func (serverHandler *ServerHandler) SetPage(c echo.Context) error {
	var req PageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "Invalid page request",
		})
	}
	serverHandler.View.Navigator.Go(req.Index)
	serverHandler.sync()
	return c.JSON(http.StatusOK, serverHandler.State())
}

// SetViewport resizes the display area
// @Summary Set viewport
// @Description Resize the drawing surface; the page is re-rendered to fit
// @Tags View
// @Accept json
// @Produce json
// @Param request body ViewportRequest true "Viewport size"
// @Success 200 {object} ViewState "View state"
// @Failure 400 {object} map[string]interface{} "Invalid size"
// @Router /view/viewport [put]
func (serverHandler *ServerHandler) SetViewport(c echo.Context) error {
	var req ViewportRequest
	if err := c.Bind(&req); err != nil || req.Width < 0 || req.Height < 0 || req.Width > 16384 || req.Height > 16384 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "Invalid viewport size",
		})
	}
	serverHandler.View.Scheduler.SetViewportSize(req.Width, req.Height)
	serverHandler.sync()
	return c.JSON(http.StatusOK, serverHandler.State())
}

// SaveDocument saves the current document as PDF
// @Summary Save as PDF
// @Description Write the compiled PDF of the current document to a file or folder
// @Tags View
// @Accept json
// @Produce json
// @Param request body SaveRequest true "Target file or folder"
// @Success 200 {object} map[string]interface{} "Saved path"
// @Failure 400 {object} map[string]interface{} "Missing path"
// @Failure 409 {object} map[string]interface{} "No document open"
// @Failure 500 {object} map[string]interface{} "Write failed"
// @Router /view/save [post]
func (serverHandler *ServerHandler) SaveDocument(c echo.Context) error {
	var req SaveRequest
	if err := c.Bind(&req); err != nil || req.Path == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "A target path is required",
		})
	}
	saved, err := serverHandler.SavePDF(req.Path)
	if errors.Is(err, ErrNoDocument) {
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error": "No document open",
		})
	}
	if err != nil {
		Logger.Error("Failed to save PDF", "path", req.Path, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"path": saved,
	})
}

// GetPreferences returns stored preferences
// @Summary Get preferences
// @Description Last open directory and last save folder
// @Tags Preferences
// @Produce json
// @Success 200 {object} map[string]string "Preferences"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /preferences [get]
func (serverHandler *ServerHandler) GetPreferences(c echo.Context) error {
	prefs, err := serverHandler.DB.GetPreferences()
	if err != nil {
		Logger.Error("Failed to get preferences", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to retrieve preferences",
		})
	}
	return c.JSON(http.StatusOK, prefs)
}

// GetRecentDocuments lists recently opened sources
// @Summary Get recent documents
// @Description Sources that were opened successfully, newest first
// @Tags Preferences
// @Produce json
// @Success 200 {array} database.RecentDocument "Recent documents"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /recent [get]
func (serverHandler *ServerHandler) GetRecentDocuments(c echo.Context) error {
	docs, err := serverHandler.DB.GetRecentDocuments(10)
	if err != nil {
		Logger.Error("Failed to get recent documents", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to retrieve recent documents",
		})
	}
	return c.JSON(http.StatusOK, docs)
}

// GetAboutInfo returns version and configuration details
// @Summary Get about information
// @Description Version, renderer backend and database configuration
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{} "About information"
// @Router /about [get]
func (serverHandler *ServerHandler) GetAboutInfo(c echo.Context) error {
	cfg := serverHandler.Config
	aboutInfo := map[string]interface{}{
		"name":         build.Name,
		"version":      build.Version,
		"renderer":     cfg.RendererBackend,
		"warmupPages":  cfg.WarmupPages,
		"chromePath":   cfg.ChromePath,
		"templatePath": cfg.TemplatePath,
		"autoReload":   cfg.AutoReload,
		"databaseType": cfg.DatabaseType,
		"databaseHost": cfg.DatabaseHost,
		"databaseName": cfg.DatabaseDbname,
	}
	return c.JSON(http.StatusOK, aboutInfo)
}

// GetSwagger serves the registered API description
func (serverHandler *ServerHandler) GetSwagger(c echo.Context) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "API description not registered",
		})
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(doc))
}
