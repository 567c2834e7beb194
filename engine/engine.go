package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/drummonds/gobrewer/config"
	"github.com/drummonds/gobrewer/database"
	"github.com/drummonds/gobrewer/engine/compiler"
	"github.com/drummonds/gobrewer/engine/pdfrenderer"
	"github.com/drummonds/gobrewer/engine/viewer"
	"github.com/drummonds/gobrewer/internal/build"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger = slog.Default()

// ErrNoDocument is returned by operations that need an open document.
var ErrNoDocument = errors.New("no document open")

// Compiler turns a source path into PDF bytes.
type Compiler interface {
	Compile(ctx context.Context, path string) (*compiler.Output, error)
}

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	DB       database.Repository
	Echo     *echo.Echo
	Config   config.ViewerConfig
	View     *viewer.View
	Canvas   *viewer.Canvas
	Compiler Compiler
	Renderer pdfrenderer.Renderer

	ctx    context.Context
	cancel context.CancelFunc
	events *eventHub
	cron   *cron.Cron
	// loads tracks open requests whose outcome is not recorded yet.
	loads sync.WaitGroup

	mu sync.Mutex
	// current follows the document the viewer displays.
	current *compiler.Output
	lastErr string
	closed  bool
}

// sourceDocument is what the viewer displays: an opened PDF plus the
// compilation it came from.
type sourceDocument struct {
	pdfrenderer.Document
	output *compiler.Output
}

// rasterizer adapts a pdfrenderer.Renderer to the viewer.
type rasterizer struct {
	renderer pdfrenderer.Renderer
}

func (r rasterizer) Rasterize(doc viewer.Document, pageIndex int, scale float64) (image.Image, error) {
	sd, ok := doc.(*sourceDocument)
	if !ok {
		return nil, fmt.Errorf("unexpected document type %T", doc)
	}
	return r.renderer.RenderPage(sd.Document, pageIndex, scale)
}

// NewServerHandler wires a viewer to the compiler, renderer and database.
func NewServerHandler(cfg config.ViewerConfig, db database.Repository, e *echo.Echo, comp Compiler, renderer pdfrenderer.Renderer) *ServerHandler {
	ctx, cancel := context.WithCancel(context.Background())
	canvas := viewer.NewCanvas()
	h := &ServerHandler{
		DB:       db,
		Echo:     e,
		Config:   cfg,
		Canvas:   canvas,
		Compiler: comp,
		Renderer: renderer,
		ctx:      ctx,
		cancel:   cancel,
		events:   newEventHub(),
	}
	h.View = viewer.New(viewer.Options{
		Rasterizer:  rasterizer{renderer: renderer},
		Surface:     canvas,
		WarmupPages: cfg.WarmupPages,
	})

	h.View.OnError(h.recordError)
	h.View.Scheduler.OnDocument(h.documentChanged)
	notify := func() { h.events.publish(h.State()) }
	h.View.Scheduler.PageIndex.Subscribe(func(_, _ int) { notify() })
	h.View.Scheduler.MaxPageIndex.Subscribe(func(_, _ int) { notify() })
	h.View.Scheduler.Frame.Subscribe(func(_, _ uint64) { notify() })
	h.View.Scheduler.Viewport.Subscribe(func(_, _ viewer.Size) { notify() })
	h.View.Loading.Subscribe(func(_, _ bool) { notify() })
	return h
}

// NewViewerServer builds the configured renderer backend and compiler and
// returns a handler with its routes registered.
func NewViewerServer(cfg config.ViewerConfig, db database.Repository, e *echo.Echo) (*ServerHandler, error) {
	renderer, err := pdfrenderer.NewRenderer(pdfrenderer.Backend(cfg.RendererBackend))
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}
	Logger.Info("Renderer ready", "backend", cfg.RendererBackend)
	h := NewServerHandler(cfg, db, e, compiler.New(cfg.TemplatePath, cfg.ChromePath), renderer)
	h.RegisterRoutes()
	return h, nil
}

// Close stops the schedules and the viewer and releases the renderer.
func (h *ServerHandler) Close() error {
	if h.cron != nil {
		<-h.cron.Stop().Done()
	}
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()
	h.loads.Wait()
	h.events.close()
	err := h.View.Close()
	if h.Renderer != nil {
		if rerr := h.Renderer.Close(); err == nil {
			err = rerr
		}
	}
	return err
}

// recordError runs on the presentation loop.
func (h *ServerHandler) recordError(err error) {
	h.mu.Lock()
	h.lastErr = err.Error()
	h.mu.Unlock()
	h.events.publish(h.State())
}

// documentChanged runs on the presentation loop, in publication order.
func (h *ServerHandler) documentChanged(doc viewer.Document) {
	var out *compiler.Output
	if sd, ok := doc.(*sourceDocument); ok {
		out = sd.output
	}
	h.mu.Lock()
	h.current = out
	h.lastErr = ""
	h.mu.Unlock()
	h.events.publish(h.State())
}

// Current returns the compilation on display, or nil.
func (h *ServerHandler) Current() *compiler.Output {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// ViewState is the observable state of the viewer.
type ViewState struct {
	viewer.NavState
	Loading    bool        `json:"loading"`
	Title      string      `json:"title"`
	SourcePath string      `json:"sourcePath,omitempty"`
	PageCount  int         `json:"pageCount"`
	Error      string      `json:"error,omitempty"`
	Frame      uint64      `json:"frame"`
	Viewport   viewer.Size `json:"viewport"`
}

// State returns a snapshot of the viewer state. Safe from any goroutine.
func (h *ServerHandler) State() ViewState {
	h.mu.Lock()
	current, lastErr := h.current, h.lastErr
	h.mu.Unlock()

	s := ViewState{
		NavState: h.View.Navigator.State(),
		Loading:  h.View.Loading.Get(),
		Error:    lastErr,
		Frame:    h.View.Scheduler.Frame.Get(),
		Viewport: h.View.Scheduler.Viewport.Get(),
		Title:    build.Title(""),
	}
	if current != nil {
		s.Title = build.Title(current.SourcePath)
		s.SourcePath = current.SourcePath
		s.PageCount = current.PageCount
	}
	return s
}

// OpenSource compiles and loads path through the viewer's load pipeline.
// It returns once the load is tracked; the job records the outcome.
func (h *ServerHandler) OpenSource(path string, jobType database.JobType) (*database.Job, error) {
	if !compiler.IsAcceptable(path) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), compiler.ErrUnsupported)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, viewer.ErrClosed
	}
	h.loads.Add(1)
	h.mu.Unlock()

	job, err := h.DB.CreateJob(jobType, "Opening "+abs)
	if err != nil {
		h.loads.Done()
		return nil, fmt.Errorf("create job: %w", err)
	}
	Logger.Info("Opening source", "path", abs, "jobID", job.ID)

	task := h.View.LoadSource(h.ctx, abs, func(ctx context.Context) (viewer.Document, error) {
		if err := h.DB.UpdateJobStatus(job.ID, database.JobStatusRunning, "Compiling"); err != nil {
			Logger.Error("Failed to update job status", "error", err)
		}
		out, err := h.Compiler.Compile(ctx, abs)
		if err != nil {
			return nil, err
		}
		if err := h.DB.UpdateJobProgress(job.ID, 50, "Opening PDF"); err != nil {
			Logger.Error("Failed to update job progress", "error", err)
		}
		doc, err := h.Renderer.Open(out.PDF)
		if err != nil {
			return nil, err
		}
		return &sourceDocument{Document: doc, output: out}, nil
	})
	go h.trackLoad(job, task)
	return job, nil
}

// trackLoad records the outcome of a load once the viewer has published it.
// The current document itself is tracked by documentChanged.
func (h *ServerHandler) trackLoad(job *database.Job, task *viewer.Task) {
	defer h.loads.Done()
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered in load tracking", "panic", r, "jobID", job.ID)
		}
	}()

	<-task.Done()
	doc, err := task.Result()
	if err != nil {
		Logger.Warn("Load failed", "jobID", job.ID, "error", err)
		if dbErr := h.DB.UpdateJobError(job.ID, err.Error()); dbErr != nil {
			Logger.Error("Failed to record job error", "error", dbErr)
		}
		return
	}

	out := doc.(*sourceDocument).output
	if err := h.DB.SetPreference(database.PrefLastOpenDirectory, filepath.Dir(out.SourcePath)); err != nil {
		Logger.Error("Failed to store preference", "error", err)
	}
	if err := h.DB.AddRecentDocument(database.RecentDocument{
		Path:      out.SourcePath,
		Title:     out.Title,
		PageCount: out.PageCount,
	}); err != nil {
		Logger.Error("Failed to record recent document", "error", err)
	}
	result := fmt.Sprintf(`{"pages": %d, "bytes": %d}`, out.PageCount, len(out.PDF))
	if err := h.DB.CompleteJob(job.ID, result); err != nil {
		Logger.Error("Failed to mark job as complete", "error", err)
	}
}

// SavePDF writes the current document's PDF bytes to target. A directory
// target gets the source's base name with a .pdf extension.
func (h *ServerHandler) SavePDF(target string) (string, error) {
	current := h.Current()
	if current == nil {
		return "", ErrNoDocument
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		base := filepath.Base(current.SourcePath)
		target = filepath.Join(target, base[:len(base)-len(filepath.Ext(base))]+".pdf")
	}

	job, err := h.DB.CreateJob(database.JobTypeSave, "Saving "+target)
	if err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}
	if err := os.WriteFile(target, current.PDF, 0644); err != nil {
		if dbErr := h.DB.UpdateJobError(job.ID, err.Error()); dbErr != nil {
			Logger.Error("Failed to record job error", "error", dbErr)
		}
		return "", err
	}
	if err := h.DB.CompleteJob(job.ID, fmt.Sprintf(`{"bytes": %d}`, len(current.PDF))); err != nil {
		Logger.Error("Failed to mark job as complete", "error", err)
	}
	if err := h.DB.SetPreference(database.PrefLastSaveFolder, filepath.Dir(target)); err != nil {
		Logger.Error("Failed to store preference", "error", err)
	}
	Logger.Info("Saved PDF", "path", target, "bytes", len(current.PDF))
	return target, nil
}

// reloadIfChanged reopens the current source when its modification time
// moved past the one it was compiled from. It does nothing while a load is
// in progress.
func (h *ServerHandler) reloadIfChanged() {
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered in reload job", "panic", r)
		}
	}()

	current := h.Current()
	if current == nil || h.View.Loading.Get() {
		return
	}
	info, err := os.Stat(current.SourcePath)
	if err != nil {
		Logger.Debug("Source not readable for reload check", "path", current.SourcePath, "error", err)
		return
	}
	if !info.ModTime().After(current.ModTime) {
		return
	}
	Logger.Info("Source changed on disk, reloading", "path", current.SourcePath,
		"age", time.Since(info.ModTime()).Round(time.Millisecond))
	if _, err := h.OpenSource(current.SourcePath, database.JobTypeReload); err != nil {
		Logger.Error("Reload failed to start", "path", current.SourcePath, "error", err)
	}
}
