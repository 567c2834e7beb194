package engine

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/drummonds/gobrewer/config"
	"github.com/drummonds/gobrewer/database"
	"github.com/drummonds/gobrewer/engine/compiler"
	"github.com/drummonds/gobrewer/engine/pdfrenderer"
	"github.com/drummonds/gobrewer/engine/viewer"
	"github.com/drummonds/gobrewer/internal/testpdf"
	"github.com/labstack/echo/v4"
)

// fakePDF is a document with a fixed page list.
type fakePDF struct {
	data  []byte
	pages int

	mu     sync.Mutex
	closed bool
}

func (d *fakePDF) PageCount() int { return d.pages }

func (d *fakePDF) PageSize(int) (float64, float64, error) { return 600, 800, nil }

func (d *fakePDF) Data() []byte { return d.data }

func (d *fakePDF) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// fakeRenderer opens every PDF as a document with pages pages.
type fakeRenderer struct {
	pages   int
	openErr error
}

func (r *fakeRenderer) Open(pdf []byte) (pdfrenderer.Document, error) {
	if r.openErr != nil {
		return nil, r.openErr
	}
	return &fakePDF{data: pdf, pages: r.pages}, nil
}

func (r *fakeRenderer) RenderPage(_ pdfrenderer.Document, _ int, scale float64) (image.Image, error) {
	w, h := int(600*scale), int(800*scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return imaging.New(w, h, color.Black), nil
}

func (r *fakeRenderer) Close() error { return nil }

func newTestHandler(t *testing.T, renderer *fakeRenderer) *ServerHandler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	Logger = logger
	database.Logger = logger

	db, err := database.NewRepository(config.ViewerConfig{DatabaseType: "sqlite", DatabaseDbname: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open repository: %v", err)
	}
	cfg := config.ViewerConfig{
		DatabaseType:    "sqlite",
		RendererBackend: string(pdfrenderer.BackendPDFium),
		WarmupPages:     -1,
		TemplatePath:    t.TempDir(),
	}
	h := NewServerHandler(cfg, db, echo.New(), &compiler.Compiler{}, renderer)
	h.RegisterRoutes()
	t.Cleanup(func() {
		h.Close()
		db.Close()
	})
	return h
}

func writePDF(t *testing.T, name string, pages int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, testpdf.New(pages, "Test"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func doJSON(t *testing.T, h *ServerHandler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	h.Echo.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) ViewState {
	t.Helper()
	var s ViewState
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("Failed to decode state %q: %v", rec.Body.String(), err)
	}
	return s
}

// waitJob polls until the job reaches a terminal status.
func waitJob(t *testing.T, h *ServerHandler, job database.Job) database.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got, err := h.DB.GetJob(job.ID)
		if err == nil && got.Finished() {
			// the viewer publishes the document before the job completes
			return *got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Job %s did not finish", job.ID)
	return job
}

func openSource(t *testing.T, h *ServerHandler, path string) database.Job {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/view/open", OpenRequest{Path: path})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var job database.Job
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
		t.Fatal(err)
	}
	return waitJob(t, h, job)
}

func TestInitialState(t *testing.T) {
	h := newTestHandler(t, &fakeRenderer{pages: 3})

	rec := doJSON(t, h, http.MethodGet, "/api/view", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	s := decodeState(t, rec)
	if s.PageIndex != 0 || s.MaxPageIndex != 0 {
		t.Errorf("Expected empty page range, got %d/%d", s.PageIndex, s.MaxPageIndex)
	}
	if s.CanFirst || s.CanPrevious || s.CanNext || s.CanLast {
		t.Errorf("Expected navigation disabled, got %+v", s.NavState)
	}
	if s.Loading {
		t.Error("Expected not loading")
	}
	if !strings.HasPrefix(s.Title, "GOBREWER") {
		t.Errorf("Expected bare application title, got %q", s.Title)
	}
}

func TestOpenAndNavigate(t *testing.T) {
	h := newTestHandler(t, &fakeRenderer{pages: 3})
	path := writePDF(t, "report.pdf", 3)

	job := openSource(t, h, path)
	if job.Status != database.JobStatusCompleted {
		t.Fatalf("Expected completed job, got %s (%s)", job.Status, job.Error)
	}

	s := decodeState(t, doJSON(t, h, http.MethodGet, "/api/view", nil))
	if s.MaxPageIndex != 2 {
		t.Errorf("Expected max page index 2, got %d", s.MaxPageIndex)
	}
	if !strings.Contains(s.Title, "report.pdf") {
		t.Errorf("Expected title to name the source, got %q", s.Title)
	}
	if s.CanFirst || s.CanPrevious || !s.CanNext || !s.CanLast {
		t.Errorf("Unexpected navigation on first page: %+v", s.NavState)
	}

	t.Run("Next", func(t *testing.T) {
		s := decodeState(t, doJSON(t, h, http.MethodPost, "/api/view/next", nil))
		if s.PageIndex != 1 {
			t.Errorf("Expected page 1, got %d", s.PageIndex)
		}
	})

	t.Run("Last", func(t *testing.T) {
		s := decodeState(t, doJSON(t, h, http.MethodPost, "/api/view/last", nil))
		if s.PageIndex != 2 || s.CanNext || s.CanLast {
			t.Errorf("Unexpected state on last page: %+v", s.NavState)
		}
	})

	t.Run("Next at end is ignored", func(t *testing.T) {
		s := decodeState(t, doJSON(t, h, http.MethodPost, "/api/view/next", nil))
		if s.PageIndex != 2 {
			t.Errorf("Expected page 2, got %d", s.PageIndex)
		}
	})

	t.Run("Previous", func(t *testing.T) {
		s := decodeState(t, doJSON(t, h, http.MethodPost, "/api/view/previous", nil))
		if s.PageIndex != 1 {
			t.Errorf("Expected page 1, got %d", s.PageIndex)
		}
	})

	t.Run("Set page clamps", func(t *testing.T) {
		s := decodeState(t, doJSON(t, h, http.MethodPut, "/api/view/page", PageRequest{Index: 99}))
		if s.PageIndex != 2 {
			t.Errorf("Expected page 2, got %d", s.PageIndex)
		}
	})

	t.Run("First", func(t *testing.T) {
		s := decodeState(t, doJSON(t, h, http.MethodPost, "/api/view/first", nil))
		if s.PageIndex != 0 {
			t.Errorf("Expected page 0, got %d", s.PageIndex)
		}
	})

	t.Run("Recent documents", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/recent", nil)
		var docs []database.RecentDocument
		if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
			t.Fatal(err)
		}
		if len(docs) != 1 || docs[0].PageCount != 3 {
			t.Errorf("Unexpected recent documents: %+v", docs)
		}
	})

	t.Run("Preferences", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/preferences", nil)
		var prefs map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &prefs); err != nil {
			t.Fatal(err)
		}
		if prefs[database.PrefLastOpenDirectory] != filepath.Dir(path) {
			t.Errorf("Expected last open directory %s, got %q", filepath.Dir(path), prefs[database.PrefLastOpenDirectory])
		}
	})
}

func TestOpenFailureKeepsDocument(t *testing.T) {
	renderer := &fakeRenderer{pages: 2}
	h := newTestHandler(t, renderer)
	good := writePDF(t, "good.pdf", 2)
	openSource(t, h, good)

	renderer.openErr = errors.New("corrupt")
	job := openSource(t, h, writePDF(t, "bad.pdf", 1))
	if job.Status != database.JobStatusFailed {
		t.Fatalf("Expected failed job, got %s", job.Status)
	}

	s := h.State()
	if s.SourcePath != good || s.MaxPageIndex != 1 {
		t.Errorf("Expected previous document kept, got %q with max %d", s.SourcePath, s.MaxPageIndex)
	}
	if s.Error == "" {
		t.Error("Expected the load error to be reported")
	}
	if s.Loading {
		t.Error("Expected loading cleared")
	}
}

func TestOpenRejectsUnsupported(t *testing.T) {
	h := newTestHandler(t, &fakeRenderer{pages: 1})

	rec := doJSON(t, h, http.MethodPost, "/api/view/open", OpenRequest{Path: "/tmp/photo.png"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/api/view/open", OpenRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty path, got %d", rec.Code)
	}
}

func TestViewportAndRaster(t *testing.T) {
	h := newTestHandler(t, &fakeRenderer{pages: 1})
	openSource(t, h, writePDF(t, "one.pdf", 1))

	s := decodeState(t, doJSON(t, h, http.MethodPut, "/api/view/viewport", ViewportRequest{Width: 300, Height: 300}))
	if s.Viewport.Width != 300 || s.Viewport.Height != 300 {
		t.Errorf("Expected 300x300 viewport, got %+v", s.Viewport)
	}

	rec := doJSON(t, h, http.MethodPut, "/api/view/viewport", ViewportRequest{Width: -1, Height: 10})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for negative size, got %d", rec.Code)
	}

	// Frames also count cleared presentations, so wait for page pixels.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := h.Canvas.Snapshot()
		if snap.Bounds().Dx() == 300 {
			if r, _, _, _ := snap.At(150, 150).RGBA(); r == 0 {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/view/raster.png", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	if img.Bounds().Dx() != 300 || img.Bounds().Dy() != 300 {
		t.Errorf("Expected 300x300 surface, got %v", img.Bounds())
	}
	// 600x800 fits as 225x300, so the corner is background and the center is page.
	if r, g, b, _ := img.At(0, 0).RGBA(); r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("Expected white margin, got %v", img.At(0, 0))
	}
	if r, _, _, _ := img.At(150, 150).RGBA(); r>>8 != 0 {
		t.Errorf("Expected page pixels at center, got %v", img.At(150, 150))
	}
}

func TestSaveDocument(t *testing.T) {
	h := newTestHandler(t, &fakeRenderer{pages: 1})
	outDir := t.TempDir()

	rec := doJSON(t, h, http.MethodPost, "/api/view/save", SaveRequest{Path: outDir})
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 with no document, got %d", rec.Code)
	}

	src := writePDF(t, "letter.pdf", 1)
	openSource(t, h, src)

	rec = doJSON(t, h, http.MethodPost, "/api/view/save", SaveRequest{Path: outDir})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	want := filepath.Join(outDir, "letter.pdf")
	saved, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("Expected %s to be written: %v", want, err)
	}
	orig, _ := os.ReadFile(src)
	if !bytes.Equal(saved, orig) {
		t.Error("Saved bytes differ from the compiled PDF")
	}

	folder, err := h.DB.GetPreference(database.PrefLastSaveFolder)
	if err != nil || folder != outDir {
		t.Errorf("Expected last save folder %s, got %q (%v)", outDir, folder, err)
	}
}

func TestJobRoutes(t *testing.T) {
	h := newTestHandler(t, &fakeRenderer{pages: 1})
	job := openSource(t, h, writePDF(t, "a.pdf", 1))

	rec := doJSON(t, h, http.MethodGet, "/api/jobs/"+job.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/jobs/not-a-ulid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}

	missing, _ := database.CalculateUUID(time.Now())
	rec = doJSON(t, h, http.MethodGet, "/api/jobs/"+missing.String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/jobs", nil)
	var jobs []database.Job
	if err := json.Unmarshal(rec.Body.Bytes(), &jobs); err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 {
		t.Errorf("Expected 1 job, got %d", len(jobs))
	}

	rec = doJSON(t, h, http.MethodGet, "/api/jobs/active", nil)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("Expected no active jobs, got %s", rec.Body.String())
	}
}

func TestAboutInfo(t *testing.T) {
	h := newTestHandler(t, &fakeRenderer{pages: 1})
	rec := doJSON(t, h, http.MethodGet, "/api/about", nil)
	var about map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &about); err != nil {
		t.Fatal(err)
	}
	if about["name"] != "GOBREWER" || about["renderer"] != "pdfium" {
		t.Errorf("Unexpected about info: %v", about)
	}
}

func TestStreamViewEvents(t *testing.T) {
	h := newTestHandler(t, &fakeRenderer{pages: 1})
	srv := httptest.NewServer(h.Echo)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/view/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Expected event stream, got %q", ct)
	}

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	select {
	case line := <-lines:
		if line != "event: state" {
			t.Fatalf("Expected state event, got %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("No event received")
	}
	select {
	case line := <-lines:
		if !strings.HasPrefix(line, "data: {") {
			t.Errorf("Expected JSON data line, got %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("No data received")
	}
}

func TestReloadIfChanged(t *testing.T) {
	h := newTestHandler(t, &fakeRenderer{pages: 1})
	path := writePDF(t, "live.pdf", 1)
	openSource(t, h, path)
	before := h.Current()

	h.reloadIfChanged()
	if h.Current() != before {
		t.Fatal("Expected no reload for an unchanged source")
	}

	later := before.ModTime.Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	h.reloadIfChanged()

	deadline := time.Now().Add(5 * time.Second)
	for h.Current() == before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.Current() == before {
		t.Fatal("Expected the source to be reloaded")
	}
	jobs, err := h.DB.GetRecentJobs(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if jobs[0].Type != database.JobTypeReload {
		t.Errorf("Expected newest job to be a reload, got %s", jobs[0].Type)
	}
}

func TestCurrentFollowsDisplayedDocument(t *testing.T) {
	for i := 0; i < 20; i++ {
		h := newTestHandler(t, &fakeRenderer{pages: 2})
		first := writePDF(t, "first.pdf", 2)
		second := writePDF(t, "second.pdf", 2)

		if _, err := h.OpenSource(first, database.JobTypeLoad); err != nil {
			t.Fatal(err)
		}
		if _, err := h.OpenSource(second, database.JobTypeLoad); err != nil {
			t.Fatal(err)
		}
		h.loads.Wait()

		var displayed string
		if err := h.View.Loop().Call(func() {
			if sd, ok := h.View.Scheduler.Document().(*sourceDocument); ok {
				displayed = sd.output.SourcePath
			}
		}); err != nil {
			t.Fatal(err)
		}
		if displayed != second {
			t.Fatalf("Expected %s on display, got %q", second, displayed)
		}
		current := h.Current()
		if current == nil || current.SourcePath != displayed {
			t.Fatalf("Current() = %v, displayed %s", current, displayed)
		}
		if got := h.State().SourcePath; got != displayed {
			t.Errorf("State().SourcePath = %s, want %s", got, displayed)
		}
	}
}

func TestOpenAfterClose(t *testing.T) {
	h := newTestHandler(t, &fakeRenderer{pages: 1})
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := h.OpenSource(writePDF(t, "late.pdf", 1), database.JobTypeLoad); !errors.Is(err, viewer.ErrClosed) {
		t.Errorf("Expected ErrClosed after Close, got %v", err)
	}
	jobs, err := h.DB.GetRecentJobs(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 0 {
		t.Errorf("Expected no job after Close, got %d", len(jobs))
	}
}
