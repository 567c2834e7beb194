package webapp

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestHandlerRoutes tests that all expected routes are registered
func TestHandlerRoutes(t *testing.T) {
	handler := Handler()

	for _, path := range Routes {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code == http.StatusNotFound {
				t.Errorf("Route %s returned 404 Not Found - route may not be registered", path)
			}
			contentType := rec.Header().Get("Content-Type")
			if rec.Code == http.StatusOK && !strings.Contains(contentType, "text/html") {
				t.Errorf("Route %s returned Content-Type %s", path, contentType)
			}
		})
	}
}

func TestPageFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "*webapp.ViewerPage"},
		{"/recent", "*webapp.RecentPage"},
		{"/jobs", "*webapp.JobsPage"},
		{"/about", "*webapp.AboutPage"},
		{"/search", "*webapp.NotFoundPage"},
	}
	for _, tt := range tests {
		got := typeName(pageFor(tt.path))
		if got != tt.want {
			t.Errorf("pageFor(%s) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
