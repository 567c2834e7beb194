package webapp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// configGlobal is the window property /config.js sets.
const configGlobal = "gobrewerConfig"

// ConfigScript returns the JavaScript served at /config.js, which tells the
// client where the API lives. An empty apiURL means same origin.
func ConfigScript(apiURL string) string {
	quoted, _ := json.Marshal(strings.TrimSuffix(apiURL, "/"))
	return fmt.Sprintf(`
// GOBREWER Frontend Configuration
window.%s = {
    apiURL: %s
};
`, configGlobal, quoted)
}

// GetAPIBaseURL returns the configured API base URL
// It reads from window.gobrewerConfig.apiURL if available,
// otherwise falls back to empty string (relative URLs)
func GetAPIBaseURL() string {
	if !app.IsClient {
		return "" // Server-side rendering - use relative URLs
	}

	config := app.Window().Get(configGlobal)
	if config.Truthy() {
		apiURL := config.Get("apiURL")
		if apiURL.Truthy() {
			return strings.TrimSuffix(apiURL.String(), "/")
		}
	}
	return ""
}

// BuildAPIURL constructs a full API URL from a path
// Example: BuildAPIURL("/api/view") -> "http://backend:8000/api/view"
// or just "/api/view" if using relative URLs
func BuildAPIURL(path string) string {
	baseURL := GetAPIBaseURL()
	if baseURL == "" {
		return path // Relative URL
	}
	return baseURL + path
}

// fetchJSON calls the API and hands the status and the response body, as a
// JSON string, to done on the UI goroutine. A network failure reports
// status 0.
func fetchJSON(ctx app.Context, method, path string, body any, done func(ctx app.Context, status int, jsonStr string)) {
	opts := map[string]any{"method": method}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			ctx.Dispatch(func(ctx app.Context) { done(ctx, 0, "") })
			return
		}
		opts["headers"] = map[string]any{"Content-Type": "application/json"}
		opts["body"] = string(data)
	}

	ctx.Async(func() {
		res := app.Window().Call("fetch", BuildAPIURL(path), opts)

		res.Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
			if len(args) == 0 {
				return nil
			}
			response := args[0]
			status := response.Get("status").Int()

			response.Call("json").Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
				jsonStr := "null"
				if len(args) > 0 {
					jsonStr = app.Window().Get("JSON").Call("stringify", args[0]).String()
				}
				ctx.Dispatch(func(ctx app.Context) { done(ctx, status, jsonStr) })
				return nil
			}))
			return nil
		})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) { done(ctx, 0, "") })
			return nil
		}))
	})
}

// apiError extracts the "error" field of an error response.
func apiError(status int, jsonStr string) string {
	if status == 0 {
		return "Network error: Could not connect to server"
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &body); err == nil && body.Error != "" {
		return body.Error
	}
	return fmt.Sprintf("Request failed (status: %d)", status)
}

// ViewState mirrors the server's view state.
type ViewState struct {
	PageIndex    int    `json:"pageIndex"`
	MaxPageIndex int    `json:"maxPageIndex"`
	CanFirst     bool   `json:"canFirst"`
	CanPrevious  bool   `json:"canPrevious"`
	CanNext      bool   `json:"canNext"`
	CanLast      bool   `json:"canLast"`
	Loading      bool   `json:"loading"`
	Title        string `json:"title"`
	SourcePath   string `json:"sourcePath,omitempty"`
	PageCount    int    `json:"pageCount"`
	Error        string `json:"error,omitempty"`
	Frame        uint64 `json:"frame"`
	Viewport     struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"viewport"`
}

// RecentDocument is a previously opened source.
type RecentDocument struct {
	Path      string `json:"path"`
	Title     string `json:"title"`
	PageCount int    `json:"pageCount"`
	OpenedAt  string `json:"openedAt"`
}

// Job represents a background job
type Job struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	CurrentStep string `json:"currentStep"`
	Message     string `json:"message"`
	Error       string `json:"error,omitempty"`
	Result      string `json:"result,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	StartedAt   string `json:"startedAt,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
}
