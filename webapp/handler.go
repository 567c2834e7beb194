package webapp

import (
	"net/http"

	"github.com/drummonds/gobrewer/internal/build"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// Handler returns an HTTP handler for the web app
func Handler() http.Handler {
	RegisterRoutes()
	app.RunWhenOnBrowser()

	// wasm_exec.js is served at /wasm_exec.js by Echo
	// app.wasm is served from /web/app.wasm by Echo
	return &app.Handler{
		Name:        build.Name,
		Title:       build.Title(""),
		Description: "Paginated document viewer for PDF, Markdown and YAML sources",
		Styles: []string{
			"/webapp/webapp.css",
		},
		Scripts: []string{
			"/config.js", // Load backend API configuration
		},
		RawHeaders: []string{
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
		},
	}
}
