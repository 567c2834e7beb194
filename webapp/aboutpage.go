package webapp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// AboutInfo represents the about information from the API
type AboutInfo struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Renderer     string `json:"renderer"`
	WarmupPages  int    `json:"warmupPages"`
	ChromePath   string `json:"chromePath"`
	TemplatePath string `json:"templatePath"`
	AutoReload   bool   `json:"autoReload"`
	DatabaseType string `json:"databaseType"`
	DatabaseHost string `json:"databaseHost"`
	DatabaseName string `json:"databaseName"`
}

// AboutPage displays information about the application
type AboutPage struct {
	app.Compo
	aboutInfo AboutInfo
	loading   bool
	error     string
}

// OnMount is called when the component is mounted
func (a *AboutPage) OnMount(ctx app.Context) {
	if !app.IsClient {
		return
	}
	a.loading = true
	fetchJSON(ctx, http.MethodGet, "/api/about", nil, func(ctx app.Context, status int, jsonStr string) {
		a.loading = false
		if status != http.StatusOK {
			a.error = apiError(status, jsonStr)
			return
		}
		if err := json.Unmarshal([]byte(jsonStr), &a.aboutInfo); err != nil {
			a.error = fmt.Sprintf("Failed to parse response: %v", err)
		}
	})
}

// Render renders the about page
func (a *AboutPage) Render() app.UI {
	if a.loading {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About GOBREWER"),
			app.Div().Class("loading").Body(app.Text("Loading...")),
		)
	}

	if a.error != "" {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About GOBREWER"),
			app.Div().Class("error").Body(app.Text("Error: "+a.error)),
		)
	}

	return app.Div().Class("about-page").Body(
		app.H2().Text("About GOBREWER"),
		app.Div().Class("about-content").Body(
			app.Div().Class("about-section").Body(
				app.H3().Text("Application Information"),
				app.Div().Class("info-grid").Body(
					a.renderInfoItem("Version", a.aboutInfo.Version),
					a.renderInfoItem("Renderer", a.getRendererDisplay()),
					a.renderInfoItem("Database", a.getDatabaseDisplay()),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Rendering"),
				app.Div().Class("config-details").Body(
					app.P().Body(
						app.Strong().Text("Warm-up Pages: "),
						app.Text(fmt.Sprintf("%d", a.aboutInfo.WarmupPages)),
					),
					app.P().Body(
						app.Strong().Text("Markdown Printer: "),
						app.Text(a.getPrinterStatus()),
					),
					app.P().Body(
						app.Strong().Text("Templates Search Path: "),
						app.Text(a.aboutInfo.TemplatePath),
					),
					app.P().Body(
						app.Strong().Text("Auto-Reload: "),
						app.Text(a.getAutoReloadStatus()),
					),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Database Configuration"),
				app.Div().Class("config-details").Body(
					app.P().Body(
						app.Strong().Text("Database Type: "),
						app.Text(a.getDatabaseDisplay()),
					),
					app.If(a.aboutInfo.DatabaseHost != "", func() app.UI {
						return app.P().Body(
							app.Strong().Text("Host: "),
							app.Text(a.aboutInfo.DatabaseHost),
						)
					}),
					app.P().Body(
						app.Strong().Text("Database Name: "),
						app.Text(a.aboutInfo.DatabaseName),
					),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("About GOBREWER"),
				app.P().Text("GOBREWER compiles PDF, Markdown and YAML sources to PDF and shows them one page at a time."),
			),
		),
	)
}

// renderInfoItem creates an info item display
func (a *AboutPage) renderInfoItem(label, value string) app.UI {
	return app.Div().Class("info-item").Body(
		app.Div().Class("info-label").Body(app.Text(label)),
		app.Div().Class("info-value").Body(app.Text(value)),
	)
}

// getDatabaseDisplay returns a user-friendly database display name
func (a *AboutPage) getDatabaseDisplay() string {
	switch a.aboutInfo.DatabaseType {
	case "postgres":
		return "PostgreSQL"
	case "cockroachdb":
		return "CockroachDB"
	case "sqlite":
		return "SQLite"
	case "ephemeral":
		return "Ephemeral PostgreSQL"
	default:
		return a.aboutInfo.DatabaseType
	}
}

// getRendererDisplay names the rasterizer backend
func (a *AboutPage) getRendererDisplay() string {
	switch a.aboutInfo.Renderer {
	case "", "pdfium":
		return "PDFium (WebAssembly)"
	case "fitz":
		return "MuPDF"
	default:
		return a.aboutInfo.Renderer
	}
}

// getPrinterStatus reports whether Markdown sources can be compiled
func (a *AboutPage) getPrinterStatus() string {
	if a.aboutInfo.ChromePath == "" {
		return "Not found (PDF sources only)"
	}
	return a.aboutInfo.ChromePath
}

func (a *AboutPage) getAutoReloadStatus() string {
	if a.aboutInfo.AutoReload {
		return "Enabled"
	}
	return "Disabled"
}
