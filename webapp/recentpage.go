package webapp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// RecentPage lists recently opened sources; choosing one reopens it.
type RecentPage struct {
	app.Compo
	documents []RecentDocument
	loading   bool
	error     string
}

// OnMount is called when the component is mounted
func (r *RecentPage) OnMount(ctx app.Context) {
	if !app.IsClient {
		return
	}
	r.loading = true
	fetchJSON(ctx, http.MethodGet, "/api/recent", nil, func(ctx app.Context, status int, jsonStr string) {
		r.loading = false
		if status != http.StatusOK {
			r.error = apiError(status, jsonStr)
			return
		}
		if err := json.Unmarshal([]byte(jsonStr), &r.documents); err != nil {
			r.error = "Failed to parse response: " + err.Error()
		}
	})
}

func (r *RecentPage) onOpen(path string) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		e.PreventDefault()
		fetchJSON(ctx, http.MethodPost, "/api/view/open", map[string]string{"path": path},
			func(ctx app.Context, status int, jsonStr string) {
				if status != http.StatusAccepted {
					r.error = apiError(status, jsonStr)
					return
				}
				ctx.Navigate("/")
			})
	}
}

// Render renders the recent documents page
func (r *RecentPage) Render() app.UI {
	var content app.UI
	switch {
	case r.loading:
		content = app.Div().Class("loading").Body(app.Text("Loading..."))
	case r.error != "":
		content = app.Div().Class("error").Body(app.Text("Error: " + r.error))
	case len(r.documents) == 0:
		content = app.Div().Class("no-results").Body(app.Text("No documents opened yet."))
	default:
		content = app.Div().Class("document-grid").Body(
			app.Range(r.documents).Slice(func(i int) app.UI {
				doc := r.documents[i]
				return app.Div().Class("document-card").Body(
					app.Div().Class("document-icon").Body(app.Text("📄")),
					app.Div().Class("document-info").Body(
						app.H3().Text(documentTitle(doc)),
						app.P().Class("document-path").Text(doc.Path),
						app.P().Class("document-date").Text(pageCountLabel(doc.PageCount)+" · "+formatOpenedAt(doc.OpenedAt)),
						app.A().
							Href("/").
							Class("document-link").
							OnClick(r.onOpen(doc.Path)).
							Body(app.Text("Open")),
					),
				)
			}),
		)
	}

	return app.Div().Class("recent-page").Body(
		app.H2().Text("Recent Documents"),
		content,
	)
}

// documentTitle prefers the PDF title over the file path.
func documentTitle(doc RecentDocument) string {
	if doc.Title != "" {
		return doc.Title
	}
	return doc.Path
}

func pageCountLabel(n int) string {
	if n == 1 {
		return "1 page"
	}
	return fmt.Sprintf("%d pages", n)
}

func formatOpenedAt(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Local().Format("Jan 2, 2006 at 3:04 PM")
}
