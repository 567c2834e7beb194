package webapp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// Navigation moves, named after their API paths.
const (
	moveFirst    = "first"
	movePrevious = "previous"
	moveNext     = "next"
	moveLast     = "last"
)

// keyMoves maps keyboard keys to navigation moves.
var keyMoves = map[string]string{
	"Home":       moveFirst,
	"PageUp":     movePrevious,
	"ArrowLeft":  movePrevious,
	"PageDown":   moveNext,
	"ArrowRight": moveNext,
	"End":        moveLast,
}

// keyMove returns the navigation move bound to key, or "".
func keyMove(key string) string {
	return keyMoves[key]
}

// rasterURL addresses the drawing surface for a frame. The frame number
// defeats the browser cache.
func rasterURL(frame uint64) string {
	return BuildAPIURL(fmt.Sprintf("/api/view/raster.png?frame=%d", frame))
}

// pageLabel describes the current position.
func pageLabel(s ViewState) string {
	if s.PageCount == 0 {
		return "No document"
	}
	return fmt.Sprintf("Page %d of %d", s.PageIndex+1, s.MaxPageIndex+1)
}

// canMove reports whether move is enabled in s.
func canMove(s ViewState, move string) bool {
	switch move {
	case moveFirst:
		return s.CanFirst
	case movePrevious:
		return s.CanPrevious
	case moveNext:
		return s.CanNext
	case moveLast:
		return s.CanLast
	}
	return false
}

// ViewerPage shows the current page with pager buttons, open and save
// forms and an error toast. It follows the server's state stream.
type ViewerPage struct {
	app.Compo
	state    ViewState
	openPath string
	savePath string
	toast    string
	events   app.Value
	release  []app.Func
}

// OnMount is called when the component is mounted
func (v *ViewerPage) OnMount(ctx app.Context) {
	if !app.IsClient {
		return
	}
	v.loadState(ctx)
	v.subscribe(ctx)
	ctx.Defer(func(ctx app.Context) {
		v.sendViewport(ctx)
		if el := app.Window().GetElementByID("viewer"); el.Truthy() {
			el.Call("focus")
		}
	})
}

// OnDismount is called when the component is unmounted
func (v *ViewerPage) OnDismount() {
	if v.events != nil && v.events.Truthy() {
		v.events.Call("close")
	}
	for _, fn := range v.release {
		fn.Release()
	}
	v.release = nil
}

// subscribe follows the state stream and resizes the viewport with the
// window.
func (v *ViewerPage) subscribe(ctx app.Context) {
	onState := app.FuncOf(func(this app.Value, args []app.Value) any {
		if len(args) == 0 {
			return nil
		}
		data := args[0].Get("data").String()
		ctx.Dispatch(func(ctx app.Context) {
			var s ViewState
			if err := json.Unmarshal([]byte(data), &s); err == nil {
				v.applyState(s)
			}
		})
		return nil
	})
	onResize := app.FuncOf(func(this app.Value, args []app.Value) any {
		ctx.Dispatch(v.sendViewport)
		return nil
	})
	v.release = append(v.release, onState, onResize)

	v.events = app.Window().Get("EventSource").New(BuildAPIURL("/api/view/events"))
	v.events.Call("addEventListener", "state", onState)
	app.Window().Call("addEventListener", "resize", onResize)
}

// applyState takes a new server state; an error is shown once.
func (v *ViewerPage) applyState(s ViewState) {
	if s.Error != "" && s.Error != v.state.Error {
		v.toast = s.Error
	}
	v.state = s
	if v.savePath == "" && s.SourcePath != "" {
		v.savePath = strings.TrimSuffix(s.SourcePath, path.Ext(s.SourcePath)) + ".pdf"
	}
	if app.IsClient {
		app.Window().Get("document").Set("title", s.Title)
	}
}

func (v *ViewerPage) loadState(ctx app.Context) {
	fetchJSON(ctx, http.MethodGet, "/api/view", nil, v.onStateResponse)
}

func (v *ViewerPage) onStateResponse(ctx app.Context, status int, jsonStr string) {
	if status < 200 || status >= 300 {
		v.toast = apiError(status, jsonStr)
		return
	}
	var s ViewState
	if err := json.Unmarshal([]byte(jsonStr), &s); err != nil {
		v.toast = "Failed to parse view state: " + err.Error()
		return
	}
	v.applyState(s)
}

// sendViewport reports the size of the raster area.
func (v *ViewerPage) sendViewport(ctx app.Context) {
	el := app.Window().GetElementByID("raster-area")
	if !el.Truthy() {
		return
	}
	size := map[string]float64{
		"width":  el.Get("clientWidth").Float(),
		"height": el.Get("clientHeight").Float(),
	}
	fetchJSON(ctx, http.MethodPut, "/api/view/viewport", size, v.onStateResponse)
}

func (v *ViewerPage) move(ctx app.Context, move string) {
	if !canMove(v.state, move) {
		return
	}
	fetchJSON(ctx, http.MethodPost, "/api/view/"+move, nil, v.onStateResponse)
}

func (v *ViewerPage) onMove(move string) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		v.move(ctx, move)
	}
}

func (v *ViewerPage) onKeyDown(ctx app.Context, e app.Event) {
	if tag := e.Get("target").Get("tagName").String(); tag == "INPUT" {
		return
	}
	if move := keyMove(e.Get("key").String()); move != "" {
		e.PreventDefault()
		v.move(ctx, move)
	}
}

func (v *ViewerPage) onOpenInput(ctx app.Context, e app.Event) {
	v.openPath = ctx.JSSrc().Get("value").String()
}

func (v *ViewerPage) onSaveInput(ctx app.Context, e app.Event) {
	v.savePath = ctx.JSSrc().Get("value").String()
}

func (v *ViewerPage) onOpen(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if v.openPath == "" {
		return
	}
	fetchJSON(ctx, http.MethodPost, "/api/view/open", map[string]string{"path": v.openPath},
		func(ctx app.Context, status int, jsonStr string) {
			if status != http.StatusAccepted {
				v.toast = apiError(status, jsonStr)
			}
		})
}

func (v *ViewerPage) onSave(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if v.savePath == "" {
		return
	}
	fetchJSON(ctx, http.MethodPost, "/api/view/save", map[string]string{"path": v.savePath},
		func(ctx app.Context, status int, jsonStr string) {
			if status != http.StatusOK {
				v.toast = apiError(status, jsonStr)
				return
			}
			var res struct {
				Path string `json:"path"`
			}
			if err := json.Unmarshal([]byte(jsonStr), &res); err == nil {
				v.toast = "Saved " + res.Path
			}
		})
}

func (v *ViewerPage) onDismissToast(ctx app.Context, e app.Event) {
	v.toast = ""
}

// Render renders the viewer page
func (v *ViewerPage) Render() app.UI {
	return app.Div().
		ID("viewer").
		Class("viewer-page").
		TabIndex(0).
		OnKeyDown(v.onKeyDown).
		Body(
			app.Form().Class("viewer-toolbar").OnSubmit(v.onOpen).Body(
				app.Input().
					Type("text").
					Class("path-input").
					Placeholder("Path to a .pdf, .md or .yml source").
					Value(v.openPath).
					OnInput(v.onOpenInput),
				app.Button().
					Type("submit").
					Class("btn-primary").
					Disabled(v.state.Loading).
					Text("Open"),
			),
			app.Div().Class("pager").Body(
				v.renderPagerButton(moveFirst, "⏮ First"),
				v.renderPagerButton(movePrevious, "◀ Previous"),
				app.Span().Class("pager-info").Text(pageLabel(v.state)),
				v.renderPagerButton(moveNext, "Next ▶"),
				v.renderPagerButton(moveLast, "Last ⏭"),
				app.If(v.state.Loading, func() app.UI {
					return app.Span().Class("loading-indicator").Text("Loading…")
				}),
			),
			app.Div().ID("raster-area").Class("raster-area").Body(
				app.If(v.state.PageCount > 0, func() app.UI {
					return app.Img().
						Class("raster").
						Src(rasterURL(v.state.Frame)).
						Alt(pageLabel(v.state))
				}).Else(func() app.UI {
					return app.Div().Class("info").Text("Open a source to start viewing.")
				}),
			),
			app.Form().Class("viewer-toolbar").OnSubmit(v.onSave).Body(
				app.Input().
					Type("text").
					Class("path-input").
					Placeholder("Save PDF to file or folder").
					Value(v.savePath).
					OnInput(v.onSaveInput),
				app.Button().
					Type("submit").
					Class("btn-secondary").
					Disabled(v.state.PageCount == 0).
					Text("Save as PDF"),
			),
			app.If(v.toast != "", func() app.UI {
				return app.Div().Class("toast").OnClick(v.onDismissToast).Body(
					app.Text(v.toast),
					app.Span().Class("toast-close").Text("✕"),
				)
			}),
		)
}

func (v *ViewerPage) renderPagerButton(move, label string) app.UI {
	return app.Button().
		Class("pager-btn").
		Disabled(!canMove(v.state, move)).
		OnClick(v.onMove(move)).
		Text(label)
}
