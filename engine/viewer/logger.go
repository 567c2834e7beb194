package viewer

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record and reports itself disabled so callers
// skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger used by the viewer. By default the viewer
// is silent. Passing nil restores the silent default.
//
// Log levels used:
//   - [slog.LevelDebug]: job dispatch, coalescing, cache reuse
//   - [slog.LevelInfo]: document published, view torn down
//   - [slog.LevelWarn]: render failures
//   - [slog.LevelError]: load failures, recovered panics
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the logger currently used by the viewer.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
