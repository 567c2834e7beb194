package engine

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

// eventHub fans view state out to SSE subscribers. Each subscriber holds at
// most one pending state; a newer state replaces an unread one, so a slow
// client never blocks the presentation loop.
type eventHub struct {
	mu     sync.Mutex
	subs   map[chan ViewState]struct{}
	closed bool
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[chan ViewState]struct{})}
}

func (h *eventHub) subscribe() (<-chan ViewState, func()) {
	ch := make(chan ViewState, 1)
	h.mu.Lock()
	if h.closed {
		close(ch)
	} else {
		h.subs[ch] = struct{}{}
	}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

func (h *eventHub) publish(s ViewState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// StreamViewEvents streams the view state as server-sent events
// @Summary Stream view state
// @Description Server-sent events carrying the view state whenever the page, page range, loading flag, viewport, frame or error changes. The current state is sent first.
// @Tags View
// @Produce text/event-stream
// @Success 200 {object} ViewState "Stream of view states"
// @Router /view/events [get]
func (serverHandler *ServerHandler) StreamViewEvents(c echo.Context) error {
	states, cancel := serverHandler.events.subscribe()
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	if err := writeEvent(res, serverHandler.State()); err != nil {
		return nil
	}
	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-states:
			if !ok {
				return nil
			}
			if err := writeEvent(res, s); err != nil {
				Logger.Debug("Event stream closed", "error", err)
				return nil
			}
		}
	}
}

func writeEvent(res *echo.Response, s ViewState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: state\ndata: %s\n\n", data); err != nil {
		return err
	}
	res.Flush()
	return nil
}
