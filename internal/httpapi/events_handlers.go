package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"valetsite/internal/events"
)

const sseKeepAlive = 25 * time.Second

// EventsHandler streams hub events to an admin as server-sent events.
type EventsHandler struct {
	Hub       *events.Hub
	KeepAlive time.Duration
}

func writeSSE(w io.Writer, e events.Event) {
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.Seq, e.Type, e.JSON())
}

func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "streaming unsupported")
		return
	}

	sub := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	// the hello ping is not published, so it carries seq 0
	writeSSE(w, events.New(RequestIDFrom(r.Context()), events.TypePing, nil))
	flusher.Flush()

	every := h.KeepAlive
	if every <= 0 {
		every = sseKeepAlive
	}
	tick := time.NewTicker(every)
	defer tick.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			writeSSE(w, e)
			flusher.Flush()
		case <-tick.C:
			_, _ = io.WriteString(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}
