package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docgate/docgate/internals/timeouts"
)

// HandlerStream relays a task's events as server-sent events. Log events
// carry their position as the event id, and a Last-Event-ID header resumes
// after that position. The response ends after the result or error event.
func (s *Server) HandlerStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		RenderError(w, http.StatusInternalServerError, CodeInternal, "Streaming unsupported", nil)
		return
	}
	taskID := chi.URLParam(r, "id")
	logger := s.requestLogger(r)
	after := lastEventID(r)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	events := s.Base.Streamer.StreamFrom(ctx, taskID, after)
	ticker := time.NewTicker(timeouts.Keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Stream client disconnected", "task_id", taskID)
			return
		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive %s\n\n", time.Now().Format(time.RFC3339))
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev.Payload())
			if err != nil {
				logger.Error("Failed to encode stream event", "task_id", taskID, "error", err)
				return
			}
			if ev.Seq > 0 {
				fmt.Fprintf(w, "id: %d\n", ev.Seq)
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}

func lastEventID(r *http.Request) int {
	raw := strings.TrimSpace(r.Header.Get("Last-Event-ID"))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
