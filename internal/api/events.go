package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/seantiz/quinttest/internal/model"
	"github.com/seantiz/quinttest/internal/store"
)

func (s *Server) handleStreamEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := s.matchID(w, r)
	if !ok {
		return
	}

	m, err := s.store.GetMatch(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "match not found")
		return
	}
	if err != nil {
		s.logger.Error("get match for events", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get match")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// A finished match has nothing left to stream.
	if model.IsTerminal(m.Status) {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Disable write timeout for long-lived SSE connections.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Error("set write deadline for SSE", "error", err)
	}

	// Subscribing to a match that finished after the status check returns a
	// closed channel, so the loop below ends at once.
	ch, unsub := s.manager.Broker().Subscribe(id)
	defer unsub()
	defer trackStream()()

	w.WriteHeader(http.StatusOK)
	flusher, canFlush := w.(http.Flusher)
	if canFlush {
		flusher.Flush()
	}

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				_ = writeSSEEvent(w, "done", "stream complete")
				streamEventsTotal.WithLabelValues("done").Inc()
				if canFlush {
					flusher.Flush()
				}
				return
			}
			if err := writeSSEEvent(w, msg.Event, msg.Data); err != nil {
				return
			}
			streamEventsTotal.WithLabelValues(msg.Event).Inc()
			if canFlush {
				flusher.Flush()
			}
		case <-r.Context().Done():
			return
		}
	}
}

// writeSSEEvent writes a named SSE event. Multi-line data is split so that
// each line gets its own "data:" prefix.
func writeSSEEvent(w http.ResponseWriter, eventType, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		return err
	}
	for seg := range strings.SplitSeq(data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", seg); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}
