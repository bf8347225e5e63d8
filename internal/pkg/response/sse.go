package response

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// EventStream writes server-sent events. Headers go out with the first
// event so a handler can still answer with a plain error before that.
type EventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

// NewEventStream reports false when w cannot flush.
func NewEventStream(w http.ResponseWriter) (*EventStream, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	return &EventStream{w: w, flusher: flusher}, true
}

func (s *EventStream) Started() bool {
	return s.started
}

// Send writes one named event with a JSON payload and flushes it.
func (s *EventStream) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}

	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
