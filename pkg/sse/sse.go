// Package sse streams Server-Sent Events. It backs the dashboard feed for
// clients that cannot hold a WebSocket open:
//
//	stream, err := sse.New(w, r)
//	if err != nil { ... }
//	events, cancel := hub.Subscribe(shopID)
//	defer cancel()
//	stream.Pipe(events, "order", 25*time.Second)
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUnsupported is returned when the response cannot be flushed.
var ErrUnsupported = errors.New("sse: streaming not supported")

// Stream is an open event-stream response.
type Stream struct {
	w   http.ResponseWriter
	rc  *http.ResponseController
	ctx context.Context
}

// New commits the event-stream headers and lifts the server write deadline
// for this response. Nothing is written when it returns an error.
func New(w http.ResponseWriter, r *http.Request) (*Stream, error) {
	rc := http.NewResponseController(w)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // nginx

	// Flushing commits the headers with a 200.
	if err := rc.Flush(); err != nil {
		return nil, ErrUnsupported
	}
	// Not every writer supports deadlines; the stream still works within
	// the server's WriteTimeout then.
	_ = rc.SetWriteDeadline(time.Time{})

	return &Stream{w: w, rc: rc, ctx: r.Context()}, nil
}

// Event writes one named event. Multi-line data is split into data lines.
func (s *Stream) Event(name string, data []byte) error {
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "event: %s\n", name)
	}
	for _, line := range strings.Split(string(data), "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	return s.write(b.String())
}

// Send writes v as a JSON-encoded event.
func (s *Stream) Send(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sse: marshal: %w", err)
	}
	return s.Event(name, data)
}

// Comment writes a comment line, used as a heartbeat.
func (s *Stream) Comment(msg string) error {
	return s.write(": " + msg + "\n\n")
}

func (s *Stream) write(frame string) error {
	if _, err := fmt.Fprint(s.w, frame); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Pipe forwards events as name events until the client disconnects or
// events is closed, sending a heartbeat comment every heartbeat when idle.
// It returns nil on a clean end and the write error otherwise.
func (s *Stream) Pipe(events <-chan []byte, name string, heartbeat time.Duration) error {
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return nil
		case data, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Event(name, data); err != nil {
				return err
			}
		case <-ticker.C:
			if err := s.Comment("ping"); err != nil {
				return err
			}
		}
	}
}
