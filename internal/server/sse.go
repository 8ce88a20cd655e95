package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/Joach27/chatt/internal/chatt/relay"
	"github.com/pkg/errors"
)

// sseEmitter writes relay events as Server-Sent Events.
// Headers are committed by the first event, so a relay that fails before
// producing anything is answered with a plain 502 instead of an empty stream.
type sseEmitter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
	err     error
}

func newSSEEmitter(w http.ResponseWriter) (*sseEmitter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}
	return &sseEmitter{w: w, flusher: flusher}, nil
}

func (e *sseEmitter) start() {
	h := e.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	e.w.WriteHeader(http.StatusOK)
	e.started = true
}

// Send implements relay.Emitter. Multi-line payloads are sent as one
// data field per line, which clients reassemble with newlines.
func (e *sseEmitter) Send(ctx context.Context, ev relay.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		e.start()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", ev.Name)
	for _, line := range strings.Split(ev.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	if _, err := e.w.Write([]byte(b.String())); err != nil {
		return errors.Wrap(err, "write event")
	}
	e.flusher.Flush()
	return nil
}

// Close implements relay.Emitter
func (e *sseEmitter) Close(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// finish ends the response after the relay returned. A failure after the
// stream started aborts the connection so the client cannot mistake it
// for a clean end of stream.
func (e *sseEmitter) finish() {
	e.mu.Lock()
	err, started := e.err, e.started
	e.mu.Unlock()

	if err == nil {
		return
	}
	if !started {
		http.Error(e.w, "upstream request failed", http.StatusBadGateway)
		return
	}
	panic(http.ErrAbortHandler)
}
