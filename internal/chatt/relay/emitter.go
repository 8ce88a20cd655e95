package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/Joach27/chatt/internal/openrouter"
)

// Event names delivered to clients
const (
	EventChat  = "chat"
	EventDone  = "done"
	EventError = "error"
)

// ErrEmitterClosed is returned when the client transport no longer accepts events
var ErrEmitterClosed = errors.New("emitter closed")

// Event is one push to the client transport
type Event struct {
	Name string
	Data string
}

// Emitter is the client-facing push transport.
//
// Send blocks until the transport accepted the event or ctx is done; this
// is how a slow client slows down the upstream read. Close is called
// exactly once per relay: with nil after the done event, or with the
// failure otherwise.
type Emitter interface {
	Send(ctx context.Context, ev Event) error
	Close(err error)
}

// WriterEmitter prints the assistant text of each chat event to an
// io.Writer. Raw payloads that decode as provider stream events are
// reduced to their delta text; anything else is written as-is.
type WriterEmitter struct {
	mu  sync.Mutex
	w   io.Writer
	err error
	raw bool
}

// NewWriterEmitter creates an emitter writing to w.
// With raw set, chat payloads are written unmodified, one per line.
func NewWriterEmitter(w io.Writer, raw bool) *WriterEmitter {
	return &WriterEmitter{w: w, raw: raw}
}

// Send implements Emitter
func (e *WriterEmitter) Send(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	switch ev.Name {
	case EventChat:
		if e.raw {
			_, err = fmt.Fprintln(e.w, ev.Data)
		} else if text, ok := openrouter.DeltaText(ev.Data); ok {
			_, err = io.WriteString(e.w, text)
		} else if !looksLikeJSON(ev.Data) && !isComment(ev.Data) {
			_, err = io.WriteString(e.w, ev.Data)
		}
	case EventDone:
		_, err = fmt.Fprintln(e.w)
	case EventError:
		_, err = fmt.Fprintf(e.w, "\nerror: %s\n", ev.Data)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmitterClosed, err)
	}
	return nil
}

// Close implements Emitter
func (e *WriterEmitter) Close(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// Err returns the error the relay closed the emitter with
func (e *WriterEmitter) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func looksLikeJSON(s string) bool {
	return len(s) > 0 && (s[0] == '{' || s[0] == '[')
}

// isComment reports provider keep-alive lines such as ": OPENROUTER PROCESSING"
func isComment(s string) bool {
	return len(s) > 0 && s[0] == ':'
}
