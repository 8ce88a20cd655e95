package server

import (
	"context"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Joach27/chatt/internal/chatt/relay"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	wsWriteWait      = 10 * time.Second
	maxCloseReasonSz = 120
)

// wsFrame is the JSON text frame carrying one relay event
type wsFrame struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// wsEmitter writes relay events as WebSocket text frames and ends the
// stream with a close frame: normal closure on success, internal error
// with the failure as reason otherwise.
type wsEmitter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Send implements relay.Emitter
func (e *wsEmitter) Send(ctx context.Context, ev relay.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	_ = e.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := e.conn.WriteJSON(wsFrame{Event: ev.Name, Data: ev.Data}); err != nil {
		return errors.Wrap(err, "write frame")
	}
	return nil
}

// Close implements relay.Emitter
func (e *wsEmitter) Close(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	code, reason := websocket.CloseNormalClosure, ""
	if err != nil {
		code, reason = websocket.CloseInternalServerErr, closeReason(err.Error())
	}
	msg := websocket.FormatCloseMessage(code, reason)
	_ = e.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
}

// closeReason cuts s to fit a close frame without splitting a rune
func closeReason(s string) string {
	if len(s) <= maxCloseReasonSz {
		return s
	}
	n := maxCloseReasonSz
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	req := requestFromQuery(r)
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// A hijacked connection does not cancel r.Context() on disconnect;
	// the read loop notices instead, including the client's close reply.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	_ = s.relay.Stream(ctx, req, &wsEmitter{conn: conn})
}
