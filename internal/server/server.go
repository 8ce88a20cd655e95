// Package server exposes the relay over HTTP: Server-Sent Events and
// WebSocket streaming endpoints, a single-shot endpoint, and history
// inspection.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/Joach27/chatt/internal/chatt"
	"github.com/Joach27/chatt/internal/chatt/relay"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// Relayer is the orchestration the endpoints drive
type Relayer interface {
	Stream(ctx context.Context, req chatt.Request, em relay.Emitter) error
	AskWithHistory(ctx context.Context, req chatt.Request) (string, error)
}

// Sessions is the part of the session store exposed over HTTP
type Sessions interface {
	Snapshot(id string) []chatt.Message
	Clear(id string)
}

// Config holds server configuration
type Config struct {
	Addr           string
	Relay          Relayer
	Sessions       Sessions
	AllowedOrigins []string // "*" allows any origin
	Logger         zerolog.Logger
}

// Server owns the HTTP routes
type Server struct {
	addr     string
	relay    Relayer
	sessions Sessions
	origins  map[string]bool
	anyOrig  bool
	upgrader websocket.Upgrader
	mux      *http.ServeMux
	logger   zerolog.Logger
}

// New creates a Server and registers its routes
func New(cfg Config) (*Server, error) {
	if cfg.Relay == nil {
		return nil, errors.New("relay is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("sessions are required")
	}

	s := &Server{
		addr:     cfg.Addr,
		relay:    cfg.Relay,
		sessions: cfg.Sessions,
		origins:  make(map[string]bool, len(cfg.AllowedOrigins)),
		mux:      http.NewServeMux(),
		logger:   cfg.Logger,
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			s.anyOrig = true
		}
		s.origins[o] = true
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	s.registerHTTPHandlers()
	return s, nil
}

func (s *Server) registerHTTPHandlers() {
	s.mux.HandleFunc("GET /api/chat/stream", s.handleStream)
	s.mux.HandleFunc("GET /api/chat/ws", s.handleWebSocket)
	s.mux.HandleFunc("POST /api/chat", s.handleAsk)
	s.mux.HandleFunc("GET /api/chat/history", s.handleHistory)
	s.mux.HandleFunc("DELETE /api/chat/history", s.handleClear)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Handler returns the root handler, CORS included
func (s *Server) Handler() http.Handler {
	return s.cors(s.mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
// Request contexts derive from ctx, so open streams are cancelled (and
// their upstream requests released) as soon as shutdown begins.
func (s *Server) Run(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: streams are open-ended.
		BaseContext: func(net.Listener) context.Context { return egCtx },
	}

	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("server shutdown error")
			return errors.Wrap(err, "server shutdown")
		}
		s.logger.Info().Msg("server shutdown complete")
		return nil
	})

	eg.Go(func() error {
		s.logger.Info().Str("addr", s.addr).Msg("starting relay server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("server listen error")
			return errors.Wrap(err, "listen")
		}
		return nil
	})

	return eg.Wait()
}

func (s *Server) originAllowed(origin string) bool {
	return s.anyOrig || s.origins[origin]
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || s.originAllowed(origin)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestFromQuery binds the sessionId, message and model query parameters
func requestFromQuery(r *http.Request) chatt.Request {
	q := r.URL.Query()
	return chatt.Request{
		SessionID: q.Get("sessionId"),
		Message:   q.Get("message"),
		Model:     q.Get("model"),
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	req := requestFromQuery(r)
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	em, err := newSSEEmitter(w)
	if err != nil {
		s.logger.Error().Err(err).Msg("Streaming unsupported")
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	_ = s.relay.Stream(r.Context(), req, em)
	em.finish()
}

type askRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Model     string `json:"model,omitempty"`
}

type askResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var body askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errors.Wrap(err, "decode request").Error()})
		return
	}

	req := chatt.Request{SessionID: body.SessionID, Message: body.Message, Model: body.Model}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	reply, err := s.relay.AskWithHistory(r.Context(), req)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Single-shot request failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "upstream request failed"})
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Reply: reply})
}

type historyResponse struct {
	SessionID string          `json:"sessionId"`
	Messages  []chatt.Message `json:"messages"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("sessionId")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: chatt.ErrMissingSession.Error()})
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: id, Messages: s.sessions.Snapshot(id)})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("sessionId")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: chatt.ErrMissingSession.Error()})
		return
	}
	s.sessions.Clear(id)
	s.logger.Info().Str("session_id", id).Msg("Session cleared")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
