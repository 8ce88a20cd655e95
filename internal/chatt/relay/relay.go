package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Joach27/chatt/internal/chatt"
	"github.com/Joach27/chatt/internal/chatt/stream"
	"github.com/Joach27/chatt/internal/openrouter"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrIdleTimeout is returned when the upstream sends nothing for longer than the configured idle timeout
var ErrIdleTimeout = errors.New("upstream idle timeout")

// History is the session store as seen by the relay
type History interface {
	Append(id string, role chatt.Role, content string)
	Snapshot(id string) []chatt.Message
}

// Upstream is the chat-completion provider
type Upstream interface {
	Complete(ctx context.Context, req openrouter.ChatRequest) (*openrouter.ChatResponse, error)
	Stream(ctx context.Context, req openrouter.ChatRequest) (io.ReadCloser, error)
}

// Config holds relay configuration
type Config struct {
	History      History
	Upstream     Upstream
	DefaultModel string
	ErrorEvent   bool // Send an "error" event before a failing Close
	Logger       zerolog.Logger

	// IdleTimeout bounds the wait between emitted chunks; 0 waits forever.
	// Blank keep-alive lines are not chunks and do not extend it.
	IdleTimeout time.Duration
}

// Relay is the relay orchestrator
type Relay struct {
	history      History
	upstream     Upstream
	defaultModel string
	idleTimeout  time.Duration
	errorEvent   bool
	logger       zerolog.Logger
}

// New creates a Relay
func New(cfg Config) (*Relay, error) {
	if cfg.History == nil {
		return nil, fmt.Errorf("history is required")
	}
	if cfg.Upstream == nil {
		return nil, fmt.Errorf("upstream is required")
	}
	if cfg.DefaultModel == "" {
		return nil, fmt.Errorf("default model is required")
	}
	if cfg.IdleTimeout < 0 {
		return nil, fmt.Errorf("invalid idle timeout: %s", cfg.IdleTimeout)
	}
	return &Relay{
		history:      cfg.History,
		upstream:     cfg.Upstream,
		defaultModel: cfg.DefaultModel,
		idleTimeout:  cfg.IdleTimeout,
		errorEvent:   cfg.ErrorEvent,
		logger:       cfg.Logger,
	}, nil
}

// ResolveModel returns override when non-blank, otherwise the default model
func (r *Relay) ResolveModel(override string) string {
	return chatt.ChooseModel(override, r.defaultModel)
}

// Stream relays one user turn: it records the turn, streams the upstream
// reply to em chunk by chunk while recording each chunk, and closes em.
// The returned error is the one em was closed with.
func (r *Relay) Stream(ctx context.Context, req chatt.Request, em Emitter) error {
	if err := req.Validate(); err != nil {
		em.Close(err)
		return err
	}

	relayID, err := gonanoid.New()
	if err != nil {
		r.logger.Debug().Err(err).Msg("Could not generate relay id")
		relayID = ""
	}
	model := r.ResolveModel(req.Model)
	logger := r.logger.With().
		Str("relay_id", relayID).
		Str("session_id", req.SessionID).
		Str("model", model).
		Logger()
	start := time.Now()

	r.history.Append(req.SessionID, chatt.RoleUser, req.Message)
	messages := toChatMessages(r.history.Snapshot(req.SessionID))

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	g, gctx := errgroup.WithContext(ctx)

	logger.Debug().Int("messages", len(messages)).Msg("Opening upstream stream")
	body, err := r.upstream.Stream(gctx, openrouter.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return r.fail(ctx, logger, em, fmt.Errorf("opening upstream stream: %w", err))
	}
	defer body.Close()

	var idle *time.Timer
	if r.idleTimeout > 0 {
		idle = time.AfterFunc(r.idleTimeout, func() { cancel(ErrIdleTimeout) })
		defer idle.Stop()
	}

	// Unbuffered: the parser cannot run ahead of the client transport.
	chunks := make(chan stream.Chunk)
	g.Go(func() error {
		return stream.Parse(gctx, body, chunks)
	})

	sent := 0
	g.Go(func() error {
		for c := range chunks {
			if c.Terminal {
				continue
			}
			if idle != nil {
				idle.Stop()
			}
			r.history.Append(req.SessionID, chatt.RoleAssistant, c.Text)
			if err := em.Send(gctx, Event{Name: EventChat, Data: c.Text}); err != nil {
				return fmt.Errorf("%w: %w", ErrEmitterClosed, err)
			}
			sent++
			if idle != nil {
				idle.Reset(r.idleTimeout)
			}
		}
		return nil
	})

	err = g.Wait()
	if idle != nil {
		idle.Stop()
	}
	if err != nil {
		if errors.Is(context.Cause(ctx), ErrIdleTimeout) {
			err = ErrIdleTimeout
		}
		logger = logger.With().Int("chunks", sent).Logger()
		return r.fail(ctx, logger, em, err)
	}

	if err := em.Send(ctx, Event{Name: EventDone, Data: ""}); err != nil {
		return r.fail(ctx, logger, em, fmt.Errorf("%w: %w", ErrEmitterClosed, err))
	}
	em.Close(nil)

	logger.Info().
		Int("chunks", sent).
		Dur("duration", time.Since(start)).
		Msg("Relay completed")
	return nil
}

// fail closes em with err, first sending an error event when configured
// and the client is still there to receive it.
func (r *Relay) fail(ctx context.Context, logger zerolog.Logger, em Emitter, err error) error {
	clientGone := errors.Is(err, ErrEmitterClosed) ||
		(errors.Is(err, context.Canceled) && !errors.Is(context.Cause(ctx), ErrIdleTimeout))

	if clientGone {
		logger.Info().Err(err).Msg("Client went away, upstream released")
	} else {
		logger.Error().Err(err).Msg("Relay failed")
		if r.errorEvent {
			if sendErr := em.Send(context.WithoutCancel(ctx), Event{Name: EventError, Data: err.Error()}); sendErr != nil {
				logger.Debug().Err(sendErr).Msg("Could not deliver error event")
			}
		}
	}
	em.Close(err)
	return err
}

// Ask sends a single user message without history and returns the reply
func (r *Relay) Ask(ctx context.Context, message, model string) (string, error) {
	resp, err := r.upstream.Complete(ctx, openrouter.ChatRequest{
		Model:    r.ResolveModel(model),
		Messages: []openrouter.ChatMessage{{Role: string(chatt.RoleUser), Content: message}},
	})
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	return resp.Reply(), nil
}

// AskWithHistory records the user turn, sends the whole session history as
// a single-shot request, records the reply as one assistant Message and
// returns it. A completion without text yields openrouter.NoResponse.
func (r *Relay) AskWithHistory(ctx context.Context, req chatt.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	r.history.Append(req.SessionID, chatt.RoleUser, req.Message)
	resp, err := r.upstream.Complete(ctx, openrouter.ChatRequest{
		Model:    r.ResolveModel(req.Model),
		Messages: toChatMessages(r.history.Snapshot(req.SessionID)),
	})
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}

	reply := resp.Reply()
	r.history.Append(req.SessionID, chatt.RoleAssistant, reply)
	return reply, nil
}

func toChatMessages(history []chatt.Message) []openrouter.ChatMessage {
	messages := make([]openrouter.ChatMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, openrouter.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return messages
}
