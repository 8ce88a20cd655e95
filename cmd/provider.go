package cmd

import (
	"fmt"

	"github.com/Joach27/chatt/internal/chatt/config"
	"github.com/Joach27/chatt/internal/chatt/relay"
	"github.com/Joach27/chatt/internal/chatt/session"
	"github.com/Joach27/chatt/internal/logger"
	"github.com/Joach27/chatt/internal/openrouter"
)

// newLogger builds the process logger from configuration.
// --verbose forces debug level.
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	lc := logger.DefaultConfig()
	lc.Level = cfg.LogLevel
	lc.Pretty = cfg.LogPretty
	lc.File = cfg.LogFile
	if verbose {
		lc.Level = "debug"
	}
	return logger.New(lc)
}

// newRelay wires the session store, the OpenRouter client and the relay
func newRelay(cfg *config.Config, log *logger.Logger, store *session.Store) (*relay.Relay, error) {
	baseURL, err := cfg.GetBaseURL()
	if err != nil {
		return nil, err
	}
	token, err := cfg.GetToken()
	if err != nil {
		return nil, err
	}

	client := openrouter.NewClient(openrouter.Config{
		BaseURL: baseURL,
		APIKey:  token,
		Logger:  log.Zerolog(),
	})

	r, err := relay.New(relay.Config{
		History:      store,
		Upstream:     client,
		DefaultModel: cfg.DefaultModel,
		IdleTimeout:  cfg.IdleTimeout(),
		ErrorEvent:   cfg.ErrorEvent,
		Logger:       log.Zerolog(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating relay: %w", err)
	}
	return r, nil
}
