package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Joach27/chatt/internal/chatt/config"
	"github.com/Joach27/chatt/internal/chatt/session"
	"github.com/Joach27/chatt/internal/server"
	"github.com/Joach27/chatt/internal/version"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP relay server",
	Long: `Run the relay as an HTTP server.

Endpoints:
  GET    /api/chat/stream?sessionId=..&message=..[&model=..]   Server-Sent Events
  GET    /api/chat/ws?sessionId=..&message=..[&model=..]       WebSocket
  POST   /api/chat                                             single-shot JSON
  GET    /api/chat/history?sessionId=..                        session history
  DELETE /api/chat/history?sessionId=..                        clear session
  GET    /healthz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr = serveAddr
		}

		log, err := newLogger(cfg)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer log.Close()

		store := session.NewStore()
		r, err := newRelay(cfg, log, store)
		if err != nil {
			return err
		}

		srv, err := server.New(server.Config{
			Addr:           cfg.Addr,
			Relay:          r,
			Sessions:       store,
			AllowedOrigins: cfg.AllowedOrigins,
			Logger:         log.Zerolog(),
		})
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info().
			Str("version", version.Short()).
			Str("default_model", cfg.DefaultModel).
			Msg("chatt relay starting")
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", config.DefaultAddr, "Listen address (overrides addr in config)")
}
