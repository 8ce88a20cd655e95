/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/Joach27/chatt/internal/chatt"
	"github.com/Joach27/chatt/internal/chatt/config"
	"github.com/Joach27/chatt/internal/chatt/relay"
	"github.com/Joach27/chatt/internal/chatt/session"
	"github.com/Joach27/chatt/internal/openrouter"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	chatSessionID string
	chatModel     string
	chatRaw       bool
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with a model, streaming the reply",
	Long: `Chat with a model from the terminal. The reply is printed as it streams.

With a message argument, a single turn is sent and the command exits.
Otherwise an interactive session starts; history is kept for the lifetime
of the process.

Interactive commands:
  /clear    forget the conversation so far
  /history  print the conversation so far
  /exit     leave (also /quit or Ctrl-D)

Ctrl-C interrupts the reply in progress.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		// Relay progress logs would interleave with the reply
		if cfg.LogLevel == "info" || cfg.LogLevel == "debug" {
			cfg.LogLevel = "warn"
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

		id := chatSessionID
		if id == "" {
			id = uuid.New().String()
		}
		if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "Session: %s\nModel: %s\n", id, r.ResolveModel(chatModel))
		}

		out := cmd.OutOrStdout()
		if len(args) > 0 {
			return chatTurn(r, out, id, strings.Join(args, " "))
		}
		return chatLoop(r, store, cmd.InOrStdin(), out, cmd.ErrOrStderr(), id)
	},
}

// chatTurn streams one reply to out. Ctrl-C cancels only this turn.
func chatTurn(r *relay.Relay, out io.Writer, id, message string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	em := relay.NewWriterEmitter(out, chatRaw)
	return r.Stream(ctx, chatt.Request{SessionID: id, Message: message, Model: chatModel}, em)
}

func chatLoop(r *relay.Relay, store *session.Store, in io.Reader, out, errOut io.Writer, id string) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(errOut, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(errOut)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/clear":
			store.Clear(id)
			fmt.Fprintln(errOut, "Conversation cleared.")
			continue
		case "/history":
			printHistory(out, store.Snapshot(id))
			continue
		}

		if err := chatTurn(r, out, id, line); err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(errOut, "\n(interrupted)")
				continue
			}
			fmt.Fprintf(errOut, "\nError: %v\n", err)
		}
	}
}

// printHistory prints the session, joining streamed assistant chunks into one reply
func printHistory(w io.Writer, history []chatt.Message) {
	var reply strings.Builder
	flush := func() {
		if reply.Len() > 0 {
			fmt.Fprintf(w, "assistant: %s\n", reply.String())
			reply.Reset()
		}
	}
	for _, m := range history {
		if m.Role == chatt.RoleAssistant {
			reply.WriteString(assistantText(m.Content))
			continue
		}
		flush()
		fmt.Fprintf(w, "%s: %s\n", m.Role, m.Content)
	}
	flush()
}

// assistantText reduces a recorded assistant chunk to its reply text
func assistantText(payload string) string {
	if text, ok := openrouter.DeltaText(payload); ok {
		return text
	}
	if strings.HasPrefix(payload, "{") || strings.HasPrefix(payload, ":") {
		return ""
	}
	return payload
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&chatSessionID, "session", "s", "", "Session ID (default: a new random UUID)")
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "Model to use (default: default_model from config)")
	chatCmd.Flags().BoolVar(&chatRaw, "raw", false, "Print raw upstream payloads instead of the reply text")
}
