// Package chatt provides the core types shared by the relay: conversation
// roles, messages and the per-invocation request context.
// The session store, stream parser and relay orchestrator live in
// sub-packages and exchange only these types.
package chatt

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingSession is returned when a request carries no conversation identifier.
	ErrMissingSession = errors.New("session id is required")
	// ErrMissingMessage is returned when a request carries no user text.
	ErrMissingMessage = errors.New("message is required")
)

// Request is the context of a single relay invocation.
//
// Example usage:
//
//	req := chatt.Request{SessionID: "default", Message: "Hello", Model: ""}
//	if err := req.Validate(); err != nil { ... }
type Request struct {
	SessionID string // Opaque conversation identifier
	Message   string // New user text
	Model     string // Optional model override; blank means the configured default
}

// Validate checks that the required fields are present.
// Whitespace-only values count as missing.
func (r Request) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return ErrMissingSession
	}
	if strings.TrimSpace(r.Message) == "" {
		return ErrMissingMessage
	}
	return nil
}

// ChooseModel returns override when it is non-blank, otherwise fallback.
//
// Example:
//
//	model := ChooseModel("", "openai/gpt-3.5-turbo")
//	// model = "openai/gpt-3.5-turbo"
func ChooseModel(override, fallback string) string {
	if m := strings.TrimSpace(override); m != "" {
		return m
	}
	return fallback
}

// ParseRole converts a wire role name into a Role.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", fmt.Errorf("invalid role: %q (expected user, assistant or system)", s)
	}
	return role, nil
}
