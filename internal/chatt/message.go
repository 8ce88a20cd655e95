package chatt

import "time"

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message represents a single message in a conversation.
// A Message is never edited after creation; new content becomes a new Message.
type Message struct {
	Role      Role      `json:"role"`      // "user", "assistant" or "system"
	Content   string    `json:"content"`   // Message content
	Timestamp time.Time `json:"timestamp"` // Time the message was appended
}
