// Package conversation defines the per-user, per-channel chat history and the
// in-memory store that owns it.
package conversation

// Turn role constants.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MaxTurns bounds a history to the most recent 8 user+assistant pairs.
const MaxTurns = 16

// Key identifies one independent conversation context. Two messages share
// history only when both the author and the channel match exactly.
type Key struct {
	UserID    string
	ChannelID string
}

// Turn is one exchanged message, immutable once created.
type Turn struct {
	Role string
	Text string
}
