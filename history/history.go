// Package history persists conversation transcripts. The workflow consumes
// History as read-only input; the in-flight query is appended only after
// its run completes, so a transcript never contains the current turn.
package history

import (
	"context"
	"time"

	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/message"
)

// SessionInfo summarises one conversation for listing surfaces.
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	Title        string    `json:"title"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// Store persists per-session message transcripts.
type Store interface {
	// Append records one message at the end of the session transcript.
	Append(ctx context.Context, sessionID string, role message.Role, content string, metadata map[string]any) error

	// History returns the session transcript in insertion order.
	History(ctx context.Context, sessionID string) ([]*message.Message, error)

	// Sessions lists known sessions, most recently updated first.
	Sessions(ctx context.Context) ([]SessionInfo, error)

	// Delete removes a session and its messages.
	Delete(ctx context.Context, sessionID string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// Title derives a session title from its first user message, truncated the
// way the sidebar displays it.
func Title(msgs []*message.Message) string {
	for _, m := range msgs {
		if m.Role == message.RoleUser && m.Content != "" {
			runes := []rune(m.Content)
			if len(runes) > 50 {
				return string(runes[:47]) + "..."
			}
			return m.Content
		}
	}
	return "New Conversation"
}
