package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/history"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/message"
)

// InMemoryStore keeps transcripts in process memory. Used by tests and the
// CLI when no database is configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]*message.Message
	updated  map[string]time.Time
}

// NewInMemoryStore creates an empty in-memory history store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string][]*message.Message),
		updated:  make(map[string]time.Time),
	}
}

// Append records one message at the end of the session transcript.
func (s *InMemoryStore) Append(ctx context.Context, sessionID string, role message.Role, content string, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := message.NewMessage(role, content)
	for k, v := range metadata {
		msg.Metadata[k] = v
	}
	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
	s.updated[sessionID] = time.Now()
	return nil
}

// History returns a copy of the session transcript in insertion order.
func (s *InMemoryStore) History(ctx context.Context, sessionID string) ([]*message.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return message.CloneMessages(s.sessions[sessionID]), nil
}

// Sessions lists known sessions, most recently updated first.
func (s *InMemoryStore) Sessions(ctx context.Context) ([]history.SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]history.SessionInfo, 0, len(s.sessions))
	for id, msgs := range s.sessions {
		infos = append(infos, history.SessionInfo{
			SessionID:    id,
			Title:        history.Title(msgs),
			UpdatedAt:    s.updated[id],
			MessageCount: len(msgs),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

// Delete removes a session and its messages.
func (s *InMemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	delete(s.updated, sessionID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close(ctx context.Context) error {
	return nil
}
