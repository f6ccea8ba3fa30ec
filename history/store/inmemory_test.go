package store

import (
	"context"
	"testing"

	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/message"
)

func TestInMemoryStoreAppendAndHistory(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	if err := s.Append(ctx, "s1", message.RoleUser, "Điều kiện tốt nghiệp?", nil); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := s.Append(ctx, "s1", message.RoleAssistant, "Theo Điều 27...", map[string]any{"confidence": 0.9}); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	msgs, err := s.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != message.RoleUser || msgs[1].Role != message.RoleAssistant {
		t.Fatalf("unexpected roles %v %v", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Metadata["confidence"] != 0.9 {
		t.Fatalf("metadata not stored: %v", msgs[1].Metadata)
	}
}

func TestInMemoryStoreHistoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	if err := s.Append(ctx, "s1", message.RoleUser, "câu hỏi", nil); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	msgs, _ := s.History(ctx, "s1")
	msgs[0].Content = "đã sửa"

	again, _ := s.History(ctx, "s1")
	if again[0].Content != "câu hỏi" {
		t.Fatalf("history mutated through returned slice: %q", again[0].Content)
	}
}

func TestInMemoryStoreSessionsOrderedByUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	s.Append(ctx, "older", message.RoleUser, "câu 1", nil)
	s.Append(ctx, "newer", message.RoleUser, "câu 2", nil)
	s.Append(ctx, "newer", message.RoleAssistant, "trả lời", nil)

	infos, err := s.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions error: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(infos))
	}
	if infos[0].SessionID != "newer" {
		t.Fatalf("expected most recent session first, got %q", infos[0].SessionID)
	}
	if infos[0].MessageCount != 2 {
		t.Fatalf("expected message count 2, got %d", infos[0].MessageCount)
	}
	if infos[0].Title != "câu 2" {
		t.Fatalf("expected title from first user message, got %q", infos[0].Title)
	}
}

func TestInMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	s.Append(ctx, "s1", message.RoleUser, "câu hỏi", nil)
	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	msgs, err := s.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty history after delete, got %d", len(msgs))
	}
}

func TestInMemoryStoreEmptySession(t *testing.T) {
	s := NewInMemoryStore()
	msgs, err := s.History(context.Background(), "missing")
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected no messages, got %d", len(msgs))
	}
}
