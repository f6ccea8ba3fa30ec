package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/history"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/message"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements history.Store on Redis lists. Suited to ephemeral
// sessions: transcripts expire after the configured TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration // 0 means no expiration
}

// NewRedisStore creates a Redis-backed history store.
func NewRedisStore(cfg *RedisConfig) *RedisStore {
	if cfg == nil {
		cfg = &RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "hauirag:history:",
		}
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "hauirag:history:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisStore{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}
}

func (s *RedisStore) listKey(sessionID string) string {
	return s.prefix + "msgs:" + sessionID
}

func (s *RedisStore) setKey() string {
	return s.prefix + "sessions"
}

// Append records one message at the end of the session transcript.
func (s *RedisStore) Append(ctx context.Context, sessionID string, role message.Role, content string, metadata map[string]any) error {
	msg := message.NewMessage(role, content)
	for k, v := range metadata {
		msg.Metadata[k] = v
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := s.listKey(sessionID)
	if err := s.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	if s.ttl > 0 {
		s.client.Expire(ctx, key, s.ttl)
	}
	if err := s.client.SAdd(ctx, s.setKey(), sessionID).Err(); err != nil {
		return fmt.Errorf("failed to register session: %w", err)
	}
	return nil
}

// History returns the session transcript in insertion order.
func (s *RedisStore) History(ctx context.Context, sessionID string) ([]*message.Message, error) {
	raw, err := s.client.LRange(ctx, s.listKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	msgs := make([]*message.Message, 0, len(raw))
	for _, item := range raw {
		var msg message.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		msgs = append(msgs, &msg)
	}
	return msgs, nil
}

// Sessions lists known sessions, most recently updated first.
func (s *RedisStore) Sessions(ctx context.Context) ([]history.SessionInfo, error) {
	ids, err := s.client.SMembers(ctx, s.setKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	infos := make([]history.SessionInfo, 0, len(ids))
	for _, id := range ids {
		msgs, err := s.History(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(msgs) == 0 {
			// Transcript expired; drop the stale registration.
			s.client.SRem(ctx, s.setKey(), id)
			continue
		}
		infos = append(infos, history.SessionInfo{
			SessionID:    id,
			Title:        history.Title(msgs),
			UpdatedAt:    msgs[len(msgs)-1].CreatedAt,
			MessageCount: len(msgs),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

// Delete removes a session and its messages.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.listKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	if err := s.client.SRem(ctx, s.setKey(), sessionID).Err(); err != nil {
		return fmt.Errorf("failed to deregister session: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close(ctx context.Context) error {
	return s.client.Close()
}

// Ping checks if the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
