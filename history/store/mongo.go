package store

import (
	"context"
	"fmt"
	"time"

	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/config"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/history"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/message"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements history.Store on MongoDB with separate sessions and
// messages collections.
type MongoStore struct {
	client   *mongo.Client
	sessions *mongo.Collection
	messages *mongo.Collection
}

type mongoMessage struct {
	SessionID string         `bson:"session_id"`
	Role      string         `bson:"role"`
	Content   string         `bson:"content"`
	Metadata  map[string]any `bson:"metadata,omitempty"`
	CreatedAt time.Time      `bson:"created_at"`
}

type mongoSession struct {
	SessionID    string    `bson:"_id"`
	Title        string    `bson:"title"`
	UpdatedAt    time.Time `bson:"updated_at"`
	MessageCount int       `bson:"message_count"`
}

// NewMongoStore connects to MongoDB and prepares the collections.
func NewMongoStore(cfg config.MongoConfig) (*MongoStore, error) {
	if err := config.ValidateMongoDBConfig(cfg.URI, cfg.Database, cfg.MessagesCollection); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)
	store := &MongoStore{
		client:   client,
		sessions: db.Collection(cfg.SessionsCollection),
		messages: db.Collection(cfg.MessagesCollection),
	}

	if err := store.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return store, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	_, err := s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}

// Append records one message and bumps the session summary.
func (s *MongoStore) Append(ctx context.Context, sessionID string, role message.Role, content string, metadata map[string]any) error {
	now := time.Now()
	_, err := s.messages.InsertOne(ctx, mongoMessage{
		SessionID: sessionID,
		Role:      string(role),
		Content:   content,
		Metadata:  metadata,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	update := bson.M{
		"$set": bson.M{"updated_at": now},
		"$inc": bson.M{"message_count": 1},
	}
	if role == message.RoleUser {
		update["$setOnInsert"] = bson.M{"title": history.Title([]*message.Message{{Role: role, Content: content}})}
	}
	_, err = s.sessions.UpdateByID(ctx, sessionID, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// History returns the session transcript in insertion order.
func (s *MongoStore) History(ctx context.Context, sessionID string) ([]*message.Message, error) {
	cursor, err := s.messages.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.M{"created_at": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer cursor.Close(ctx)

	var raw []mongoMessage
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}

	msgs := make([]*message.Message, len(raw))
	for i, m := range raw {
		msgs[i] = &message.Message{
			Role:      message.Role(m.Role),
			Content:   m.Content,
			Metadata:  m.Metadata,
			CreatedAt: m.CreatedAt,
		}
	}
	return msgs, nil
}

// Sessions lists known sessions, most recently updated first.
func (s *MongoStore) Sessions(ctx context.Context) ([]history.SessionInfo, error) {
	cursor, err := s.sessions.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"updated_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var raw []mongoSession
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}

	infos := make([]history.SessionInfo, len(raw))
	for i, sess := range raw {
		title := sess.Title
		if title == "" {
			title = "New Conversation"
		}
		infos[i] = history.SessionInfo{
			SessionID:    sess.SessionID,
			Title:        title,
			UpdatedAt:    sess.UpdatedAt,
			MessageCount: sess.MessageCount,
		}
	}
	return infos, nil
}

// Delete removes a session and its messages.
func (s *MongoStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.messages.DeleteMany(ctx, bson.M{"session_id": sessionID}); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := s.sessions.DeleteOne(ctx, bson.M{"_id": sessionID}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close disconnects the MongoDB client.
func (s *MongoStore) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.client.Disconnect(ctx)
}

// Ping checks if the MongoDB connection is alive.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}
