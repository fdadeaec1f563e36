package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yusufkecer/healthhub/internal/chat"
	"github.com/yusufkecer/healthhub/internal/domain"
)

// ConnectMongo opens a client and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// MongoConversationStore keeps chat transcripts in the "conversations"
// collection, one document per conversation.
type MongoConversationStore struct {
	col *mongo.Collection
}

func NewMongoConversationStore(db *mongo.Database) *MongoConversationStore {
	return &MongoConversationStore{col: db.Collection("conversations")}
}

func (s *MongoConversationStore) Create(ctx context.Context, conv *domain.Conversation) error {
	if _, err := s.col.InsertOne(ctx, conv); err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}

func (s *MongoConversationStore) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	return &conv, nil
}

func (s *MongoConversationStore) Append(ctx context.Context, id string, msgs ...domain.ChatMessage) error {
	update := bson.M{
		"$push": bson.M{"messages": bson.M{"$each": msgs}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("mongo update: %w", err)
	}
	if res.MatchedCount == 0 {
		return chat.ErrConversationNotFound
	}
	return nil
}
