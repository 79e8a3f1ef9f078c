package store

import (
	"context"
	"fmt"
	"time"

	"ecoroute/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoMessageStore struct {
	collection *mongo.Collection
}

func NewMongoMessageStore(collection *mongo.Collection) *MongoMessageStore {
	return &MongoMessageStore{collection: collection}
}

func (s *MongoMessageStore) Create(ctx context.Context, msg *models.ChatMessage) error {
	if msg.Room == "" {
		msg.Room = models.DefaultRoom
	}
	if msg.Status == "" {
		msg.Status = models.MessageStatusSent
	}
	msg.CreatedAt = time.Now()

	result, err := s.collection.InsertOne(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoMessageStore) RoomHistory(ctx context.Context, room string, limit int64, before time.Time) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	filter := bson.M{"room": room}
	if !before.IsZero() {
		filter["created_at"] = bson.M{"$lt": before}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load room history: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []models.ChatMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode room history: %w", err)
	}
	return messages, nil
}

func (s *MongoMessageStore) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	// The status filter keeps the transition forward-only and read_at
	// immutable on repeated calls.
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.MessageStatusRead}},
		bson.M{"$set": bson.M{
			"status":  models.MessageStatusRead,
			"read_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}
