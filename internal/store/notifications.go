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

type MongoNotificationStore struct {
	collection *mongo.Collection
}

func NewMongoNotificationStore(collection *mongo.Collection) *MongoNotificationStore {
	return &MongoNotificationStore{collection: collection}
}

func (s *MongoNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = n.CreatedAt.Add(models.DefaultNotificationTTL)
	}
	if n.Priority == "" {
		n.Priority = models.PriorityMedium
	}

	result, err := s.collection.InsertOne(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	n.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// activeFilter scopes queries to live notifications. The TTL index purges
// expired documents eventually; the filter hides them until it does.
func activeFilter(userID primitive.ObjectID) bson.M {
	return bson.M{
		"user":       userID,
		"is_deleted": false,
		"expires_at": bson.M{"$gt": time.Now()},
	}
}

func (s *MongoNotificationStore) ListForUser(ctx context.Context, userID primitive.ObjectID, onlyUnread bool, limit, offset int64) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}

	filter := activeFilter(userID)
	if onlyUnread {
		filter["read"] = false
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

func (s *MongoNotificationStore) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	filter := activeFilter(userID)
	filter["read"] = false

	count, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *MongoNotificationStore) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	// read_at is set exactly once; marking twice matches nothing.
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user": userID, "read": false},
		bson.M{"$set": bson.M{
			"read":       true,
			"read_at":    time.Now(),
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *MongoNotificationStore) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	filter := activeFilter(userID)
	filter["read"] = false

	result, err := s.collection.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{
			"read":       true,
			"read_at":    time.Now(),
			"updated_at": time.Now(),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.ModifiedCount, nil
}

func (s *MongoNotificationStore) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user": userID, "is_deleted": false},
		bson.M{"$set": bson.M{"is_deleted": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
