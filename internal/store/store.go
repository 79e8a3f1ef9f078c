package store

import (
	"context"
	"errors"
	"time"

	"ecoroute/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("not found")

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	SetEmailVerified(ctx context.Context, id primitive.ObjectID) error
	SetLastLogin(ctx context.Context, id primitive.ObjectID) error
}

type MessageStore interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	// RoomHistory returns the room's messages newest-first, at most limit.
	// A non-zero before bounds the page for older history.
	RoomHistory(ctx context.Context, room string, limit int64, before time.Time) ([]models.ChatMessage, error)
	// MarkRead is idempotent: read_at is set once, on the first call.
	MarkRead(ctx context.Context, id primitive.ObjectID) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	// ListForUser returns active (non-expired, non-deleted) notifications
	// newest-first, optionally only unread ones.
	ListForUser(ctx context.Context, userID primitive.ObjectID, onlyUnread bool, limit, offset int64) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error)
	// MarkRead is a no-op when the notification is already read.
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	// Delete is a soft delete.
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}
