package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewNotificationDefaults(t *testing.T) {
	userID := primitive.NewObjectID()
	n := NewNotification(userID, NotificationTypeSystem, "Title", "Message")

	assert.Equal(t, userID, n.User)
	assert.Equal(t, NotificationTypeSystem, n.Type)
	assert.Equal(t, ColorPrimary, n.Color)
	assert.Equal(t, PriorityMedium, n.Priority)
	assert.False(t, n.Read)
	assert.Nil(t, n.ReadAt)
	assert.False(t, n.IsDeleted)
}

func TestNewNotificationExpiresInThirtyDays(t *testing.T) {
	n := NewNotification(primitive.NewObjectID(), NotificationTypeAlert, "Title", "Message")

	expected := time.Now().Add(DefaultNotificationTTL)
	assert.WithinDuration(t, expected, n.ExpiresAt, 5*time.Second)
}

func TestNewMessageNotificationTruncatesPreview(t *testing.T) {
	content := strings.Repeat("x", 80)
	n := NewMessageNotification(primitive.NewObjectID(), "Alice", content)

	assert.Equal(t, NotificationTypeMessage, n.Type)
	assert.Equal(t, "Alice: "+strings.Repeat("x", 50)+"...", n.Message)
	assert.Equal(t, "Alice", n.Data["senderName"])
}

func TestNewMessageNotificationShortContentKeptWhole(t *testing.T) {
	n := NewMessageNotification(primitive.NewObjectID(), "Bob", "hi there")
	assert.Equal(t, "Bob: hi there", n.Message)
}

func TestNewWelcomeNotification(t *testing.T) {
	userID := primitive.NewObjectID()
	n := NewWelcomeNotification(userID)

	assert.Equal(t, NotificationTypeWelcome, n.Type)
	assert.Equal(t, PriorityHigh, n.Priority)
	assert.Equal(t, "/dashboard", n.Link)
	assert.Equal(t, userID.Hex(), n.Data["userId"])
}

func TestNewCollectionNotificationMentionsPointAndVolume(t *testing.T) {
	n := NewCollectionNotification(primitive.NewObjectID(), "Central Depot", 125)

	assert.Equal(t, NotificationTypeCollection, n.Type)
	assert.Contains(t, n.Message, "125kg")
	assert.Contains(t, n.Message, "Central Depot")
}
