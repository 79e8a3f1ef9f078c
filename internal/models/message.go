package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message delivery states. Status only moves forward.
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
)

// DefaultRoom is the room a message belongs to when the client names none.
const DefaultRoom = "general"

type ChatMessage struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Content string             `bson:"content" json:"content" validate:"required,max=1000"`
	Room    string             `bson:"room" json:"room"`

	Sender primitive.ObjectID `bson:"sender" json:"sender" validate:"required"`
	// SenderName is a snapshot of the sender's display name at send time.
	SenderName string              `bson:"sender_name" json:"senderName" validate:"required"`
	Recipient  *primitive.ObjectID `bson:"recipient,omitempty" json:"recipient,omitempty"`

	Status    string     `bson:"status" json:"status"`
	ReadAt    *time.Time `bson:"read_at,omitempty" json:"readAt,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
}

// TruncateContent shortens s to max characters, appending "..." when cut.
// Used for notification previews of chat messages.
func TruncateContent(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
