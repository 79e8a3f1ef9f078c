package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	NotificationTypeWelcome     = "welcome"
	NotificationTypeCollection  = "collection"
	NotificationTypeRoute       = "route"
	NotificationTypePoint       = "point"
	NotificationTypeMessage     = "message"
	NotificationTypeAchievement = "achievement"
	NotificationTypeAlert       = "alert"
	NotificationTypeReminder    = "reminder"
	NotificationTypeSystem      = "system"
)

// Notification priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Presentation colors understood by the frontend
const (
	ColorPrimary = "primary"
	ColorSuccess = "success"
	ColorWarning = "warning"
	ColorDanger  = "danger"
	ColorInfo    = "info"
)

// DefaultNotificationTTL is how long a notification stays queryable before
// the store expires it.
const DefaultNotificationTTL = 30 * 24 * time.Hour

type Notification struct {
	ID      primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	User    primitive.ObjectID     `bson:"user" json:"user" validate:"required"`
	Type    string                 `bson:"type" json:"type" validate:"required,oneof=welcome collection route point message achievement alert reminder system"`
	Title   string                 `bson:"title" json:"title" validate:"required,max=200"`
	Message string                 `bson:"message" json:"message" validate:"required,max=500"`
	Data    map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`

	Link  string `bson:"link,omitempty" json:"link,omitempty"`
	Icon  string `bson:"icon,omitempty" json:"icon,omitempty"`
	Color string `bson:"color,omitempty" json:"color,omitempty"`

	Read   bool       `bson:"read" json:"read"`
	ReadAt *time.Time `bson:"read_at,omitempty" json:"readAt,omitempty"`

	Priority  string    `bson:"priority" json:"priority"`
	ExpiresAt time.Time `bson:"expires_at" json:"expiresAt"`

	IsDeleted bool      `bson:"is_deleted" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// NewNotification fills in the defaults every notification shares.
func NewNotification(userID primitive.ObjectID, notifType, title, message string) Notification {
	now := time.Now()
	return Notification{
		User:      userID,
		Type:      notifType,
		Title:     title,
		Message:   message,
		Icon:      "fas fa-bell",
		Color:     ColorPrimary,
		Priority:  PriorityMedium,
		ExpiresAt: now.Add(DefaultNotificationTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewWelcomeNotification(userID primitive.ObjectID) Notification {
	n := NewNotification(userID, NotificationTypeWelcome,
		"Welcome to EcoRoute!",
		"Your account was created successfully. Explore the platform and start making a difference!")
	n.Icon = "fas fa-hand-peace"
	n.Color = ColorSuccess
	n.Priority = PriorityHigh
	n.Link = "/dashboard"
	n.Data = map[string]interface{}{"userId": userID.Hex()}
	return n
}

func NewCollectionNotification(userID primitive.ObjectID, pointName string, volume float64) Notification {
	n := NewNotification(userID, NotificationTypeCollection,
		"New Collection Registered",
		fmt.Sprintf("Collection of %.0fkg registered at point %q", volume, pointName))
	n.Icon = "fas fa-truck"
	n.Link = "/dashboard/points"
	n.Data = map[string]interface{}{"pointName": pointName, "volume": volume}
	return n
}

func NewRouteNotification(userID primitive.ObjectID, routeName string) Notification {
	n := NewNotification(userID, NotificationTypeRoute,
		"Route Planned",
		fmt.Sprintf("Route %q was created and is ready for execution.", routeName))
	n.Icon = "fas fa-map-marked-alt"
	n.Color = ColorSuccess
	n.Link = "/dashboard/routes"
	n.Data = map[string]interface{}{"routeName": routeName}
	return n
}

func NewMessageNotification(userID primitive.ObjectID, senderName, content string) Notification {
	n := NewNotification(userID, NotificationTypeMessage,
		"New message",
		fmt.Sprintf("%s: %s", senderName, TruncateContent(content, 50)))
	n.Icon = "fas fa-envelope"
	n.Color = ColorInfo
	n.Link = "/dashboard/chat"
	n.Data = map[string]interface{}{"senderName": senderName}
	return n
}

func NewAlertNotification(userID primitive.ObjectID, message string) Notification {
	n := NewNotification(userID, NotificationTypeAlert, "Important Alert", message)
	n.Icon = "fas fa-exclamation-triangle"
	n.Color = ColorDanger
	n.Priority = PriorityUrgent
	n.Link = "/dashboard"
	return n
}
