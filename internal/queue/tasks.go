package queue

import (
	"encoding/json"
	"fmt"

	"ecoroute/internal/models"

	"github.com/hibiken/asynq"
)

// Task type names. The prefix selects the worker family.
const (
	TypeEmailWelcome      = "email:welcome"
	TypeEmailVerification = "email:verification"
	TypeEmailCollection   = "email:collection"
	TypeEmailRoute        = "email:route"

	TypeNotificationCreate = "notification:create"
)

// Queue names
const (
	QueueEmail        = "email"
	QueueNotification = "notification"
	QueueDefault      = "default"
)

type EmailWelcomePayload struct {
	To   string `json:"to"`
	Name string `json:"name"`
}

type EmailVerificationPayload struct {
	To   string `json:"to"`
	Name string `json:"name"`
	// Code is a 6-digit verification code; the verify endpoint enforces
	// its 10-minute validity, not the worker.
	Code string `json:"code"`
}

type EmailCollectionPayload struct {
	To        string  `json:"to"`
	Name      string  `json:"name"`
	PointName string  `json:"pointName"`
	Volume    float64 `json:"volume"`
}

type EmailRoutePayload struct {
	To        string `json:"to"`
	Name      string `json:"name"`
	RouteName string `json:"routeName"`
}

type NotificationCreatePayload struct {
	UserID   string                 `json:"userId"`
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Data     map[string]interface{} `json:"data,omitempty"`
	Link     string                 `json:"link,omitempty"`
	Icon     string                 `json:"icon,omitempty"`
	Color    string                 `json:"color,omitempty"`
	Priority string                 `json:"priority,omitempty"`
}

// NotificationPayloadFrom flattens a notification into a queue payload so
// every creation path goes through the same worker.
func NotificationPayloadFrom(n models.Notification) NotificationCreatePayload {
	return NotificationCreatePayload{
		UserID:   n.User.Hex(),
		Type:     n.Type,
		Title:    n.Title,
		Message:  n.Message,
		Data:     n.Data,
		Link:     n.Link,
		Icon:     n.Icon,
		Color:    n.Color,
		Priority: n.Priority,
	}
}

func newTask(typename string, payload interface{}) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", typename, err)
	}
	return asynq.NewTask(typename, data), nil
}
