package realtime

import (
	"encoding/json"
	"time"

	"ecoroute/internal/models"
)

// Client -> server events
const (
	EventJoinRoom              = "join-room"
	EventLeaveRoom             = "leave-room"
	EventSendMessage           = "send-message"
	EventMarkRead              = "mark-read"
	EventTyping                = "typing"
	EventBroadcastNotification = "broadcast-notification"
)

// Server -> client events
const (
	EventOnlineUsers    = "online-users"
	EventMessageHistory = "message-history"
	EventNewMessage     = "new-message"
	EventMessageSent    = "message-sent"
	EventMessageError   = "message-error"
	EventNotification   = "notification"
	EventUserTyping     = "user-typing"
)

// Envelope is the wire format of every frame on the realtime channel.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func encodeEvent(eventType string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Data: raw})
}

// OnlineUser is one entry of the presence snapshot.
type OnlineUser struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type JoinRoomRequest struct {
	Room string `json:"room"`
	// Before optionally bounds the history page for pagination.
	Before time.Time `json:"before,omitempty"`
}

type LeaveRoomRequest struct {
	Room string `json:"room"`
}

type SendMessageRequest struct {
	Room      string `json:"room"`
	Message   string `json:"message"`
	Recipient string `json:"recipient,omitempty"`
}

type MarkReadRequest struct {
	MessageID string `json:"messageId"`
}

type TypingRequest struct {
	Room     string `json:"room"`
	IsTyping bool   `json:"isTyping"`
}

type BroadcastRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

type MessageHistoryPayload struct {
	Room     string               `json:"room"`
	Messages []models.ChatMessage `json:"messages"`
}

type MessageAck struct {
	Success bool                `json:"success"`
	Message *models.ChatMessage `json:"message"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type TypingPayload struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	IsTyping bool   `json:"isTyping"`
}

// TransientNotification is the live broadcast payload. The durable copy is
// written by the notification worker.
type TransientNotification struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
