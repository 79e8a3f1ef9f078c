package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"ecoroute/internal/models"
	"ecoroute/internal/store"
	"ecoroute/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// historyLimit caps the history page sent on join-room.
	historyLimit = 50

	dbTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are enforced by the CORS layer in front.
		return true
	},
}

// NotificationEnqueuer queues durable notification writes. Satisfied by
// the queue client.
type NotificationEnqueuer interface {
	EnqueueNotification(ctx context.Context, n models.Notification) error
}

// Gateway authenticates websocket connections and translates their events
// into hub, store and queue operations.
type Gateway struct {
	hub        *Hub
	jwtManager *auth.JWTManager
	users      store.UserStore
	messages   store.MessageStore
	notifier   NotificationEnqueuer
}

func NewGateway(hub *Hub, jwtManager *auth.JWTManager, users store.UserStore, messages store.MessageStore, notifier NotificationEnqueuer) *Gateway {
	return &Gateway{
		hub:        hub,
		jwtManager: jwtManager,
		users:      users,
		messages:   messages,
		notifier:   notifier,
	}
}

// HandleWebSocket admits an authenticated connection. Rejections happen
// before the upgrade so the client gets a plain HTTP status.
func (g *Gateway) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}

	claims, err := g.jwtManager.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
	defer cancel()

	user, err := g.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if err == store.ErrNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := newClient(g.hub, conn, user.ID, user.Name, user.Email, user.Role)
	g.hub.register <- client

	go client.writePump()
	go client.readPump(g)
}

// dispatch routes one inbound frame. Unknown event types are ignored.
func (g *Gateway) dispatch(c *Client, env Envelope) {
	switch env.Type {
	case EventJoinRoom:
		g.handleJoinRoom(c, env)
	case EventLeaveRoom:
		g.handleLeaveRoom(c, env)
	case EventSendMessage:
		g.handleSendMessage(c, env)
	case EventMarkRead:
		g.handleMarkRead(c, env)
	case EventTyping:
		g.handleTyping(c, env)
	case EventBroadcastNotification:
		g.handleBroadcast(c, env)
	}
}

func (g *Gateway) handleJoinRoom(c *Client, env Envelope) {
	var req JoinRoomRequest
	if err := unmarshalData(env, &req); err != nil {
		c.sendError("malformed join-room payload")
		return
	}
	room := req.Room
	if room == "" {
		room = models.DefaultRoom
	}

	g.hub.JoinRoom(c, room)

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	history, err := g.messages.RoomHistory(ctx, room, historyLimit, req.Before)
	if err != nil {
		logrus.WithError(err).WithField("room", room).Error("failed to load room history")
		c.sendError("failed to load message history")
		return
	}
	if history == nil {
		history = []models.ChatMessage{}
	}
	c.sendEvent(EventMessageHistory, MessageHistoryPayload{Room: room, Messages: history})
}

func (g *Gateway) handleLeaveRoom(c *Client, env Envelope) {
	var req LeaveRoomRequest
	if err := unmarshalData(env, &req); err != nil || req.Room == "" {
		return
	}
	g.hub.LeaveRoom(c, req.Room)
}

func (g *Gateway) handleSendMessage(c *Client, env Envelope) {
	var req SendMessageRequest
	if err := unmarshalData(env, &req); err != nil {
		c.sendError("malformed send-message payload")
		return
	}

	content := strings.TrimSpace(req.Message)
	if content == "" {
		c.sendError("message cannot be empty")
		return
	}

	room := req.Room
	if room == "" {
		room = models.DefaultRoom
	}

	msg := models.ChatMessage{
		Content:    content,
		Room:       room,
		Sender:     c.userID,
		SenderName: c.userName,
		Status:     models.MessageStatusSent,
		CreatedAt:  time.Now(),
	}

	if req.Recipient != "" {
		recipient, err := primitive.ObjectIDFromHex(req.Recipient)
		if err != nil {
			c.sendError("invalid recipient")
			return
		}
		msg.Recipient = &recipient
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if err := g.messages.Create(ctx, &msg); err != nil {
		logrus.WithError(err).Error("failed to save message")
		c.sendError("failed to send message")
		return
	}

	if msg.Recipient != nil {
		g.deliverPrivate(ctx, c, &msg)
	} else {
		g.hub.BroadcastToRoom(room, EventNewMessage, msg)
	}

	c.sendEvent(EventMessageSent, MessageAck{Success: true, Message: &msg})
}

// deliverPrivate sends a direct message to its recipient's live connection
// and always queues a durable notification, online or not.
func (g *Gateway) deliverPrivate(ctx context.Context, c *Client, msg *models.ChatMessage) {
	if g.hub.SendToUser(*msg.Recipient, EventNewMessage, msg) {
		msg.Status = models.MessageStatusDelivered
	}

	n := models.NewMessageNotification(*msg.Recipient, c.userName, msg.Content)
	if err := g.notifier.EnqueueNotification(ctx, n); err != nil {
		logrus.WithError(err).Error("failed to queue message notification")
	}
}

func (g *Gateway) handleMarkRead(c *Client, env Envelope) {
	var req MarkReadRequest
	if err := unmarshalData(env, &req); err != nil {
		return
	}
	id, err := primitive.ObjectIDFromHex(req.MessageID)
	if err != nil {
		c.sendError("invalid message id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if err := g.messages.MarkRead(ctx, id); err != nil {
		logrus.WithError(err).WithField("message", req.MessageID).Error("failed to mark message read")
	}
}

func (g *Gateway) handleTyping(c *Client, env Envelope) {
	var req TypingRequest
	if err := unmarshalData(env, &req); err != nil {
		return
	}
	room := req.Room
	if room == "" {
		room = models.DefaultRoom
	}

	g.hub.BroadcastToRoomExcept(room, c.userID, EventUserTyping, TypingPayload{
		UserID:   c.userID.Hex(),
		Name:     c.userName,
		IsTyping: req.IsTyping,
	})
}

// handleBroadcast pushes a platform announcement. Non-admin requests are
// dropped without a reply.
func (g *Gateway) handleBroadcast(c *Client, env Envelope) {
	if c.userRole != models.RoleAdmin {
		logrus.WithField("user", c.userID.Hex()).Warn("broadcast attempt by non-admin")
		return
	}

	var req BroadcastRequest
	if err := unmarshalData(env, &req); err != nil {
		c.sendError("malformed broadcast payload")
		return
	}
	if req.Title == "" || req.Message == "" {
		c.sendError("broadcast needs a title and a message")
		return
	}
	notifType := req.Type
	if notifType == "" {
		notifType = models.NotificationTypeSystem
	}

	g.hub.Broadcast(EventNotification, TransientNotification{
		Type:      notifType,
		Title:     req.Title,
		Message:   req.Message,
		Timestamp: time.Now(),
	})

	// Durable copies go to the users who saw the live broadcast.
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	for _, userID := range g.hub.OnlineUserIDs() {
		n := models.NewNotification(userID, notifType, req.Title, req.Message)
		if err := g.notifier.EnqueueNotification(ctx, n); err != nil {
			logrus.WithError(err).WithField("user", userID.Hex()).Error("failed to queue broadcast notification")
		}
	}
}

func unmarshalData(env Envelope, v interface{}) error {
	if len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, v)
}
