// Package rtclient is a Go client for the realtime gateway. It keeps
// local caches of presence, room messages and notifications that mirror
// the server's pushes, and reconnects automatically when the link drops.
package rtclient

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"ecoroute/internal/models"
	"ecoroute/internal/realtime"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type Status string

const (
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
	StatusClosed       Status = "closed"
)

const (
	reconnectAttempts = 5
	reconnectDelay    = time.Second
)

var ErrClosed = errors.New("client closed")

type Client struct {
	url   string
	token string

	mu     sync.RWMutex
	conn   *websocket.Conn
	status Status

	// writeMu serializes writes to the connection.
	writeMu sync.Mutex

	onlineUsers   []realtime.OnlineUser
	messages      map[string][]models.ChatMessage
	notifications []models.Notification
	joinedRooms   map[string]bool

	done chan struct{}
}

// Dial connects and authenticates with the given token. The read loop
// starts immediately; caches fill as the server pushes.
func Dial(url, token string) (*Client, error) {
	c := &Client{
		url:         url,
		token:       token,
		status:      StatusReconnecting,
		messages:    make(map[string][]models.ChatMessage),
		joinedRooms: make(map[string]bool),
		done:        make(chan struct{}),
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) connect() error {
	header := http.Header{"Authorization": []string{"Bearer " + c.token}}
	conn, _, err := websocket.DefaultDialer.Dial(c.url, header)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.status = StatusConnected
	c.mu.Unlock()
	return nil
}

func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Close ends the session. A closed client never reconnects.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.status == StatusClosed {
		c.mu.Unlock()
		return nil
	}
	c.status = StatusClosed
	conn := c.conn
	c.mu.Unlock()

	close(c.done)
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// readLoop consumes frames until Close. A dropped link is retried
// reconnectAttempts times with a fixed delay; rooms are re-joined after a
// successful reconnect.
func (c *Client) readLoop() {
	for {
		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if c.closed() {
				return
			}
			if !c.reconnect() {
				return
			}
			continue
		}

		var env realtime.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logrus.WithError(err).Warn("malformed server frame")
			continue
		}
		c.handle(env)
	}
}

func (c *Client) reconnect() bool {
	c.mu.Lock()
	c.status = StatusReconnecting
	c.mu.Unlock()

	for attempt := 1; attempt <= reconnectAttempts; attempt++ {
		select {
		case <-c.done:
			return false
		case <-time.After(reconnectDelay):
		}

		if err := c.connect(); err != nil {
			logrus.WithError(err).WithField("attempt", attempt).Warn("reconnect failed")
			continue
		}
		c.rejoinRooms()
		return true
	}

	c.mu.Lock()
	c.status = StatusClosed
	c.mu.Unlock()
	return false
}

func (c *Client) rejoinRooms() {
	c.mu.RLock()
	rooms := make([]string, 0, len(c.joinedRooms))
	for room := range c.joinedRooms {
		rooms = append(rooms, room)
	}
	c.mu.RUnlock()

	for _, room := range rooms {
		c.send(realtime.EventJoinRoom, realtime.JoinRoomRequest{Room: room})
	}
}

func (c *Client) handle(env realtime.Envelope) {
	switch env.Type {
	case realtime.EventOnlineUsers:
		var users []realtime.OnlineUser
		if json.Unmarshal(env.Data, &users) == nil {
			c.mu.Lock()
			// The snapshot always replaces the previous one.
			c.onlineUsers = users
			c.mu.Unlock()
		}

	case realtime.EventMessageHistory:
		var payload realtime.MessageHistoryPayload
		if json.Unmarshal(env.Data, &payload) == nil {
			c.mu.Lock()
			c.messages[payload.Room] = payload.Messages
			c.mu.Unlock()
		}

	case realtime.EventNewMessage, realtime.EventMessageSent:
		c.cacheMessage(env)

	case realtime.EventNotification:
		var n models.Notification
		if json.Unmarshal(env.Data, &n) == nil {
			c.cacheNotification(n)
		}
	}
}

func (c *Client) cacheMessage(env realtime.Envelope) {
	var msg models.ChatMessage
	if env.Type == realtime.EventMessageSent {
		var ack realtime.MessageAck
		if json.Unmarshal(env.Data, &ack) != nil || ack.Message == nil {
			return
		}
		msg = *ack.Message
	} else if json.Unmarshal(env.Data, &msg) != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	room := msg.Room
	for _, existing := range c.messages[room] {
		if !msg.ID.IsZero() && existing.ID == msg.ID {
			return
		}
	}
	c.messages[room] = append(c.messages[room], msg)
}

func (c *Client) cacheNotification(n models.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.notifications {
		if !n.ID.IsZero() && existing.ID == n.ID {
			return
		}
	}
	// Newest first.
	c.notifications = append([]models.Notification{n}, c.notifications...)
}

func (c *Client) send(eventType string, data interface{}) error {
	if c.closed() {
		return ErrClosed
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(realtime.Envelope{Type: eventType, Data: raw})
	if err != nil {
		return err
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) JoinRoom(room string) error {
	if room == "" {
		room = models.DefaultRoom
	}
	c.mu.Lock()
	c.joinedRooms[room] = true
	c.mu.Unlock()
	return c.send(realtime.EventJoinRoom, realtime.JoinRoomRequest{Room: room})
}

func (c *Client) LeaveRoom(room string) error {
	c.mu.Lock()
	delete(c.joinedRooms, room)
	c.mu.Unlock()
	return c.send(realtime.EventLeaveRoom, realtime.LeaveRoomRequest{Room: room})
}

// SendMessage posts to a room. A non-empty recipient hex id makes it a
// private message instead.
func (c *Client) SendMessage(room, message, recipient string) error {
	return c.send(realtime.EventSendMessage, realtime.SendMessageRequest{
		Room:      room,
		Message:   message,
		Recipient: recipient,
	})
}

func (c *Client) MarkMessageRead(messageID string) error {
	return c.send(realtime.EventMarkRead, realtime.MarkReadRequest{MessageID: messageID})
}

func (c *Client) Typing(room string, isTyping bool) error {
	return c.send(realtime.EventTyping, realtime.TypingRequest{Room: room, IsTyping: isTyping})
}

// BroadcastNotification asks the server to announce to everyone online.
// The server ignores the request unless this session is an admin.
func (c *Client) BroadcastNotification(title, message, notifType string) error {
	return c.send(realtime.EventBroadcastNotification, realtime.BroadcastRequest{
		Title:   title,
		Message: message,
		Type:    notifType,
	})
}

// OnlineUsers returns the latest presence snapshot.
func (c *Client) OnlineUsers() []realtime.OnlineUser {
	c.mu.RLock()
	defer c.mu.RUnlock()
	users := make([]realtime.OnlineUser, len(c.onlineUsers))
	copy(users, c.onlineUsers)
	return users
}

// Messages returns the cached messages for a room.
func (c *Client) Messages(room string) []models.ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	msgs := make([]models.ChatMessage, len(c.messages[room]))
	copy(msgs, c.messages[room])
	return msgs
}

// Notifications returns the cached notifications, newest first.
func (c *Client) Notifications() []models.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ns := make([]models.Notification, len(c.notifications))
	copy(ns, c.notifications)
	return ns
}

// MarkNotificationRead flips the local copy. The durable flag is set
// through the REST API.
func (c *Client) MarkNotificationRead(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.notifications {
		if c.notifications[i].ID.Hex() == id {
			c.notifications[i].Read = true
			return
		}
	}
}

func (c *Client) ClearNotifications() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = nil
}
