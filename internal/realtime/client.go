package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client is one websocket connection owned by an authenticated user.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	userID    primitive.ObjectID
	userName  string
	userEmail string
	userRole  string
}

func newClient(hub *Hub, conn *websocket.Conn, userID primitive.ObjectID, name, email, role string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		userID:    userID,
		userName:  name,
		userEmail: email,
		userRole:  role,
	}
}

// sendEvent queues a frame for this connection only.
func (c *Client) sendEvent(eventType string, data interface{}) {
	frame, err := encodeEvent(eventType, data)
	if err != nil {
		logrus.WithError(err).Error("failed to encode client frame")
		return
	}
	trySend(c, frame)
}

func (c *Client) sendError(msg string) {
	c.sendEvent(EventMessageError, ErrorPayload{Error: msg})
}

// readPump reads frames until the connection drops and dispatches them to
// the gateway. Unregistration runs exactly once, from here.
func (c *Client) readPump(g *Gateway) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("user", c.userID.Hex()).Warn("websocket read error")
			}
			break
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.sendError("malformed frame")
			continue
		}
		g.dispatch(c, env)
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings. It exits when the channel closes or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
