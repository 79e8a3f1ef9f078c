package realtime

import (
	"sync"

	"ecoroute/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hub tracks every live connection and the presence derived from it.
// Presence is per user: when the same account connects twice, the newest
// connection owns the presence entry and direct deliveries go to it.
type Hub struct {
	// All registered connections.
	clients map[*Client]bool

	// Presence by user id, last connection wins.
	presence map[primitive.ObjectID]*Client

	// Room membership is explicit, a client is only in rooms it joined.
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	shutdown   chan struct{}

	mutex sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		presence:   make(map[primitive.ObjectID]*Client),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
	}
}

// Run owns the registration lifecycle. Every register and unregister is
// followed by a fresh online-users snapshot to all clients.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
			h.BroadcastOnlineUsers()
			logrus.WithFields(logrus.Fields{
				"user":   client.userID.Hex(),
				"online": h.OnlineCount(),
			}).Info("realtime client connected")

		case client := <-h.unregister:
			h.removeClient(client)
			h.BroadcastOnlineUsers()
			logrus.WithFields(logrus.Fields{
				"user":   client.userID.Hex(),
				"online": h.OnlineCount(),
			}).Info("realtime client disconnected")

		case <-h.shutdown:
			h.closeAll()
			return
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	h.presence[client.userID] = client
	h.joinRoomLocked(client, models.DefaultRoom)
}

func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	// Only the presence owner clears the entry, an older evicted
	// connection must not knock the newer one offline.
	if h.presence[client.userID] == client {
		delete(h.presence, client.userID)
	}

	for room := range h.rooms {
		h.leaveRoomLocked(client, room)
	}
}

// Shutdown broadcasts a final notice and closes every connection.
func (h *Hub) Shutdown() {
	frame, err := encodeEvent(EventNotification, TransientNotification{
		Type:    models.NotificationTypeSystem,
		Title:   "Server shutting down",
		Message: "The server is restarting, you will be reconnected shortly",
	})
	if err == nil {
		h.broadcastAll(frame)
	}
	close(h.shutdown)
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.presence = make(map[primitive.ObjectID]*Client)
	h.rooms = make(map[string]map[*Client]bool)
}

func (h *Hub) JoinRoom(client *Client, room string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.joinRoomLocked(client, room)
}

func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.leaveRoomLocked(client, room)
}

func (h *Hub) joinRoomLocked(client *Client, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
}

func (h *Hub) leaveRoomLocked(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// trySend drops the frame when the client's buffer is full. A slow reader
// loses frames instead of blocking the hub; its pumps tear it down.
func trySend(client *Client, frame []byte) {
	select {
	case client.send <- frame:
	default:
	}
}

// BroadcastToRoom delivers a frame to every member of the room, the
// sender included.
func (h *Hub) BroadcastToRoom(room string, eventType string, data interface{}) {
	frame, err := encodeEvent(eventType, data)
	if err != nil {
		logrus.WithError(err).Error("failed to encode room broadcast")
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for client := range h.rooms[room] {
		trySend(client, frame)
	}
}

// BroadcastToRoomExcept delivers to the room skipping one user, used for
// typing relays.
func (h *Hub) BroadcastToRoomExcept(room string, except primitive.ObjectID, eventType string, data interface{}) {
	frame, err := encodeEvent(eventType, data)
	if err != nil {
		logrus.WithError(err).Error("failed to encode room broadcast")
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for client := range h.rooms[room] {
		if client.userID == except {
			continue
		}
		trySend(client, frame)
	}
}

// SendToUser delivers a frame to the user's current connection. Returns
// false when the user is offline.
func (h *Hub) SendToUser(userID primitive.ObjectID, eventType string, data interface{}) bool {
	frame, err := encodeEvent(eventType, data)
	if err != nil {
		logrus.WithError(err).Error("failed to encode direct frame")
		return false
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	client, ok := h.presence[userID]
	if !ok {
		return false
	}
	trySend(client, frame)
	return true
}

// Broadcast delivers a frame to every connected client.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	frame, err := encodeEvent(eventType, data)
	if err != nil {
		logrus.WithError(err).Error("failed to encode broadcast")
		return
	}
	h.broadcastAll(frame)
}

func (h *Hub) broadcastAll(frame []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for client := range h.clients {
		trySend(client, frame)
	}
}

// BroadcastOnlineUsers pushes the full presence snapshot to everyone.
// The snapshot always replaces the previous one on the client side.
func (h *Hub) BroadcastOnlineUsers() {
	h.Broadcast(EventOnlineUsers, h.OnlineUsers())
}

// OnlineUsers returns the presence snapshot, one entry per online user.
func (h *Hub) OnlineUsers() []OnlineUser {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	users := make([]OnlineUser, 0, len(h.presence))
	for id, client := range h.presence {
		users = append(users, OnlineUser{
			UserID: id.Hex(),
			Name:   client.userName,
			Email:  client.userEmail,
			Role:   client.userRole,
		})
	}
	return users
}

// OnlineUserIDs lists the ids of every user with a presence entry.
func (h *Hub) OnlineUserIDs() []primitive.ObjectID {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	ids := make([]primitive.ObjectID, 0, len(h.presence))
	for id := range h.presence {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) IsOnline(userID primitive.ObjectID) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	_, ok := h.presence[userID]
	return ok
}

// OnlineCount counts distinct online users, not connections.
func (h *Hub) OnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.presence)
}

func (h *Hub) ConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// PushNotification sends a durable notification to its owner's live
// connection, if any. Callers persist the notification separately.
func (h *Hub) PushNotification(n *models.Notification) bool {
	return h.SendToUser(n.User, EventNotification, n)
}

// RoomMemberCount reports how many connections joined the room.
func (h *Hub) RoomMemberCount(room string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms[room])
}
