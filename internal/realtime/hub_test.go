package realtime

import (
	"encoding/json"
	"testing"

	"ecoroute/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testClient(h *Hub, name string) *Client {
	return newClient(h, nil, primitive.NewObjectID(), name, name+"@example.com", models.RoleCooperative)
}

// drainFrames empties the client's send buffer and decodes every frame.
func drainFrames(t *testing.T, c *Client) []Envelope {
	t.Helper()
	var frames []Envelope
	for {
		select {
		case raw := <-c.send:
			var env Envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			frames = append(frames, env)
		default:
			return frames
		}
	}
}

func framesOfType(frames []Envelope, eventType string) []Envelope {
	var out []Envelope
	for _, f := range frames {
		if f.Type == eventType {
			out = append(out, f)
		}
	}
	return out
}

func TestAddClientTracksPresence(t *testing.T) {
	h := NewHub()
	c := testClient(h, "alice")

	h.addClient(c)

	assert.True(t, h.IsOnline(c.userID))
	assert.Equal(t, 1, h.OnlineCount())
	assert.Equal(t, 1, h.ConnectionCount())
	assert.Equal(t, 1, h.RoomMemberCount(models.DefaultRoom))
}

func TestRemoveClientClearsPresence(t *testing.T) {
	h := NewHub()
	c := testClient(h, "alice")
	h.addClient(c)

	h.removeClient(c)

	assert.False(t, h.IsOnline(c.userID))
	assert.Equal(t, 0, h.OnlineCount())
	assert.Equal(t, 0, h.RoomMemberCount(models.DefaultRoom))
}

func TestLastConnectionWins(t *testing.T) {
	h := NewHub()
	userID := primitive.NewObjectID()
	first := newClient(h, nil, userID, "alice", "alice@example.com", models.RoleCooperative)
	second := newClient(h, nil, userID, "alice", "alice@example.com", models.RoleCooperative)

	h.addClient(first)
	h.addClient(second)

	// One presence entry for two connections.
	assert.Equal(t, 1, h.OnlineCount())
	assert.Equal(t, 2, h.ConnectionCount())

	// Direct delivery reaches the newest connection only.
	require.True(t, h.SendToUser(userID, EventNotification, "ping"))
	assert.Empty(t, drainFrames(t, first))
	assert.Len(t, drainFrames(t, second), 1)
}

func TestEvictedConnectionDoesNotKnockUserOffline(t *testing.T) {
	h := NewHub()
	userID := primitive.NewObjectID()
	first := newClient(h, nil, userID, "alice", "alice@example.com", models.RoleCooperative)
	second := newClient(h, nil, userID, "alice", "alice@example.com", models.RoleCooperative)

	h.addClient(first)
	h.addClient(second)
	h.removeClient(first)

	assert.True(t, h.IsOnline(userID))

	h.removeClient(second)
	assert.False(t, h.IsOnline(userID))
}

func TestOnlineUsersSnapshot(t *testing.T) {
	h := NewHub()
	alice := testClient(h, "alice")
	bob := testClient(h, "bob")
	h.addClient(alice)
	h.addClient(bob)

	users := h.OnlineUsers()
	require.Len(t, users, 2)

	names := map[string]OnlineUser{}
	for _, u := range users {
		names[u.Name] = u
	}
	assert.Equal(t, alice.userID.Hex(), names["alice"].UserID)
	assert.Equal(t, "alice@example.com", names["alice"].Email)
	assert.Equal(t, models.RoleCooperative, names["bob"].Role)
}

func TestBroadcastToRoomIncludesSender(t *testing.T) {
	h := NewHub()
	alice := testClient(h, "alice")
	bob := testClient(h, "bob")
	h.addClient(alice)
	h.addClient(bob)

	h.BroadcastToRoom(models.DefaultRoom, EventNewMessage, map[string]string{"content": "hi"})

	assert.Len(t, framesOfType(drainFrames(t, alice), EventNewMessage), 1)
	assert.Len(t, framesOfType(drainFrames(t, bob), EventNewMessage), 1)
}

func TestBroadcastToRoomExceptSkipsUser(t *testing.T) {
	h := NewHub()
	alice := testClient(h, "alice")
	bob := testClient(h, "bob")
	h.addClient(alice)
	h.addClient(bob)

	h.BroadcastToRoomExcept(models.DefaultRoom, alice.userID, EventUserTyping, TypingPayload{
		UserID:   alice.userID.Hex(),
		Name:     "alice",
		IsTyping: true,
	})

	assert.Empty(t, framesOfType(drainFrames(t, alice), EventUserTyping))
	assert.Len(t, framesOfType(drainFrames(t, bob), EventUserTyping), 1)
}

func TestRoomMembershipIsExplicit(t *testing.T) {
	h := NewHub()
	alice := testClient(h, "alice")
	bob := testClient(h, "bob")
	h.addClient(alice)
	h.addClient(bob)

	h.JoinRoom(alice, "recycling")
	h.BroadcastToRoom("recycling", EventNewMessage, map[string]string{"content": "hi"})

	assert.Len(t, framesOfType(drainFrames(t, alice), EventNewMessage), 1)
	assert.Empty(t, framesOfType(drainFrames(t, bob), EventNewMessage))
}

func TestLeaveRoomStopsDelivery(t *testing.T) {
	h := NewHub()
	alice := testClient(h, "alice")
	h.addClient(alice)

	h.LeaveRoom(alice, models.DefaultRoom)
	h.BroadcastToRoom(models.DefaultRoom, EventNewMessage, map[string]string{"content": "hi"})

	assert.Empty(t, framesOfType(drainFrames(t, alice), EventNewMessage))
}

func TestSendToUserOffline(t *testing.T) {
	h := NewHub()
	assert.False(t, h.SendToUser(primitive.NewObjectID(), EventNotification, "x"))
}

func TestPushNotificationTargetsOwner(t *testing.T) {
	h := NewHub()
	alice := testClient(h, "alice")
	bob := testClient(h, "bob")
	h.addClient(alice)
	h.addClient(bob)

	n := models.NewWelcomeNotification(alice.userID)
	assert.True(t, h.PushNotification(&n))

	assert.Len(t, framesOfType(drainFrames(t, alice), EventNotification), 1)
	assert.Empty(t, framesOfType(drainFrames(t, bob), EventNotification))
}

func TestBroadcastReachesAllClients(t *testing.T) {
	h := NewHub()
	alice := testClient(h, "alice")
	bob := testClient(h, "bob")
	h.addClient(alice)
	h.addClient(bob)

	h.BroadcastOnlineUsers()

	assert.Len(t, framesOfType(drainFrames(t, alice), EventOnlineUsers), 1)
	assert.Len(t, framesOfType(drainFrames(t, bob), EventOnlineUsers), 1)
}
