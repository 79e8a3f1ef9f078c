package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ecoroute/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeMessageStore struct {
	mu        sync.Mutex
	messages  []models.ChatMessage
	readIDs   []primitive.ObjectID
	createErr error
}

func (s *fakeMessageStore) Create(ctx context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	msg.ID = primitive.NewObjectID()
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *fakeMessageStore) RoomHistory(ctx context.Context, room string, limit int64, before time.Time) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.ChatMessage
	for i := len(s.messages) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if s.messages[i].Room == room {
			out = append(out, s.messages[i])
		}
	}
	return out, nil
}

func (s *fakeMessageStore) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readIDs = append(s.readIDs, id)
	return nil
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	notes []models.Notification
}

func (f *fakeEnqueuer) EnqueueNotification(ctx context.Context, n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, n)
	return nil
}

func (f *fakeEnqueuer) queued() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Notification(nil), f.notes...)
}

func newTestGateway(messages *fakeMessageStore, notifier *fakeEnqueuer) (*Gateway, *Hub) {
	hub := NewHub()
	return NewGateway(hub, nil, nil, messages, notifier), hub
}

func envelope(t *testing.T, eventType string, data interface{}) Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return Envelope{Type: eventType, Data: raw}
}

func decodeFrame[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestSendMessageBroadcastsToRoom(t *testing.T) {
	store := &fakeMessageStore{}
	notifier := &fakeEnqueuer{}
	g, hub := newTestGateway(store, notifier)

	alice := testClient(hub, "alice")
	bob := testClient(hub, "bob")
	hub.addClient(alice)
	hub.addClient(bob)

	g.dispatch(alice, envelope(t, EventSendMessage, SendMessageRequest{Message: "hello everyone"}))

	aliceFrames := drainFrames(t, alice)
	newMsgs := framesOfType(aliceFrames, EventNewMessage)
	require.Len(t, newMsgs, 1, "sender receives the room copy too")

	acks := framesOfType(aliceFrames, EventMessageSent)
	require.Len(t, acks, 1)
	ack := decodeFrame[MessageAck](t, acks[0])
	assert.True(t, ack.Success)
	require.NotNil(t, ack.Message)
	assert.Equal(t, "hello everyone", ack.Message.Content)
	assert.Equal(t, models.DefaultRoom, ack.Message.Room)
	assert.False(t, ack.Message.ID.IsZero())

	require.Len(t, framesOfType(drainFrames(t, bob), EventNewMessage), 1)
	require.Len(t, store.messages, 1)
	assert.Equal(t, alice.userID, store.messages[0].Sender)
	assert.Equal(t, "alice", store.messages[0].SenderName)
	assert.Empty(t, notifier.queued(), "room messages queue no notifications")
}

func TestSendMessageEmptyContentRejected(t *testing.T) {
	store := &fakeMessageStore{}
	g, hub := newTestGateway(store, &fakeEnqueuer{})

	alice := testClient(hub, "alice")
	hub.addClient(alice)

	g.dispatch(alice, envelope(t, EventSendMessage, SendMessageRequest{Message: "   "}))

	frames := drainFrames(t, alice)
	require.Len(t, framesOfType(frames, EventMessageError), 1)
	assert.Empty(t, framesOfType(frames, EventMessageSent))
	assert.Empty(t, store.messages)
}

func TestSendMessagePersistFailure(t *testing.T) {
	store := &fakeMessageStore{createErr: errors.New("db down")}
	g, hub := newTestGateway(store, &fakeEnqueuer{})

	alice := testClient(hub, "alice")
	bob := testClient(hub, "bob")
	hub.addClient(alice)
	hub.addClient(bob)

	g.dispatch(alice, envelope(t, EventSendMessage, SendMessageRequest{Message: "hello"}))

	aliceFrames := drainFrames(t, alice)
	require.Len(t, framesOfType(aliceFrames, EventMessageError), 1)
	assert.Empty(t, framesOfType(aliceFrames, EventMessageSent))
	// An unpersisted message is never delivered.
	assert.Empty(t, framesOfType(drainFrames(t, bob), EventNewMessage))
}

func TestPrivateMessageDeliveredToRecipientOnly(t *testing.T) {
	store := &fakeMessageStore{}
	notifier := &fakeEnqueuer{}
	g, hub := newTestGateway(store, notifier)

	alice := testClient(hub, "alice")
	bob := testClient(hub, "bob")
	carol := testClient(hub, "carol")
	hub.addClient(alice)
	hub.addClient(bob)
	hub.addClient(carol)

	g.dispatch(alice, envelope(t, EventSendMessage, SendMessageRequest{
		Message:   "just for you",
		Recipient: bob.userID.Hex(),
	}))

	require.Len(t, framesOfType(drainFrames(t, bob), EventNewMessage), 1)
	assert.Empty(t, framesOfType(drainFrames(t, carol), EventNewMessage))

	acks := framesOfType(drainFrames(t, alice), EventMessageSent)
	require.Len(t, acks, 1)
	ack := decodeFrame[MessageAck](t, acks[0])
	assert.Equal(t, models.MessageStatusDelivered, ack.Message.Status)

	notes := notifier.queued()
	require.Len(t, notes, 1)
	assert.Equal(t, bob.userID, notes[0].User)
	assert.Equal(t, models.NotificationTypeMessage, notes[0].Type)
	assert.Contains(t, notes[0].Message, "just for you")
}

func TestPrivateMessageOfflineRecipientStillQueued(t *testing.T) {
	store := &fakeMessageStore{}
	notifier := &fakeEnqueuer{}
	g, hub := newTestGateway(store, notifier)

	alice := testClient(hub, "alice")
	hub.addClient(alice)
	offline := primitive.NewObjectID()

	g.dispatch(alice, envelope(t, EventSendMessage, SendMessageRequest{
		Message:   "see you later",
		Recipient: offline.Hex(),
	}))

	acks := framesOfType(drainFrames(t, alice), EventMessageSent)
	require.Len(t, acks, 1)
	ack := decodeFrame[MessageAck](t, acks[0])
	assert.True(t, ack.Success)
	assert.Equal(t, models.MessageStatusSent, ack.Message.Status)

	notes := notifier.queued()
	require.Len(t, notes, 1)
	assert.Equal(t, offline, notes[0].User)
}

func TestPrivateMessageInvalidRecipient(t *testing.T) {
	store := &fakeMessageStore{}
	g, hub := newTestGateway(store, &fakeEnqueuer{})

	alice := testClient(hub, "alice")
	hub.addClient(alice)

	g.dispatch(alice, envelope(t, EventSendMessage, SendMessageRequest{
		Message:   "hi",
		Recipient: "not-an-id",
	}))

	require.Len(t, framesOfType(drainFrames(t, alice), EventMessageError), 1)
	assert.Empty(t, store.messages)
}

func TestJoinRoomReturnsHistory(t *testing.T) {
	store := &fakeMessageStore{}
	for i := 0; i < 60; i++ {
		msg := models.ChatMessage{
			ID:        primitive.NewObjectID(),
			Content:   "m",
			Room:      "recycling",
			CreatedAt: time.Now(),
		}
		store.messages = append(store.messages, msg)
	}
	g, hub := newTestGateway(store, &fakeEnqueuer{})

	alice := testClient(hub, "alice")
	hub.addClient(alice)
	drainFrames(t, alice)

	g.dispatch(alice, envelope(t, EventJoinRoom, JoinRoomRequest{Room: "recycling"}))

	frames := framesOfType(drainFrames(t, alice), EventMessageHistory)
	require.Len(t, frames, 1)
	payload := decodeFrame[MessageHistoryPayload](t, frames[0])
	assert.Equal(t, "recycling", payload.Room)
	assert.Len(t, payload.Messages, historyLimit)
	assert.Equal(t, 1, hub.RoomMemberCount("recycling"))
}

func TestJoinRoomDefaultsToGeneral(t *testing.T) {
	g, hub := newTestGateway(&fakeMessageStore{}, &fakeEnqueuer{})
	alice := testClient(hub, "alice")
	hub.addClient(alice)

	g.dispatch(alice, envelope(t, EventJoinRoom, JoinRoomRequest{}))

	frames := framesOfType(drainFrames(t, alice), EventMessageHistory)
	require.Len(t, frames, 1)
	payload := decodeFrame[MessageHistoryPayload](t, frames[0])
	assert.Equal(t, models.DefaultRoom, payload.Room)
}

func TestMarkReadRecordsMessage(t *testing.T) {
	store := &fakeMessageStore{}
	g, hub := newTestGateway(store, &fakeEnqueuer{})
	alice := testClient(hub, "alice")
	hub.addClient(alice)

	id := primitive.NewObjectID()
	g.dispatch(alice, envelope(t, EventMarkRead, MarkReadRequest{MessageID: id.Hex()}))

	require.Len(t, store.readIDs, 1)
	assert.Equal(t, id, store.readIDs[0])
}

func TestTypingRelayedWithoutSender(t *testing.T) {
	g, hub := newTestGateway(&fakeMessageStore{}, &fakeEnqueuer{})
	alice := testClient(hub, "alice")
	bob := testClient(hub, "bob")
	hub.addClient(alice)
	hub.addClient(bob)

	g.dispatch(alice, envelope(t, EventTyping, TypingRequest{IsTyping: true}))

	assert.Empty(t, framesOfType(drainFrames(t, alice), EventUserTyping))

	frames := framesOfType(drainFrames(t, bob), EventUserTyping)
	require.Len(t, frames, 1)
	payload := decodeFrame[TypingPayload](t, frames[0])
	assert.Equal(t, alice.userID.Hex(), payload.UserID)
	assert.Equal(t, "alice", payload.Name)
	assert.True(t, payload.IsTyping)
}

func TestBroadcastNotificationRequiresAdmin(t *testing.T) {
	notifier := &fakeEnqueuer{}
	g, hub := newTestGateway(&fakeMessageStore{}, notifier)

	alice := testClient(hub, "alice")
	bob := testClient(hub, "bob")
	hub.addClient(alice)
	hub.addClient(bob)
	drainFrames(t, alice)
	drainFrames(t, bob)

	g.dispatch(alice, envelope(t, EventBroadcastNotification, BroadcastRequest{
		Title:   "Maintenance",
		Message: "Going down at midnight",
	}))

	// Silent no-op: nothing broadcast, nothing queued, no error back.
	assert.Empty(t, drainFrames(t, alice))
	assert.Empty(t, drainFrames(t, bob))
	assert.Empty(t, notifier.queued())
}

func TestBroadcastNotificationFromAdmin(t *testing.T) {
	notifier := &fakeEnqueuer{}
	g, hub := newTestGateway(&fakeMessageStore{}, notifier)

	admin := newClient(hub, nil, primitive.NewObjectID(), "root", "root@example.com", models.RoleAdmin)
	bob := testClient(hub, "bob")
	hub.addClient(admin)
	hub.addClient(bob)
	drainFrames(t, admin)
	drainFrames(t, bob)

	g.dispatch(admin, envelope(t, EventBroadcastNotification, BroadcastRequest{
		Title:   "Maintenance",
		Message: "Going down at midnight",
	}))

	require.Len(t, framesOfType(drainFrames(t, admin), EventNotification), 1)
	frames := framesOfType(drainFrames(t, bob), EventNotification)
	require.Len(t, frames, 1)
	payload := decodeFrame[TransientNotification](t, frames[0])
	assert.Equal(t, models.NotificationTypeSystem, payload.Type)
	assert.Equal(t, "Maintenance", payload.Title)

	// One durable copy per online user.
	notes := notifier.queued()
	require.Len(t, notes, 2)
	users := map[primitive.ObjectID]bool{}
	for _, n := range notes {
		users[n.User] = true
		assert.Equal(t, "Maintenance", n.Title)
	}
	assert.True(t, users[admin.userID])
	assert.True(t, users[bob.userID])
}

func TestDispatchIgnoresUnknownEvents(t *testing.T) {
	g, hub := newTestGateway(&fakeMessageStore{}, &fakeEnqueuer{})
	alice := testClient(hub, "alice")
	hub.addClient(alice)
	drainFrames(t, alice)

	g.dispatch(alice, envelope(t, "no-such-event", map[string]string{"x": "y"}))

	assert.Empty(t, drainFrames(t, alice))
}
