package runtime

import (
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type deliveryHarness struct {
	presence  *Presence
	rooms     *Rooms
	registry  *Registry
	deliverer *Deliverer
}

func newDeliveryHarness() *deliveryHarness {
	h := &deliveryHarness{
		presence: NewPresence(),
		rooms:    NewRooms(),
		registry: NewRegistry(),
	}
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	h.deliverer = NewDeliverer(log, h.presence, h.rooms, h.registry, nil, time.Second)
	return h
}

func (h *deliveryHarness) connect(conn *fakeConnection) {
	h.registry.Attach(conn)
	h.presence.Add(conn.UserID(), conn.ID())
}

func testChat(t *testing.T) chat.Chat {
	c, err := chat.NewChat("c1", "alice", "bob", time.Now().UTC())
	require.NoError(t, err)
	return c
}

func TestDeliverer_Receiver_In_Room(t *testing.T) {
	req := require.New(t)
	h := newDeliveryHarness()
	c := testChat(t)
	alice := newFakeConnection("a1", "alice")
	aliceTab := newFakeConnection("a2", "alice")
	bob := newFakeConnection("b1", "bob")
	h.connect(alice)
	h.connect(aliceTab)
	h.connect(bob)

	// Given bob is viewing the chat
	h.rooms.Join(c.ID, bob.ID())
	now := time.Now().UTC()
	msg := chat.Message{ID: "m1", ChatID: c.ID, Sender: "alice", Text: "hello", Seen: true, SeenAt: &now}

	// When alice's message is delivered
	h.deliverer.Deliver(context.Background(), msg, c)

	// Then bob gets it once through the room
	req.Len(bob.Named(event.NewMessageName), 1)
	// And every tab of alice gets the echo
	req.Len(alice.Named(event.NewMessageName), 1)
	req.Len(aliceTab.Named(event.NewMessageName), 1)
	// And alice is told bob has seen it
	seen := alice.Named(event.MessagesSeenName)
	req.Len(seen, 1)
	req.Equal(event.MessagesSeen{ChatID: c.ID, SeenBy: "bob", MessageIDs: []string{"m1"}}, seen[0])
	req.Len(aliceTab.Named(event.MessagesSeenName), 1)
	req.Empty(bob.Named(event.MessagesSeenName))
}

func TestDeliverer_Receiver_Online_Outside_Room(t *testing.T) {
	req := require.New(t)
	h := newDeliveryHarness()
	c := testChat(t)
	alice := newFakeConnection("a1", "alice")
	bob := newFakeConnection("b1", "bob")
	h.connect(alice)
	h.connect(bob)

	// Given bob is only on the chat list
	h.rooms.Join("chat-list", bob.ID())
	msg := chat.Message{ID: "m1", ChatID: c.ID, Sender: "alice", Text: "hi"}

	// When
	h.deliverer.Deliver(context.Background(), msg, c)

	// Then bob gets a targeted copy and nobody gets a seen notification
	req.Len(bob.Named(event.NewMessageName), 1)
	req.Len(alice.Named(event.NewMessageName), 1)
	req.Empty(alice.Named(event.MessagesSeenName))
}

func TestDeliverer_Never_Duplicates(t *testing.T) {
	req := require.New(t)
	h := newDeliveryHarness()
	c := testChat(t)
	alice := newFakeConnection("a1", "alice")
	bob := newFakeConnection("b1", "bob")
	h.connect(alice)
	h.connect(bob)

	// Given both participants are in the room
	h.rooms.Join(c.ID, alice.ID())
	h.rooms.Join(c.ID, bob.ID())

	// When
	h.deliverer.Deliver(context.Background(), chat.Message{ID: "m1", ChatID: c.ID, Sender: "alice", Text: "yo"}, c)

	// Then room broadcast, receiver step and echo are merged
	req.Len(alice.Events(), 1)
	req.Len(bob.Events(), 1)
}

func TestDeliverer_Receiver_Offline(t *testing.T) {
	req := require.New(t)
	h := newDeliveryHarness()
	c := testChat(t)
	alice := newFakeConnection("a1", "alice")
	h.connect(alice)

	// When bob is not connected at all
	h.deliverer.Deliver(context.Background(), chat.Message{ID: "m1", ChatID: c.ID, Sender: "alice", Text: "yo"}, c)

	// Then only the echo goes out
	req.Len(alice.Named(event.NewMessageName), 1)
}

func TestDeliverer_Failure_Is_Swallowed(t *testing.T) {
	req := require.New(t)
	h := newDeliveryHarness()
	c := testChat(t)
	alice := newFakeConnection("a1", "alice")
	broken := newFakeConnection("b1", "bob")
	broken.err = fmt.Errorf("connection closed")
	bobTab := newFakeConnection("b2", "bob")
	h.connect(alice)
	h.connect(broken)
	h.connect(bobTab)

	// Given a stale id still in the room
	h.rooms.Join(c.ID, "ghost")

	// When
	h.deliverer.Deliver(context.Background(), chat.Message{ID: "m1", ChatID: c.ID, Sender: "alice", Text: "yo"}, c)

	// Then the healthy connections still receive it
	req.Len(bobTab.Named(event.NewMessageName), 1)
	req.Len(alice.Named(event.NewMessageName), 1)
}

func TestDeliverer_NotifySeen_Empty_Is_Noop(t *testing.T) {
	req := require.New(t)
	h := newDeliveryHarness()
	alice := newFakeConnection("a1", "alice")
	h.connect(alice)

	h.deliverer.NotifySeen(context.Background(), "alice", event.MessagesSeen{ChatID: "c1", SeenBy: "bob"})

	req.Empty(alice.Events())
}
