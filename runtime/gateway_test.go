package runtime

import (
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type seenCall struct {
	chatID, viewerID string
	ids              []string
}

type stubSeen struct {
	calls []seenCall
	err   error
}

func (s *stubSeen) MarkChatSeen(_ context.Context, chatID, viewerID string) ([]string, error) {
	s.calls = append(s.calls, seenCall{chatID: chatID, viewerID: viewerID})
	return nil, s.err
}

func (s *stubSeen) MarkMessagesSeen(_ context.Context, chatID, viewerID string, ids []string) ([]string, error) {
	s.calls = append(s.calls, seenCall{chatID: chatID, viewerID: viewerID, ids: ids})
	return ids, s.err
}

type stubChats map[string]chat.Chat

func (s stubChats) Get(_ context.Context, chatID string) (chat.Chat, error) {
	c, ok := s[chatID]
	if !ok {
		return chat.Chat{}, errors.ErrChatNotFound
	}
	return c, nil
}

type gatewayHarness struct {
	*deliveryHarness
	gateway   *Gateway
	seen      *stubSeen
	broadcast chan event.Event
}

func newGatewayHarness(buffer int) *gatewayHarness {
	d := newDeliveryHarness()
	h := &gatewayHarness{deliveryHarness: d, seen: &stubSeen{}, broadcast: make(chan event.Event, buffer)}
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	chats := stubChats{
		"c1": {ID: "c1", Users: [2]string{"alice", "bob"}},
		"c2": {ID: "c2", Users: [2]string{"alice", "carol"}},
	}
	h.gateway = NewGateway(log, d.presence, d.rooms, d.registry, chats, NewTyping(d.rooms, d.deliverer), h.seen, h.broadcast, nil)
	return h
}

func TestGateway_Connect_Publishes_Online_Users(t *testing.T) {
	req := require.New(t)
	h := newGatewayHarness(10)
	ctx := context.Background()

	// When alice connects
	h.gateway.Connect(ctx, newFakeConnection("a1", "alice"))

	// Then the new online list is queued for broadcast
	req.Equal(event.OnlineUsers{UserIDs: []string{"alice"}}, <-h.broadcast)
	_, ok := h.registry.Get("a1")
	req.True(ok)
}

func TestGateway_Anonymous_Connection(t *testing.T) {
	req := require.New(t)
	h := newGatewayHarness(10)
	ctx := context.Background()
	h.gateway.Connect(ctx, newFakeConnection("a1", "alice"))
	<-h.broadcast

	// When a connection without user connects
	anonymous := newFakeConnection("x1", "")
	h.gateway.Connect(ctx, anonymous)

	// Then it receives the online list directly and is not present
	req.Equal([]event.Event{event.OnlineUsers{UserIDs: []string{"alice"}}}, anonymous.Events())
	req.Equal([]string{"alice"}, h.presence.OnlineUsers())
	req.Empty(h.broadcast)
}

func TestGateway_Disconnect_Clears_Rooms_And_Presence(t *testing.T) {
	req := require.New(t)
	h := newGatewayHarness(10)
	ctx := context.Background()
	tab1 := newFakeConnection("a1", "alice")
	tab2 := newFakeConnection("a2", "alice")
	h.gateway.Connect(ctx, tab1)
	h.gateway.Connect(ctx, tab2)
	req.NoError(h.gateway.Handle(ctx, tab1, event.JoinChat{ChatID: "c1"}))
	req.NoError(h.gateway.Handle(ctx, tab1, event.JoinChat{ChatID: "c2"}))

	// When the first tab drops
	h.gateway.Disconnect(ctx, tab1)

	// Then its rooms are gone but alice stays online
	req.False(h.rooms.IsMember("c1", "a1"))
	req.False(h.rooms.IsMember("c2", "a1"))
	req.True(h.presence.IsOnline("alice"))

	// When the last tab drops
	h.gateway.Disconnect(ctx, tab2)

	// Then alice is offline and the empty list is published
	req.False(h.presence.IsOnline("alice"))
	var last event.Event
	for len(h.broadcast) > 0 {
		last = <-h.broadcast
	}
	req.Equal(event.OnlineUsers{UserIDs: []string{}}, last)
}

func TestGateway_Broadcast_Full_Does_Not_Block(t *testing.T) {
	h := newGatewayHarness(0)
	ctx := context.Background()

	// Nobody reads the broadcast channel
	h.gateway.Connect(ctx, newFakeConnection("a1", "alice"))
	h.gateway.Disconnect(ctx, newFakeConnection("a1", "alice"))

	require.False(t, h.presence.IsOnline("alice"))
}

func TestGateway_Typing_Uses_Authenticated_User(t *testing.T) {
	req := require.New(t)
	h := newGatewayHarness(10)
	ctx := context.Background()
	alice := newFakeConnection("a1", "alice")
	bob := newFakeConnection("b1", "bob")
	h.gateway.Connect(ctx, alice)
	h.gateway.Connect(ctx, bob)
	req.NoError(h.gateway.Handle(ctx, alice, event.JoinChat{ChatID: "c1"}))
	req.NoError(h.gateway.Handle(ctx, bob, event.JoinChat{ChatID: "c1"}))

	// When alice claims to be someone else
	req.NoError(h.gateway.Handle(ctx, alice, event.Typing{ChatID: "c1", UserID: "mallory"}))

	// Then bob sees alice typing
	req.Equal([]event.Event{event.UserTyping{ChatID: "c1", UserID: "alice"}}, bob.Events())
}

func TestGateway_Mark_Messages_Seen(t *testing.T) {
	req := require.New(t)
	h := newGatewayHarness(10)
	ctx := context.Background()
	bob := newFakeConnection("b1", "bob")
	h.gateway.Connect(ctx, bob)

	req.NoError(h.gateway.Handle(ctx, bob, event.MarkMessagesSeen{ChatID: "c1", MessageIDs: []string{"m1"}}))
	req.Equal([]seenCall{{chatID: "c1", viewerID: "bob", ids: []string{"m1"}}}, h.seen.calls)

	// An anonymous connection cannot mark anything
	err := h.gateway.Handle(ctx, newFakeConnection("x1", ""), event.MarkMessagesSeen{ChatID: "c1"})
	req.ErrorIs(err, errors.ErrUnauthenticated)

	// A storage failure is surfaced to the connection
	h.seen.err = errors.ErrChatNotFound
	err = h.gateway.Handle(ctx, bob, event.MarkMessagesSeen{ChatID: "c1"})
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestGateway_Rejects_Invalid_Events(t *testing.T) {
	req := require.New(t)
	h := newGatewayHarness(10)
	conn := newFakeConnection("a1", "alice")

	req.ErrorIs(h.gateway.Handle(context.Background(), conn, event.JoinChat{}), errors.ErrMissingChatID)
	req.ErrorIs(h.gateway.Handle(context.Background(), conn, nil), errors.ErrUnknownEvent)
}

func TestGateway_Second_Tab_Gets_Online_List_Directly(t *testing.T) {
	req := require.New(t)
	h := newGatewayHarness(10)
	ctx := context.Background()
	h.gateway.Connect(ctx, newFakeConnection("a1", "alice"))
	<-h.broadcast

	// When alice opens a second tab
	tab2 := newFakeConnection("a2", "alice")
	h.gateway.Connect(ctx, tab2)

	// Then only that tab receives the unchanged online list
	req.Equal([]event.Event{event.OnlineUsers{UserIDs: []string{"alice"}}}, tab2.Events())
	req.Empty(h.broadcast)
}

func TestGateway_Disconnect_Publishes_Only_When_Online_Set_Changes(t *testing.T) {
	req := require.New(t)
	h := newGatewayHarness(10)
	ctx := context.Background()
	h.gateway.Connect(ctx, newFakeConnection("a1", "alice"))
	h.gateway.Connect(ctx, newFakeConnection("a2", "alice"))
	<-h.broadcast

	// When an unknown connection of alice and then one of her two tabs disconnect
	h.gateway.Disconnect(ctx, newFakeConnection("ghost", "alice"))
	h.gateway.Disconnect(ctx, newFakeConnection("a1", "alice"))

	// Then nothing is broadcast, alice is still online
	req.Empty(h.broadcast)
	req.True(h.presence.IsOnline("alice"))
}

func TestGateway_Join_Requires_Participation(t *testing.T) {
	req := require.New(t)
	h := newGatewayHarness(10)
	ctx := context.Background()
	carol := newFakeConnection("c1-tab", "carol")
	h.gateway.Connect(ctx, carol)

	// When carol joins a chat of alice and bob
	err := h.gateway.Handle(ctx, carol, event.JoinChat{ChatID: "c1"})

	// Then she is refused and not in the room
	req.ErrorIs(err, errors.ErrForbidden)
	req.False(h.rooms.IsMember("c1", "c1-tab"))

	// An unknown chat is not found
	req.ErrorIs(h.gateway.Handle(ctx, carol, event.JoinChat{ChatID: "nope"}), errors.ErrNotFound)

	// Her own chat is fine
	req.NoError(h.gateway.Handle(ctx, carol, event.JoinChat{ChatID: "c2"}))
	req.True(h.rooms.IsMember("c2", "c1-tab"))
}
