package services

import (
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/infrastructure/search"
	"chat-relay/mocks"
	"chat-relay/moderation"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingConn struct {
	id, userID string
	mu         sync.Mutex
	events     []event.Event
}

func (c *recordingConn) ID() string     { return c.id }
func (c *recordingConn) UserID() string { return c.userID }

func (c *recordingConn) Consume(_ context.Context, e event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *recordingConn) Named(name event.Name) []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []event.Event
	for _, e := range c.events {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	presence *runtime.Presence
	rooms    *runtime.Rooms
	registry *runtime.Registry
	chats    *repositories.ChatRepository
	messages *repositories.MessageRepository
	images   *mocks.MockIImageStore
	users    *mocks.MockIUserDirectory
	seen     *SeenService
	pipeline *MessageService
	service  *ChatService
	clock    time.Time
}

func newHarness(t *testing.T) *harness {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	moderator, err := moderation.NewModerator([]string{"badger"}, '*', log)
	require.NoError(t, err)

	h := &harness{
		presence: runtime.NewPresence(),
		rooms:    runtime.NewRooms(),
		registry: runtime.NewRegistry(),
		chats:    repositories.NewChatRepository(db, log),
		messages: repositories.NewMessageRepository(db, log, nil),
		images:   mocks.NewMockIImageStore(ctrl),
		users:    mocks.NewMockIUserDirectory(ctrl),
		clock:    time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	deliverer := runtime.NewDeliverer(log, h.presence, h.rooms, h.registry, nil, time.Second)
	index := search.NewMessageIndex(writer, log)

	h.seen = NewSeenService(log, h.chats, h.messages, deliverer, nil)
	h.seen.now = h.tick
	h.pipeline = NewMessageService(log, h.chats, h.messages, h.images, h.presence, h.rooms, deliverer, index, moderator, nil)
	h.pipeline.now = h.tick
	h.service = NewChatService(log, h.chats, h.messages, h.users, h.seen, index)
	return h
}

// tick returns a strictly increasing time so messages keep their order.
func (h *harness) tick() time.Time {
	h.clock = h.clock.Add(time.Second)
	return h.clock
}

func (h *harness) connect(id, userID string) *recordingConn {
	conn := &recordingConn{id: id, userID: userID}
	h.registry.Attach(conn)
	h.presence.Add(userID, id)
	return conn
}

func (h *harness) createChat(t *testing.T, a, b string) chat.Chat {
	c, _, err := h.service.CreateOrGetChat(context.Background(), chat.CreateChatCommand{UserID: a, OtherUserID: b})
	require.NoError(t, err)
	return c
}

func (h *harness) send(t *testing.T, chatID, sender, text string) chat.Message {
	msg, err := h.pipeline.CreateMessage(context.Background(), chat.CreateMessageCommand{ChatID: chatID, SenderID: sender, Text: text})
	require.NoError(t, err)
	return msg
}
