package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"
)

// Gateway is the single entry point of the real-time channel.
// Each live connection calls Connect once, Handle for every inbound event and Disconnect once.
type Gateway struct {
	log         *slog.Logger
	presence    contract.IPresenceRegistry
	rooms       contract.IRoomTracker
	connections contract.IConnections
	chats       contract.IChatFinder
	typing      contract.ITypingBroadcaster
	seen        contract.ISeenSynchronizer
	broadcast   chan<- event.Event
	metrics     *observability.Metrics
}

func NewGateway(
	log *slog.Logger,
	presence contract.IPresenceRegistry,
	rooms contract.IRoomTracker,
	connections contract.IConnections,
	chats contract.IChatFinder,
	typing contract.ITypingBroadcaster,
	seen contract.ISeenSynchronizer,
	broadcast chan<- event.Event,
	metrics *observability.Metrics,
) *Gateway {
	return &Gateway{
		log:         log,
		presence:    presence,
		rooms:       rooms,
		connections: connections,
		chats:       chats,
		typing:      typing,
		seen:        seen,
		broadcast:   broadcast,
		metrics:     metrics,
	}
}

// Connect attaches the connection and registers its user as present.
// The online list is broadcast when the user just came online, otherwise
// (anonymous connection, additional tab) only the new connection receives it.
func (g *Gateway) Connect(ctx context.Context, conn contract.Connection) {
	g.connections.Attach(conn)
	defer g.refreshGauges()

	if userID := conn.UserID(); userID != "" && g.presence.Add(userID, conn.ID()) {
		g.log.Info("User online", "user", userID)
		g.publishOnline()
		return
	}
	online := event.OnlineUsers{UserIDs: g.presence.OnlineUsers()}
	if err := conn.Consume(ctx, online); err != nil {
		g.log.Debug("Online list not delivered", "connection", conn.ID(), "error", err)
	}
}

// Disconnect is called exactly once per connection.
// In-flight message creation is not cancelled by it.
func (g *Gateway) Disconnect(_ context.Context, conn contract.Connection) {
	g.rooms.LeaveAll(conn.ID())
	g.connections.Detach(conn.ID())
	defer g.refreshGauges()

	if userID := conn.UserID(); userID != "" && g.presence.Remove(userID, conn.ID()) {
		g.log.Info("User offline", "user", userID)
		g.publishOnline()
	}
}

func (g *Gateway) Handle(ctx context.Context, conn contract.Connection, in event.Inbound) error {
	switch evt := in.(type) {
	case event.JoinChat:
		return g.join(ctx, conn, evt.ChatID)
	case event.LeaveChat:
		g.rooms.Leave(evt.ChatID, conn.ID())
	case event.Typing:
		g.typing.Typing(ctx, conn.ID(), evt.ChatID, actor(conn, evt.UserID))
	case event.StopTyping:
		g.typing.StopTyping(ctx, conn.ID(), evt.ChatID, actor(conn, evt.UserID))
	case event.MarkMessagesSeen:
		if conn.UserID() == "" {
			return errors.ErrUnauthenticated
		}
		if _, err := g.seen.MarkMessagesSeen(ctx, evt.ChatID, conn.UserID(), evt.MessageIDs); err != nil {
			return fmt.Errorf("mark messages seen: %w", err)
		}
	default:
		return errors.ErrUnknownEvent
	}
	return nil
}

// join admits an authenticated connection to the rooms of its own chats only.
// Anonymous connections have nothing to check against.
func (g *Gateway) join(ctx context.Context, conn contract.Connection, chatID string) error {
	if chatID == "" {
		return errors.ErrMissingChatID
	}
	if userID := conn.UserID(); userID != "" {
		c, err := g.chats.Get(ctx, chatID)
		if err != nil {
			return fmt.Errorf("join chat: %w", err)
		}
		if !c.HasParticipant(userID) {
			g.log.Warn("Join rejected, user is not a participant", "chat", chatID, "user", userID)
			return errors.ErrNotParticipant
		}
	}
	g.rooms.Join(chatID, conn.ID())
	return nil
}

// publishOnline never blocks, the snapshot is dropped when the broadcast buffer is full.
func (g *Gateway) publishOnline() {
	online := event.OnlineUsers{UserIDs: g.presence.OnlineUsers()}
	select {
	case g.broadcast <- online:
	default:
		g.log.Debug("Online users broadcast lost")
	}
}

func (g *Gateway) refreshGauges() {
	g.metrics.SetPresence(len(g.connections.All()), len(g.presence.OnlineUsers()))
}

// actor prefers the authenticated user over the one claimed in the payload.
func actor(conn contract.Connection, claimed string) string {
	if id := conn.UserID(); id != "" {
		return id
	}
	return claimed
}
