package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"context"

	"github.com/samber/lo"
)

// Typing relays typing signals to the other connections of a room.
// It keeps no state, a lost signal is healed by the client-side timeout.
type Typing struct {
	rooms     contract.IRoomTracker
	deliverer contract.IDeliverer
}

func NewTyping(rooms contract.IRoomTracker, deliverer contract.IDeliverer) *Typing {
	return &Typing{rooms: rooms, deliverer: deliverer}
}

func (t *Typing) Typing(ctx context.Context, fromConnID, chatID, userID string) {
	t.relay(ctx, fromConnID, chatID, event.UserTyping{ChatID: chatID, UserID: userID})
}

func (t *Typing) StopTyping(ctx context.Context, fromConnID, chatID, userID string) {
	t.relay(ctx, fromConnID, chatID, event.UserStoppedTyping{ChatID: chatID, UserID: userID})
}

func (t *Typing) relay(ctx context.Context, fromConnID, chatID string, e event.Event) {
	if chatID == "" {
		return
	}
	others := lo.Without(t.rooms.Members(chatID), fromConnID)
	if len(others) == 0 {
		return
	}
	t.deliverer.SendToConnections(ctx, others, e)
}
