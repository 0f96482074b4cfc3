package services

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SeenService flips messages to seen when their receiver reads them
// and tells the sender which ones were flipped.
type SeenService struct {
	log       *slog.Logger
	chats     contract.IChatRepository
	messages  contract.IMessageRepository
	deliverer contract.IDeliverer
	metrics   *observability.Metrics
	now       func() time.Time
}

func NewSeenService(
	log *slog.Logger,
	chats contract.IChatRepository,
	messages contract.IMessageRepository,
	deliverer contract.IDeliverer,
	metrics *observability.Metrics,
) *SeenService {
	return &SeenService{
		log:       log,
		chats:     chats,
		messages:  messages,
		deliverer: deliverer,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// MarkChatSeen flips every unseen message the viewer received in the chat.
// Calling it again on a fully seen chat changes nothing and notifies nobody.
func (s *SeenService) MarkChatSeen(ctx context.Context, chatID, viewerID string) ([]string, error) {
	return s.mark(ctx, chatID, viewerID, nil)
}

// MarkMessagesSeen is MarkChatSeen restricted to messageIDs.
func (s *SeenService) MarkMessagesSeen(ctx context.Context, chatID, viewerID string, messageIDs []string) ([]string, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	return s.mark(ctx, chatID, viewerID, messageIDs)
}

func (s *SeenService) mark(ctx context.Context, chatID, viewerID string, messageIDs []string) ([]string, error) {
	if chatID == "" {
		return nil, errors.ErrMissingChatID
	}
	c, err := s.chats.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(viewerID) {
		s.log.Warn("Seen rejected, user is not a participant", "chat", chatID, "user", viewerID)
		return nil, errors.ErrNotParticipant
	}

	flipped, err := s.messages.MarkSeen(context.WithoutCancel(ctx), chatID, viewerID, messageIDs, s.now())
	if err != nil {
		return nil, fmt.Errorf("mark seen: %w", err)
	}
	if len(flipped) == 0 {
		return nil, nil
	}

	s.metrics.AddSeen(len(flipped))
	s.deliverer.NotifySeen(ctx, c.OtherParticipant(viewerID), event.MessagesSeen{
		ChatID:     chatID,
		SeenBy:     viewerID,
		MessageIDs: flipped,
	})
	return flipped, nil
}
