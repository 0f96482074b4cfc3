package services

import (
	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// MessageService is the pipeline every outgoing message goes through.
type MessageService struct {
	log       *slog.Logger
	chats     contract.IChatRepository
	messages  contract.IMessageRepository
	images    contract.IImageStore
	presence  contract.IPresenceRegistry
	rooms     contract.IRoomTracker
	deliverer contract.IDeliverer
	index     contract.IMessageIndex
	moderator contract.IModerator
	metrics   *observability.Metrics
	now       func() time.Time
}

func NewMessageService(
	log *slog.Logger,
	chats contract.IChatRepository,
	messages contract.IMessageRepository,
	images contract.IImageStore,
	presence contract.IPresenceRegistry,
	rooms contract.IRoomTracker,
	deliverer contract.IDeliverer,
	index contract.IMessageIndex,
	moderator contract.IModerator,
	metrics *observability.Metrics,
) *MessageService {
	return &MessageService{
		log:       log,
		chats:     chats,
		messages:  messages,
		images:    images,
		presence:  presence,
		rooms:     rooms,
		deliverer: deliverer,
		index:     index,
		moderator: moderator,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateMessage validates, stores and delivers a message.
// Once the chat and sender are validated the caller cannot cancel it anymore:
// the message is persisted even if the sender disconnects meanwhile.
// Live delivery never fails the request.
func (s *MessageService) CreateMessage(ctx context.Context, cmd chat.CreateMessageCommand) (chat.Message, error) {
	if chat.IsEmpty(cmd.Text, cmd.Image != nil) {
		return chat.Message{}, errors.ErrEmptyMessage
	}
	if cmd.ChatID == "" {
		return chat.Message{}, errors.ErrMissingChatID
	}
	c, err := s.chats.Get(ctx, cmd.ChatID)
	if err != nil {
		return chat.Message{}, err
	}
	if !c.HasParticipant(cmd.SenderID) {
		s.log.Warn("Message rejected, sender is not a participant", "chat", cmd.ChatID, "sender", cmd.SenderID)
		return chat.Message{}, errors.ErrNotParticipant
	}
	receiverID := c.OtherParticipant(cmd.SenderID)
	persistCtx := context.WithoutCancel(ctx)

	var image *chat.Image
	if cmd.Image != nil {
		stored, err := s.images.Save(persistCtx, cmd.Image.Filename, cmd.Image.Content)
		if err != nil {
			return chat.Message{}, fmt.Errorf("store image: %w", err)
		}
		image = &stored
	}

	text := cmd.Text
	if s.moderator != nil {
		var censored []string
		if text, censored = s.moderator.Censor(text); len(censored) > 0 {
			s.log.Debug("Message censored", "chat", c.ID, "sender", cmd.SenderID, "words", len(censored))
		}
	}

	now := s.now()
	msg := chat.Message{
		ID:        uuid.NewString(),
		ChatID:    c.ID,
		Sender:    cmd.SenderID,
		Text:      text,
		Image:     image,
		Type:      chat.ClassifyMessage(image),
		Lang:      moderation.DetectLanguage(text),
		CreatedAt: now,
	}
	if s.isViewing(receiverID, c.ID) {
		msg.Seen = true
		msg.SeenAt = &now
	}

	updated, err := s.messages.Create(persistCtx, msg)
	if err != nil {
		s.discard(persistCtx, image)
		return chat.Message{}, fmt.Errorf("persist message: %w", err)
	}
	s.metrics.IncrMessageSent(string(msg.Type))
	if msg.Seen {
		s.metrics.AddSeen(1)
	}

	if s.index != nil {
		if err = s.index.Index(msg); err != nil {
			s.log.Warn("Message not indexed", "message", msg.ID, "error", err)
		}
	}

	s.deliverer.Deliver(persistCtx, msg, updated)
	return msg, nil
}

// discard removes the image of a message that could not be persisted.
func (s *MessageService) discard(ctx context.Context, image *chat.Image) {
	if image == nil {
		return
	}
	if err := s.images.Delete(ctx, *image); err != nil {
		s.log.Warn("Orphan image not removed", "public_id", image.PublicID, "error", err)
	}
}

// isViewing reports whether one of the user's connections is joined to the chat room.
func (s *MessageService) isViewing(userID, chatID string) bool {
	if !s.presence.IsOnline(userID) {
		return false
	}
	for _, connID := range s.presence.ConnectionsOf(userID) {
		if s.rooms.IsMember(chatID, connID) {
			return true
		}
	}
	return false
}
