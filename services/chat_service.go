package services

import (
	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
)

const defaultSearchLimit = 20

type ChatService struct {
	log      *slog.Logger
	chats    contract.IChatRepository
	messages contract.IMessageRepository
	users    contract.IUserDirectory
	seen     contract.ISeenSynchronizer
	index    contract.IMessageIndex
	validate *validator.Validate
}

func NewChatService(
	log *slog.Logger,
	chats contract.IChatRepository,
	messages contract.IMessageRepository,
	users contract.IUserDirectory,
	seen contract.ISeenSynchronizer,
	index contract.IMessageIndex,
) *ChatService {
	return &ChatService{
		log:      log,
		chats:    chats,
		messages: messages,
		users:    users,
		seen:     seen,
		index:    index,
		validate: validator.New(),
	}
}

// CreateOrGetChat returns the chat of the two users. The boolean reports a creation.
func (s *ChatService) CreateOrGetChat(ctx context.Context, cmd chat.CreateChatCommand) (chat.Chat, bool, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return chat.Chat{}, false, fmt.Errorf("%w: %v", errors.ErrInvalidArgument, err)
	}
	return s.chats.CreateOrGet(ctx, cmd.UserID, cmd.OtherUserID)
}

// ListChats returns the chats of the user, most recent first,
// with the other participant's profile and the number of messages the user has not seen.
func (s *ChatService) ListChats(ctx context.Context, userID string) ([]chat.Summary, error) {
	if userID == "" {
		return nil, errors.ErrMissingUser
	}
	chats, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]chat.Summary, 0, len(chats))
	for _, c := range chats {
		unseen, err := s.messages.CountUnseen(ctx, c.ID, userID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, chat.Summary{
			User:        s.LookupUser(ctx, c.OtherParticipant(userID)),
			Chat:        c,
			UnseenCount: unseen,
		})
	}
	return summaries, nil
}

// GetHistory opens a chat: the messages the user received are marked seen first,
// so the returned page already reflects it.
func (s *ChatService) GetHistory(ctx context.Context, cmd chat.GetHistoryCommand) (chat.History, error) {
	c, err := s.participantChat(ctx, cmd.ChatID, cmd.UserID)
	if err != nil {
		return chat.History{}, err
	}
	if _, err = s.seen.MarkChatSeen(ctx, c.ID, cmd.UserID); err != nil {
		return chat.History{}, err
	}
	messages, cursor, err := s.messages.GetMessages(ctx, c.ID, cmd.Cursor)
	if err != nil {
		return chat.History{}, err
	}
	if messages == nil {
		messages = []chat.Message{}
	}
	return chat.History{
		Messages:  messages,
		OtherUser: s.LookupUser(ctx, c.OtherParticipant(cmd.UserID)),
		Cursor:    cursor,
	}, nil
}

// Search finds messages of the chat matching the query, best match first.
func (s *ChatService) Search(ctx context.Context, chatID, userID, query string) ([]chat.Message, error) {
	c, err := s.participantChat(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	ids, err := s.index.Search(ctx, c.ID, query, defaultSearchLimit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []chat.Message{}, nil
	}
	return s.messages.FindByIDs(ctx, c.ID, ids)
}

func (s *ChatService) participantChat(ctx context.Context, chatID, userID string) (chat.Chat, error) {
	if chatID == "" {
		return chat.Chat{}, errors.ErrMissingChatID
	}
	c, err := s.chats.Get(ctx, chatID)
	if err != nil {
		return chat.Chat{}, err
	}
	if !c.HasParticipant(userID) {
		s.log.Warn("Access rejected, user is not a participant", "chat", chatID, "user", userID)
		return chat.Chat{}, errors.ErrNotParticipant
	}
	return c, nil
}

// LookupUser never fails, an unreachable user service gives a placeholder profile.
func (s *ChatService) LookupUser(ctx context.Context, userID string) chat.User {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		s.log.Debug("User profile unavailable", "user", userID, "error", err)
		return chat.UnknownUser(userID)
	}
	return user
}
