//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"context"
	"io"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes, avoiding the need
// for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// Connection is one live real-time connection of an authenticated user.
// A user may hold several of them at once (several tabs or devices).
type Connection interface {
	EventSink
	ID() string
	UserID() string
}

// IPresenceRegistry maps users to their live connections.
type IPresenceRegistry interface {
	Add(userID, connID string) (becameOnline bool)
	Remove(userID, connID string) (becameOffline bool)
	ConnectionsOf(userID string) []string
	IsOnline(userID string) bool
	OnlineUsers() []string
}

// IRoomTracker maps chat rooms to the connections joined to them.
type IRoomTracker interface {
	Join(chatID, connID string)
	Leave(chatID, connID string)
	LeaveAll(connID string)
	Members(chatID string) []string
	IsMember(chatID, connID string) bool
}

// IConnections resolves connection ids to live connections.
type IConnections interface {
	Attach(conn Connection)
	Detach(connID string)
	Get(connID string) (Connection, bool)
	All() []Connection
}

type IDeliverer interface {
	Deliver(ctx context.Context, msg chat.Message, c chat.Chat)
	NotifySeen(ctx context.Context, recipientID string, seen event.MessagesSeen)
	SendToConnections(ctx context.Context, connIDs []string, e event.Event)
}

type ISeenSynchronizer interface {
	MarkChatSeen(ctx context.Context, chatID, viewerID string) ([]string, error)
	MarkMessagesSeen(ctx context.Context, chatID, viewerID string, messageIDs []string) ([]string, error)
}

// IChatFinder resolves a chat by id.
type IChatFinder interface {
	Get(ctx context.Context, chatID string) (chat.Chat, error)
}

type IChatRepository interface {
	IChatFinder
	CreateOrGet(ctx context.Context, userA, userB string) (chat.Chat, bool, error)
	ListForUser(ctx context.Context, userID string) ([]chat.Chat, error)
}

type IMessageRepository interface {
	// Create stores the message and the chat summary in one transaction.
	Create(ctx context.Context, msg chat.Message) (chat.Chat, error)
	GetMessages(ctx context.Context, chatID string, cursor *string) ([]chat.Message, *string, error)
	FindByIDs(ctx context.Context, chatID string, ids []string) ([]chat.Message, error)
	CountUnseen(ctx context.Context, chatID, viewerID string) (int, error)
	// MarkSeen flips every matching message not sent by viewerID and returns the ids it changed.
	// An empty ids slice means every message of the chat.
	MarkSeen(ctx context.Context, chatID, viewerID string, ids []string, at time.Time) ([]string, error)
}

type IImageStore interface {
	Save(ctx context.Context, filename string, content io.Reader) (chat.Image, error)
	Delete(ctx context.Context, image chat.Image) error
}

type IUserDirectory interface {
	GetUser(ctx context.Context, userID string) (chat.User, error)
}

type IMessageIndex interface {
	Index(msg chat.Message) error
	Search(ctx context.Context, chatID, query string, limit int) ([]string, error)
}

type IModerator interface {
	Censor(text string) (string, []string)
}

type ITypingBroadcaster interface {
	Typing(ctx context.Context, fromConnID, chatID, userID string)
	StopTyping(ctx context.Context, fromConnID, chatID, userID string)
}

// IGateway is driven by every real-time transport, once per connection.
type IGateway interface {
	Connect(ctx context.Context, conn Connection)
	Disconnect(ctx context.Context, conn Connection)
	Handle(ctx context.Context, conn Connection, in event.Inbound) error
}

type IChatService interface {
	CreateOrGetChat(ctx context.Context, cmd chat.CreateChatCommand) (chat.Chat, bool, error)
	ListChats(ctx context.Context, userID string) ([]chat.Summary, error)
	GetHistory(ctx context.Context, cmd chat.GetHistoryCommand) (chat.History, error)
	Search(ctx context.Context, chatID, userID, query string) ([]chat.Message, error)
	LookupUser(ctx context.Context, userID string) chat.User
}

type IMessageService interface {
	CreateMessage(ctx context.Context, cmd chat.CreateMessageCommand) (chat.Message, error)
}

// ITokenValidator resolves a bearer token into a user id.
type ITokenValidator interface {
	Validate(token string) (string, error)
}
