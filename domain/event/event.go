// Package event defines what travels on the real-time channel.
// Server events are pushed to connections, inbound events are received from them.
package event

import (
	"chat-relay/domain/chat"
)

type Name string

const (
	OnlineUsersName       Name = "getOnlineUser"
	NewMessageName        Name = "newMessage"
	UserTypingName        Name = "userTyping"
	UserStoppedTypingName Name = "userStoppedTyping"
	MessagesSeenName      Name = "messagesSeen"
	ErrorName             Name = "error"
)

// Event is pushed from the server to a connection.
type Event interface {
	Name() Name
}

// OnlineUsers is the full set of connected user ids.
type OnlineUsers struct {
	UserIDs []string
}

func (OnlineUsers) Name() Name { return OnlineUsersName }

type NewMessage struct {
	Message chat.Message
}

func (NewMessage) Name() Name { return NewMessageName }

type UserTyping struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

func (UserTyping) Name() Name { return UserTypingName }

type UserStoppedTyping struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

func (UserStoppedTyping) Name() Name { return UserStoppedTypingName }

// MessagesSeen tells a sender that SeenBy has read MessageIDs.
type MessagesSeen struct {
	ChatID     string   `json:"chatId"`
	SeenBy     string   `json:"seenBy"`
	MessageIDs []string `json:"messageIds"`
}

func (MessagesSeen) Name() Name { return MessagesSeenName }

// Failure reports a rejected inbound event to its connection only.
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (Failure) Name() Name { return ErrorName }

// Payload returns the data part of the event as sent on the wire.
func Payload(e Event) any {
	switch evt := e.(type) {
	case OnlineUsers:
		if evt.UserIDs == nil {
			return []string{}
		}
		return evt.UserIDs
	case NewMessage:
		return evt.Message
	default:
		return evt
	}
}
