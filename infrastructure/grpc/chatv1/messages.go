package chatv1

import (
	"chat-relay/domain/chat"
	"encoding/json"
)

type CreateOrGetChatRequest struct {
	OtherUserID string `json:"otherUserId"`
}

type CreateOrGetChatResponse struct {
	ChatID  string    `json:"chatId"`
	Chat    chat.Chat `json:"chat"`
	Created bool      `json:"created"`
}

// SendMessageRequest carries an optional image inline.
type SendMessageRequest struct {
	ChatID        string `json:"chatId"`
	Text          string `json:"text"`
	Image         []byte `json:"image,omitempty"`
	ImageFilename string `json:"imageFilename,omitempty"`
}

type SendMessageResponse struct {
	Message chat.Message `json:"message"`
	Sender  chat.User    `json:"sender"`
}

// MarkMessagesSeenRequest flips the given received messages to seen.
type MarkMessagesSeenRequest struct {
	ChatID     string   `json:"chatId"`
	MessageIDs []string `json:"messageIds"`
}

type GetChatHistoryRequest struct {
	ChatID string  `json:"chatId"`
	Cursor *string `json:"cursor,omitempty"`
}

type GetChatHistoryResponse struct {
	chat.History
}

// SubscribeRequest opens the real-time stream, joined to ChatIDs.
type SubscribeRequest struct {
	ChatIDs []string `json:"chatIds"`
}

// ServerEvent is a real-time event, shaped like the websocket frame.
type ServerEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
