package chat

import (
	"strings"
	"time"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
)

// Message belongs to exactly one chat.
// Seen only ever goes from false to true, SeenAt being set in the same write.
type Message struct {
	ID        string      `json:"_id"`
	ChatID    string      `json:"chatId"`
	Sender    string      `json:"sender"`
	Text      string      `json:"text"`
	Image     *Image      `json:"image,omitempty"`
	Type      MessageType `json:"messageType"`
	Lang      string      `json:"lang,omitempty"`
	Seen      bool        `json:"seen"`
	SeenAt    *time.Time  `json:"seenAt"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Image references a stored picture.
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// ClassifyMessage derives the message type from the attachment, never from the client.
func ClassifyMessage(image *Image) MessageType {
	if image != nil {
		return MessageTypeImage
	}
	return MessageTypeText
}

// IsEmpty reports whether a message would carry neither text nor image.
func IsEmpty(text string, hasImage bool) bool {
	return strings.TrimSpace(text) == "" && !hasImage
}

// MarkSeen flips the message to seen. It returns false when the message was already seen
// or was sent by the viewer.
func (m *Message) MarkSeen(viewerID string, at time.Time) bool {
	if m.Seen || m.Sender == viewerID {
		return false
	}
	m.Seen = true
	m.SeenAt = &at
	return true
}
