// Package chat contains the core concepts of a two-party conversation.
// No runtime, network or storage logic should be added here.
package chat

import (
	"chat-relay/errors"
	"sort"
	"time"
)

// ImagePlaceholder is the chat summary text of an image-only message.
const ImagePlaceholder = "📸 Image"

// Chat is a conversation between exactly two users.
// Users are kept sorted so that a pair maps to a single chat whatever the order of creation.
type Chat struct {
	ID            string         `json:"_id"`
	Users         [2]string      `json:"users"`
	LatestMessage *LatestMessage `json:"latestMessage"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// LatestMessage is the denormalized summary shown in chat lists.
type LatestMessage struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

// NewChat validates the pair and returns a chat with sorted users.
func NewChat(id, userA, userB string, at time.Time) (Chat, error) {
	users, err := Pair(userA, userB)
	if err != nil {
		return Chat{}, err
	}
	return Chat{ID: id, Users: users, CreatedAt: at, UpdatedAt: at}, nil
}

// Pair returns the order-insensitive representation of two distinct users.
func Pair(userA, userB string) ([2]string, error) {
	if userA == "" || userB == "" {
		return [2]string{}, errors.ErrMissingUser
	}
	if userA == userB {
		return [2]string{}, errors.ErrSameUser
	}
	users := []string{userA, userB}
	sort.Strings(users)
	return [2]string{users[0], users[1]}, nil
}

func (c Chat) HasParticipant(userID string) bool {
	return userID != "" && (c.Users[0] == userID || c.Users[1] == userID)
}

// OtherParticipant returns the user facing userID, or "" when userID is not part of the chat.
func (c Chat) OtherParticipant(userID string) string {
	switch userID {
	case c.Users[0]:
		return c.Users[1]
	case c.Users[1]:
		return c.Users[0]
	default:
		return ""
	}
}

// Summarize builds the latest message summary of a freshly created message.
func Summarize(m Message) LatestMessage {
	text := m.Text
	if m.Type == MessageTypeImage {
		text = ImagePlaceholder
	}
	return LatestMessage{Text: text, Sender: m.Sender}
}

// Summary is a chat as listed for one of its participants.
type Summary struct {
	User        User `json:"user"`
	Chat        Chat `json:"chat"`
	UnseenCount int  `json:"unseenCount"`
}

// User is the public profile of a participant, resolved from the user service.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UnknownUser is returned when the user service cannot resolve a participant.
func UnknownUser(id string) User {
	return User{ID: id, Name: "Unknown User"}
}

// History is one page of a chat as seen by one of its participants.
type History struct {
	Messages  []Message `json:"messages"`
	OtherUser User      `json:"otherUser"`
	Cursor    *string   `json:"cursor,omitempty"`
}
