package chat

import "io"

// CreateChatCommand asks for the chat shared by two users, creating it if needed.
type CreateChatCommand struct {
	UserID      string `validate:"required"`
	OtherUserID string `validate:"required,nefield=UserID"`
}

// CreateMessageCommand carries an outgoing message. Image is nil for text messages.
type CreateMessageCommand struct {
	ChatID   string
	SenderID string
	Text     string
	Image    *ImageUpload
}

// ImageUpload is a raw picture received from a client, not yet stored.
type ImageUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// GetHistoryCommand opens a chat for a participant. It triggers the seen synchronization.
type GetHistoryCommand struct {
	ChatID string
	UserID string
	Cursor *string
}
