package event

const (
	JoinChatName         Name = "joinChat"
	LeaveChatName        Name = "leaveChat"
	TypingName           Name = "typing"
	StopTypingName       Name = "stopTyping"
	MarkMessagesSeenName Name = "markMessagesSeen"
)

// Inbound is an event received from a connection.
type Inbound interface {
	Name() Name
}

type JoinChat struct {
	ChatID string
}

func (JoinChat) Name() Name { return JoinChatName }

type LeaveChat struct {
	ChatID string
}

func (LeaveChat) Name() Name { return LeaveChatName }

type Typing struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

func (Typing) Name() Name { return TypingName }

type StopTyping struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

func (StopTyping) Name() Name { return StopTypingName }

type MarkMessagesSeen struct {
	ChatID     string   `json:"chatId"`
	MessageIDs []string `json:"messageIds"`
}

func (MarkMessagesSeen) Name() Name { return MarkMessagesSeenName }
