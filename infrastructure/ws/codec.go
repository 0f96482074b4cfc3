package ws

import (
	"chat-relay/domain/event"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"strings"
)

// envelope is the frame exchanged on the socket in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode wraps a server event into a text frame.
func Encode(evt event.Event) ([]byte, error) {
	data, err := json.Marshal(event.Payload(evt))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", evt.Name(), err)
	}
	return json.Marshal(envelope{Event: string(evt.Name()), Data: data})
}

// Decode reads a client frame.
// Room events accept the chat id either as a bare string or as {"chatId": ...}.
func Decode(frame []byte) (event.Inbound, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed frame", errors.ErrInvalidArgument)
	}

	switch event.Name(env.Event) {
	case event.JoinChatName:
		chatID, err := decodeChatID(env.Data)
		return event.JoinChat{ChatID: chatID}, err
	case event.LeaveChatName:
		chatID, err := decodeChatID(env.Data)
		return event.LeaveChat{ChatID: chatID}, err
	case event.TypingName:
		var typing event.Typing
		return typing, decodeData(env.Data, &typing)
	case event.StopTypingName:
		var stop event.StopTyping
		return stop, decodeData(env.Data, &stop)
	case event.MarkMessagesSeenName:
		var seen event.MarkMessagesSeen
		return seen, decodeData(env.Data, &seen)
	default:
		return nil, fmt.Errorf("%w %q", errors.ErrUnknownEvent, env.Event)
	}
}

func decodeChatID(data json.RawMessage) (string, error) {
	var chatID string
	if err := json.Unmarshal(data, &chatID); err == nil {
		return strings.TrimSpace(chatID), nil
	}
	var payload struct {
		ChatID string `json:"chatId"`
	}
	if err := decodeData(data, &payload); err != nil {
		return "", err
	}
	return strings.TrimSpace(payload.ChatID), nil
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", errors.ErrInvalidArgument)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: malformed data", errors.ErrInvalidArgument)
	}
	return nil
}
