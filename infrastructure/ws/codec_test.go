package ws

import (
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Run("empty online list is an empty array", func(t *testing.T) {
		req := require.New(t)
		frame, err := Encode(event.OnlineUsers{})
		req.NoError(err)
		req.JSONEq(`{"event":"getOnlineUser","data":[]}`, string(frame))
	})

	t.Run("new message carries the message itself", func(t *testing.T) {
		req := require.New(t)
		createdAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		msg := chat.Message{ID: "m1", ChatID: "c1", Sender: "alice", Text: "hi", Type: chat.MessageTypeText, CreatedAt: createdAt}
		frame, err := Encode(event.NewMessage{Message: msg})
		req.NoError(err)
		req.JSONEq(`{"event":"newMessage","data":{
			"_id":"m1","chatId":"c1","sender":"alice","text":"hi","messageType":"text",
			"seen":false,"seenAt":null,"createdAt":"2024-01-02T03:04:05Z"}}`, string(frame))
	})

	t.Run("seen notification", func(t *testing.T) {
		req := require.New(t)
		frame, err := Encode(event.MessagesSeen{ChatID: "c1", SeenBy: "bob", MessageIDs: []string{"m1"}})
		req.NoError(err)
		req.JSONEq(`{"event":"messagesSeen","data":{"chatId":"c1","seenBy":"bob","messageIds":["m1"]}}`, string(frame))
	})
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  event.Inbound
	}{
		{"join with bare id", `{"event":"joinChat","data":"c1"}`, event.JoinChat{ChatID: "c1"}},
		{"join with object", `{"event":"joinChat","data":{"chatId":"c1"}}`, event.JoinChat{ChatID: "c1"}},
		{"leave", `{"event":"leaveChat","data":"c1"}`, event.LeaveChat{ChatID: "c1"}},
		{"typing", `{"event":"typing","data":{"chatId":"c1","userId":"bob"}}`, event.Typing{ChatID: "c1", UserID: "bob"}},
		{"stop typing", `{"event":"stopTyping","data":{"chatId":"c1"}}`, event.StopTyping{ChatID: "c1"}},
		{"mark seen", `{"event":"markMessagesSeen","data":{"chatId":"c1","messageIds":["m1","m2"]}}`,
			event.MarkMessagesSeen{ChatID: "c1", MessageIDs: []string{"m1", "m2"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.frame))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Rejects(t *testing.T) {
	req := require.New(t)

	_, err := Decode([]byte(`not json`))
	req.ErrorIs(err, errors.ErrInvalidArgument)

	_, err = Decode([]byte(`{"event":"sendMessage","data":{}}`))
	req.ErrorIs(err, errors.ErrUnknownEvent)

	_, err = Decode([]byte(`{"event":"typing"}`))
	req.ErrorIs(err, errors.ErrInvalidArgument)

	_, err = Decode([]byte(`{"event":"markMessagesSeen","data":"oops"}`))
	req.ErrorIs(err, errors.ErrInvalidArgument)
}
