package repositories

import (
	"chat-relay/domain/chat"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("message", func(t *testing.T) {
		req := require.New(t)
		value, err := encodeMessage(chat.Message{ID: "m1", ChatID: "c1", Sender: "alice", Text: "hi", Type: chat.MessageTypeText, Seen: true, CreatedAt: at})
		req.NoError(err)

		record := Describe("msg:c1:0000000000000000001:m1", value)
		req.Equal("MSG", record.Kind)
		req.Equal("m1", record.ID)
		req.Equal(at, record.At)
		req.Equal("alice [text] hi (seen)", record.Detail)
	})

	t.Run("chat", func(t *testing.T) {
		req := require.New(t)
		c, err := chat.NewChat("c1", "bob", "alice", at)
		req.NoError(err)
		c.LatestMessage = &chat.LatestMessage{Text: "hi", Sender: "alice"}
		value, err := encodeChat(c)
		req.NoError(err)

		record := Describe("chat:c1", value)
		req.Equal("CHAT", record.Kind)
		req.Equal("alice <-> bob | alice: hi", record.Detail)
	})

	t.Run("index and garbage", func(t *testing.T) {
		req := require.New(t)
		req.Equal("c1", Describe("pair:5:alice:bob", []byte("c1")).Detail)
		req.Equal("Size: 3 bytes", Describe("msg:c1:x:y", []byte{0xff, 0x00, 0x01}).Detail)
	})
}
