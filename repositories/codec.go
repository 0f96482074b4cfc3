package repositories

import (
	"chat-relay/domain/chat"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
)

const maxConflictRetries = 5

// Disk records are what Badger stores, encoded as CBOR.
// Times are kept as unix nanoseconds so a round trip is lossless.

type diskChat struct {
	ID           string    `cbor:"1,keyasint"`
	Users        [2]string `cbor:"2,keyasint"`
	LatestText   string    `cbor:"3,keyasint,omitempty"`
	LatestSender string    `cbor:"4,keyasint,omitempty"`
	HasLatest    bool      `cbor:"5,keyasint,omitempty"`
	CreatedAt    int64     `cbor:"6,keyasint"`
	UpdatedAt    int64     `cbor:"7,keyasint"`
}

type diskMessage struct {
	ID        string `cbor:"1,keyasint"`
	ChatID    string `cbor:"2,keyasint"`
	Sender    string `cbor:"3,keyasint"`
	Text      string `cbor:"4,keyasint,omitempty"`
	ImageURL  string `cbor:"5,keyasint,omitempty"`
	ImageID   string `cbor:"6,keyasint,omitempty"`
	Type      string `cbor:"7,keyasint"`
	Lang      string `cbor:"8,keyasint,omitempty"`
	Seen      bool   `cbor:"9,keyasint"`
	SeenAt    int64  `cbor:"10,keyasint,omitempty"`
	CreatedAt int64  `cbor:"11,keyasint"`
}

func encodeChat(c chat.Chat) ([]byte, error) {
	d := diskChat{
		ID:        c.ID,
		Users:     c.Users,
		CreatedAt: c.CreatedAt.UnixNano(),
		UpdatedAt: c.UpdatedAt.UnixNano(),
	}
	if c.LatestMessage != nil {
		d.HasLatest = true
		d.LatestText = c.LatestMessage.Text
		d.LatestSender = c.LatestMessage.Sender
	}
	return cbor.Marshal(d)
}

func decodeChat(b []byte) (chat.Chat, error) {
	var d diskChat
	if err := cbor.Unmarshal(b, &d); err != nil {
		return chat.Chat{}, err
	}
	c := chat.Chat{
		ID:        d.ID,
		Users:     d.Users,
		CreatedAt: time.Unix(0, d.CreatedAt).UTC(),
		UpdatedAt: time.Unix(0, d.UpdatedAt).UTC(),
	}
	if d.HasLatest {
		c.LatestMessage = &chat.LatestMessage{Text: d.LatestText, Sender: d.LatestSender}
	}
	return c, nil
}

func encodeMessage(m chat.Message) ([]byte, error) {
	d := diskMessage{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Sender:    m.Sender,
		Text:      m.Text,
		Type:      string(m.Type),
		Lang:      m.Lang,
		Seen:      m.Seen,
		CreatedAt: m.CreatedAt.UnixNano(),
	}
	if m.Image != nil {
		d.ImageURL = m.Image.URL
		d.ImageID = m.Image.PublicID
	}
	if m.SeenAt != nil {
		d.SeenAt = m.SeenAt.UnixNano()
	}
	return cbor.Marshal(d)
}

func decodeMessage(b []byte) (chat.Message, error) {
	var d diskMessage
	if err := cbor.Unmarshal(b, &d); err != nil {
		return chat.Message{}, err
	}
	m := chat.Message{
		ID:        d.ID,
		ChatID:    d.ChatID,
		Sender:    d.Sender,
		Text:      d.Text,
		Type:      chat.MessageType(d.Type),
		Lang:      d.Lang,
		Seen:      d.Seen,
		CreatedAt: time.Unix(0, d.CreatedAt).UTC(),
	}
	if d.ImageURL != "" {
		m.Image = &chat.Image{URL: d.ImageURL, PublicID: d.ImageID}
	}
	if d.SeenAt != 0 {
		seenAt := time.Unix(0, d.SeenAt).UTC()
		m.SeenAt = &seenAt
	}
	return m, nil
}

// update runs fn in a read-write transaction and replays it when Badger
// detects a conflicting concurrent commit. fn must reset its own outputs.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}
