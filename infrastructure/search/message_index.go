package search

import (
	"chat-relay/domain/chat"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blugelabs/bluge"
)

const (
	fieldID     = "_id"
	fieldText   = "text"
	fieldChatID = "chat_id"
	fieldSender = "sender"
	fieldLang   = "lang"
)

// MessageIndex is the full-text index of message text, scoped per chat.
// Badger stays the source of truth, the index only returns message ids.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

// Index adds or replaces the message document. Image-only messages have nothing to index.
func (i *MessageIndex) Index(msg chat.Message) error {
	if strings.TrimSpace(msg.Text) == "" {
		return nil
	}
	doc := bluge.NewDocument(msg.ID).
		AddField(bluge.NewTextField(fieldText, msg.Text)).
		AddField(bluge.NewKeywordField(fieldChatID, msg.ChatID)).
		AddField(bluge.NewKeywordField(fieldSender, msg.Sender).StoreValue())
	if msg.Lang != "" {
		doc.AddField(bluge.NewKeywordField(fieldLang, msg.Lang).StoreValue())
	}
	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index message %s: %w", msg.ID, err)
	}
	return nil
}

// Search returns the ids of the best matching messages of the chat, best first.
func (i *MessageIndex) Search(ctx context.Context, chatID, query string, limit int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open index reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField(fieldText)).
		AddMust(bluge.NewTermQuery(chatID).SetField(fieldChatID))
	it, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}

	var ids []string
	match, err := it.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == fieldID {
				ids = append(ids, string(value))
				return false
			}
			return true
		})
		if err != nil {
			break
		}
		match, err = it.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("read search results: %w", err)
	}
	i.log.Debug("Messages searched", "chat", chatID, "hits", len(ids))
	return ids, nil
}
