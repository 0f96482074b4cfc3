package repositories

import (
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

// MessageRepository stores messages in Badger.
//
//	msg:{chatID}:{timestamp_padded}:{messageID} -> message record
//	msgid:{chatID}:{messageID}                  -> message key
type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// messageKey is formatted as "msg:{chat_id}:{timestamp_padded}:{id}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss when two messages arrive at the same nanosecond.
func messageKey(m chat.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", m.ChatID, m.CreatedAt.UnixNano(), m.ID))
}

func messagePrefix(chatID string) []byte {
	return []byte(fmt.Sprintf("msg:%s:", chatID))
}

func messageIDKey(chatID, messageID string) []byte {
	return []byte(fmt.Sprintf("msgid:%s:%s", chatID, messageID))
}

// Create persists the message and the chat summary in a single transaction.
// Either both are written or nothing is. It returns the updated chat.
func (r *MessageRepository) Create(ctx context.Context, msg chat.Message) (chat.Chat, error) {
	if err := ctx.Err(); err != nil {
		return chat.Chat{}, err
	}
	bytes, err := encodeMessage(msg)
	if err != nil {
		return chat.Chat{}, err
	}

	var updated chat.Chat
	err = update(r.db, func(txn *badger.Txn) error {
		c, err := getChat(txn, msg.ChatID)
		if err != nil {
			return err
		}
		key := messageKey(msg)
		if err = txn.Set(key, bytes); err != nil {
			return err
		}
		if err = txn.Set(messageIDKey(msg.ChatID, msg.ID), key); err != nil {
			return err
		}
		c.LatestMessage = lo.ToPtr(chat.Summarize(msg))
		c.UpdatedAt = msg.CreatedAt
		updated = c
		return putChat(txn, c)
	})
	if err != nil {
		return chat.Chat{}, err
	}
	return updated, nil
}

// GetMessages retrieves a page of messages of a chat, oldest first.
// Pages are read backwards from the newest message; the returned cursor points
// to the oldest message of the page and is nil once the beginning of the chat is reached.
func (r *MessageRepository) GetMessages(ctx context.Context, chatID string, cursor *string) ([]chat.Message, *string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	var messages []chat.Message
	var nextCursor *string
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(chatID)
		prefixLen := len(prefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Start after the newest possible key msg:{chat}:9999999999999999999
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()[prefixLen:]) == *cursor {
			it.Next()
		}

		var lastKey string
		for ; it.ValidForPrefix(prefix); it.Next() {
			if r.limitMessages != nil && len(messages) == *r.limitMessages {
				r.log.Debug("Maximum of messages reached", "limit", *r.limitMessages)
				nextCursor = lo.ToPtr(lastKey)
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				m, err := decodeMessage(value)
				if err != nil {
					return err
				}
				messages = append(messages, m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	slices.Reverse(messages)
	return messages, nextCursor, nil
}

// FindByIDs returns the messages of the chat matching ids. Unknown ids are skipped.
func (r *MessageRepository) FindByIDs(ctx context.Context, chatID string, ids []string) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var messages []chat.Message
	err := r.db.View(func(txn *badger.Txn) error {
		found, err := findByIDs(txn, chatID, ids)
		messages = lo.Map(found, func(s storedMessage, _ int) chat.Message { return s.message })
		return err
	})
	return messages, err
}

// CountUnseen counts the messages of the chat not sent by viewerID and not seen yet.
func (r *MessageRepository) CountUnseen(ctx context.Context, chatID, viewerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count := 0
	err := r.db.View(func(txn *badger.Txn) error {
		stored, err := scanChat(txn, chatID)
		if err != nil {
			return err
		}
		count = lo.CountBy(stored, func(s storedMessage) bool {
			return s.message.Sender != viewerID && !s.message.Seen
		})
		return nil
	})
	return count, err
}

// MarkSeen flips to seen every message of the chat not sent by viewerID and not seen yet,
// restricted to ids when given. All flips share the same timestamp and commit together.
// Concurrent calls over the same messages conflict in Badger and are replayed,
// so a message is reported as flipped by one call only.
func (r *MessageRepository) MarkSeen(ctx context.Context, chatID, viewerID string, ids []string, at time.Time) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var flipped []string
	err := update(r.db, func(txn *badger.Txn) error {
		flipped = nil
		var stored []storedMessage
		var err error
		if len(ids) == 0 {
			stored, err = scanChat(txn, chatID)
		} else {
			stored, err = findByIDs(txn, chatID, ids)
		}
		if err != nil {
			return err
		}

		for _, s := range stored {
			if !s.message.MarkSeen(viewerID, at) {
				continue
			}
			bytes, err := encodeMessage(s.message)
			if err != nil {
				return err
			}
			if err = txn.Set(s.key, bytes); err != nil {
				return err
			}
			flipped = append(flipped, s.message.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return flipped, nil
}

type storedMessage struct {
	key     []byte
	message chat.Message
}

// scanChat reads every message of a chat, oldest first.
// The iterator is closed before the caller writes anything back.
func scanChat(txn *badger.Txn, chatID string) ([]storedMessage, error) {
	prefix := messagePrefix(chatID)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	var stored []storedMessage
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		value, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		m, err := decodeMessage(value)
		if err != nil {
			return nil, err
		}
		stored = append(stored, storedMessage{key: item.KeyCopy(nil), message: m})
	}
	return stored, nil
}

func findByIDs(txn *badger.Txn, chatID string, ids []string) ([]storedMessage, error) {
	var stored []storedMessage
	for _, id := range lo.Uniq(ids) {
		item, err := txn.Get(messageIDKey(chatID, id))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		item, err = txn.Get(key)
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("message %s: %w", id, errors.ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		m, err := decodeMessage(value)
		if err != nil {
			return nil, err
		}
		stored = append(stored, storedMessage{key: key, message: m})
	}
	return stored, nil
}
