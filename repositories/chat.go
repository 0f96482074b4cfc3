package repositories

import (
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ChatRepository stores chats in Badger.
//
//	chat:{id}                          -> chat record
//	pair:{len(userA)}:{userA}:{userB}  -> chat id, users sorted
//	userchat:{len(user)}:{user}:{id}   -> empty, lists the chats of a user
//
// User ids are opaque and may contain ':', the length prefix keeps the keys of
// two different users or pairs from overlapping.
type ChatRepository struct {
	db  *badger.DB
	log *slog.Logger
	now func() time.Time
}

func NewChatRepository(db *badger.DB, log *slog.Logger) *ChatRepository {
	return &ChatRepository{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func chatKey(chatID string) []byte {
	return []byte("chat:" + chatID)
}

func pairKey(users [2]string) []byte {
	return []byte(fmt.Sprintf("pair:%d:%s:%s", len(users[0]), users[0], users[1]))
}

func userChatPrefix(userID string) []byte {
	return []byte(fmt.Sprintf("userchat:%d:%s:", len(userID), userID))
}

// CreateOrGet returns the chat of the unordered pair, creating it on first request.
// The boolean reports whether it was created by this call.
func (r *ChatRepository) CreateOrGet(ctx context.Context, userA, userB string) (chat.Chat, bool, error) {
	if err := ctx.Err(); err != nil {
		return chat.Chat{}, false, err
	}
	users, err := chat.Pair(userA, userB)
	if err != nil {
		return chat.Chat{}, false, err
	}

	var result chat.Chat
	var created bool
	err = update(r.db, func(txn *badger.Txn) error {
		created = false
		item, err := txn.Get(pairKey(users))
		switch {
		case err == nil:
			chatID, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result, err = getChat(txn, string(chatID))
			return err
		case !stderrors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		result, err = chat.NewChat(uuid.NewString(), users[0], users[1], r.now())
		if err != nil {
			return err
		}
		if err = putChat(txn, result); err != nil {
			return err
		}
		if err = txn.Set(pairKey(users), []byte(result.ID)); err != nil {
			return err
		}
		for _, user := range users {
			if err = txn.Set(append(userChatPrefix(user), result.ID...), nil); err != nil {
				return err
			}
		}
		created = true
		return nil
	})
	if err != nil {
		return chat.Chat{}, false, err
	}
	if created {
		r.log.Debug("Chat created", "chat", result.ID, "users", result.Users)
	}
	return result, created, nil
}

func (r *ChatRepository) Get(ctx context.Context, chatID string) (chat.Chat, error) {
	if err := ctx.Err(); err != nil {
		return chat.Chat{}, err
	}
	var result chat.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		result, err = getChat(txn, chatID)
		return err
	})
	return result, err
}

// ListForUser returns the chats of the user, most recently updated first.
func (r *ChatRepository) ListForUser(ctx context.Context, userID string) ([]chat.Chat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var chats []chat.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := userChatPrefix(userID)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false // The chat id is in the key
		it := txn.NewIterator(options)
		defer it.Close()

		var chatIDs []string
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			chatIDs = append(chatIDs, string(it.Item().Key()[len(prefix):]))
		}
		for _, chatID := range chatIDs {
			c, err := getChat(txn, chatID)
			if err != nil {
				return err
			}
			chats = append(chats, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats, nil
}

func getChat(txn *badger.Txn, chatID string) (chat.Chat, error) {
	if chatID == "" {
		return chat.Chat{}, errors.ErrMissingChatID
	}
	item, err := txn.Get(chatKey(chatID))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return chat.Chat{}, errors.ErrChatNotFound
	}
	if err != nil {
		return chat.Chat{}, err
	}
	var c chat.Chat
	err = item.Value(func(val []byte) error {
		c, err = decodeChat(val)
		return err
	})
	return c, err
}

func putChat(txn *badger.Txn, c chat.Chat) error {
	bytes, err := encodeChat(c)
	if err != nil {
		return err
	}
	return txn.Set(chatKey(c.ID), bytes)
}
