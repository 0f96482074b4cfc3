package api

import (
	"bytes"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fakeTokens map[string]string

func (f fakeTokens) Validate(token string) (string, error) {
	if userID, ok := f[token]; ok {
		return userID, nil
	}
	return "", errors.ErrInvalidToken
}

type fakeChats struct {
	existing  map[string]bool
	summaries []chat.Summary
	history   chat.History
	lastCmd   chat.GetHistoryCommand
	searchErr error
}

func (f *fakeChats) CreateOrGetChat(_ context.Context, cmd chat.CreateChatCommand) (chat.Chat, bool, error) {
	if cmd.OtherUserID == "" || cmd.OtherUserID == cmd.UserID {
		return chat.Chat{}, false, errors.ErrSameUser
	}
	c, err := chat.NewChat("c1", cmd.UserID, cmd.OtherUserID, time.Unix(0, 0).UTC())
	if err != nil {
		return chat.Chat{}, false, err
	}
	isNew := !f.existing[cmd.OtherUserID]
	f.existing[cmd.OtherUserID] = true
	return c, isNew, nil
}

func (f *fakeChats) ListChats(context.Context, string) ([]chat.Summary, error) {
	return f.summaries, nil
}

func (f *fakeChats) GetHistory(_ context.Context, cmd chat.GetHistoryCommand) (chat.History, error) {
	f.lastCmd = cmd
	if cmd.ChatID == "forbidden" {
		return chat.History{}, errors.ErrNotParticipant
	}
	return f.history, nil
}

func (f *fakeChats) Search(_ context.Context, chatID, _, query string) ([]chat.Message, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return []chat.Message{{ID: "m1", ChatID: chatID, Text: query}}, nil
}

func (f *fakeChats) LookupUser(_ context.Context, userID string) chat.User {
	return chat.User{ID: userID, Name: strings.ToUpper(userID)}
}

type fakeMessages struct {
	received chat.CreateMessageCommand
	image    []byte
}

func (f *fakeMessages) CreateMessage(_ context.Context, cmd chat.CreateMessageCommand) (chat.Message, error) {
	f.received = cmd
	if cmd.Image != nil {
		f.image, _ = io.ReadAll(cmd.Image.Content)
	}
	if chat.IsEmpty(cmd.Text, cmd.Image != nil) {
		return chat.Message{}, errors.ErrEmptyMessage
	}
	return chat.Message{ID: "m1", ChatID: cmd.ChatID, Sender: cmd.SenderID, Text: cmd.Text}, nil
}

func mustChat(t *testing.T, id, a, b string) chat.Chat {
	c, err := chat.NewChat(id, a, b, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	return c
}

type apiHarness struct {
	router   *gin.Engine
	chats    *fakeChats
	messages *fakeMessages
}

func newAPIHarness() *apiHarness {
	gin.SetMode(gin.TestMode)
	h := &apiHarness{
		chats:    &fakeChats{existing: map[string]bool{}},
		messages: &fakeMessages{},
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "chat_relay_test_total"}))
	h.router = NewRouter(logs.GetLoggerFromLevel(slog.LevelDebug), Config{
		Chats:    h.chats,
		Messages: h.messages,
		Tokens:   fakeTokens{"alice-token": "alice"},
		Gatherer: reg,
	})
	return h
}

func (h *apiHarness) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, r)
	return w
}

func authed(method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	r.Header.Set("Authorization", "Bearer alice-token")
	return r
}

func TestRouter_Authentication(t *testing.T) {
	h := newAPIHarness()

	t.Run("missing token", func(t *testing.T) {
		w := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/chat/all", nil))
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/chat/all", nil)
		r.Header.Set("Authorization", "Bearer forged")
		w := h.do(r)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("public routes", func(t *testing.T) {
		w := h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.NotEmpty(t, w.Header().Get(requestIDHeader))

		w = h.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), "chat_relay_test_total")
	})
}

func TestRouter_CreateChat(t *testing.T) {
	req := require.New(t)
	h := newAPIHarness()
	body := func() io.Reader { return strings.NewReader(`{"otherUserId":"bob"}`) }

	// First call creates the chat
	w := h.do(authed(http.MethodPost, "/api/v1/chat/new", body()))
	req.Equal(http.StatusCreated, w.Code)
	var res struct {
		ChatID string    `json:"chatId"`
		Chat   chat.Chat `json:"chat"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &res))
	req.Equal("c1", res.ChatID)
	req.ElementsMatch([]string{"alice", "bob"}, res.Chat.Users[:])

	// Second call returns the same chat
	w = h.do(authed(http.MethodPost, "/api/v1/chat/new", body()))
	req.Equal(http.StatusOK, w.Code)

	// Chatting with oneself is rejected
	w = h.do(authed(http.MethodPost, "/api/v1/chat/new", strings.NewReader(`{"otherUserId":"alice"}`)))
	req.Equal(http.StatusBadRequest, w.Code)
}

func TestRouter_ListChats(t *testing.T) {
	req := require.New(t)
	h := newAPIHarness()
	h.chats.summaries = []chat.Summary{{
		User:        chat.User{ID: "bob", Name: "Bob"},
		Chat:        mustChat(t, "c1", "alice", "bob"),
		UnseenCount: 3,
	}}

	w := h.do(authed(http.MethodGet, "/api/v1/chat/all", nil))
	req.Equal(http.StatusOK, w.Code)
	var res struct {
		Chats []struct {
			User chat.User `json:"user"`
			Chat struct {
				ID          string `json:"_id"`
				UnseenCount int    `json:"unseenCount"`
			} `json:"chat"`
		} `json:"chats"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &res))
	req.Len(res.Chats, 1)
	req.Equal("bob", res.Chats[0].User.ID)
	req.Equal("c1", res.Chats[0].Chat.ID)
	req.Equal(3, res.Chats[0].Chat.UnseenCount)
}

func TestRouter_SendMessage(t *testing.T) {
	t.Run("text and image", func(t *testing.T) {
		req := require.New(t)
		h := newAPIHarness()

		var body bytes.Buffer
		form := multipart.NewWriter(&body)
		req.NoError(form.WriteField("chatId", "c1"))
		req.NoError(form.WriteField("text", "look"))
		part, err := form.CreateFormFile("image", "cat.png")
		req.NoError(err)
		_, err = part.Write([]byte("png-bytes"))
		req.NoError(err)
		req.NoError(form.Close())

		r := authed(http.MethodPost, "/api/v1/message", &body)
		r.Header.Set("Content-Type", form.FormDataContentType())
		w := h.do(r)

		req.Equal(http.StatusCreated, w.Code)
		req.Equal("alice", h.messages.received.SenderID)
		req.Equal("c1", h.messages.received.ChatID)
		req.Equal("cat.png", h.messages.received.Image.Filename)
		req.Equal([]byte("png-bytes"), h.messages.image)
		req.Contains(w.Body.String(), `"sender":{"_id":"alice","name":"ALICE"`)
	})

	t.Run("empty message", func(t *testing.T) {
		h := newAPIHarness()
		r := authed(http.MethodPost, "/api/v1/message", strings.NewReader("chatId=c1&text=+"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := h.do(r)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Nil(t, h.messages.received.Image)
	})
}

func TestRouter_History(t *testing.T) {
	req := require.New(t)
	h := newAPIHarness()
	h.chats.history = chat.History{Messages: []chat.Message{}, OtherUser: chat.User{ID: "bob"}}

	w := h.do(authed(http.MethodGet, "/api/v1/message/c1?cursor=abc", nil))
	req.Equal(http.StatusOK, w.Code)
	req.Equal("alice", h.chats.lastCmd.UserID)
	req.Equal("abc", *h.chats.lastCmd.Cursor)
	req.JSONEq(`{"messages":[],"otherUser":{"_id":"bob","name":"","email":""}}`, w.Body.String())

	w = h.do(authed(http.MethodGet, "/api/v1/message/forbidden", nil))
	req.Equal(http.StatusForbidden, w.Code)
	req.Nil(h.chats.lastCmd.Cursor)
}

func TestRouter_Search(t *testing.T) {
	req := require.New(t)
	h := newAPIHarness()

	w := h.do(authed(http.MethodGet, "/api/v1/chat/c1/search?q=hello", nil))
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), `"text":"hello"`)

	w = h.do(authed(http.MethodGet, "/api/v1/chat/c1/search", nil))
	req.Equal(http.StatusBadRequest, w.Code)

	// Storage failures are not leaked
	h.chats.searchErr = io.ErrUnexpectedEOF
	w = h.do(authed(http.MethodGet, "/api/v1/chat/c1/search?q=hello", nil))
	req.Equal(http.StatusInternalServerError, w.Code)
	req.JSONEq(`{"error":"internal error"}`, w.Body.String())
}
