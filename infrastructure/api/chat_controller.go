package api

import (
	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type chatController struct {
	log   *slog.Logger
	chats contract.IChatService
}

type createChatRequest struct {
	OtherUserID string `json:"otherUserId"`
}

// create answers 201 when the chat is new and 200 when it already existed.
func (h *chatController) create(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, fmt.Errorf("%w: %v", errors.ErrInvalidArgument, err))
		return
	}

	created, isNew, err := h.chats.CreateOrGetChat(c.Request.Context(), chat.CreateChatCommand{
		UserID:      currentUser(c),
		OtherUserID: req.OtherUserID,
	})
	if err != nil {
		abort(c, err)
		return
	}

	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"chatId": created.ID, "chat": created})
}

type chatEntry struct {
	User chat.User `json:"user"`
	Chat chatView  `json:"chat"`
}

type chatView struct {
	chat.Chat
	UnseenCount int `json:"unseenCount"`
}

func (h *chatController) list(c *gin.Context) {
	summaries, err := h.chats.ListChats(c.Request.Context(), currentUser(c))
	if err != nil {
		abort(c, err)
		return
	}
	entries := make([]chatEntry, 0, len(summaries))
	for _, s := range summaries {
		entries = append(entries, chatEntry{User: s.User, Chat: chatView{Chat: s.Chat, UnseenCount: s.UnseenCount}})
	}
	c.JSON(http.StatusOK, gin.H{"chats": entries})
}

func (h *chatController) search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		abort(c, fmt.Errorf("%w: q is required", errors.ErrInvalidArgument))
		return
	}
	messages, err := h.chats.Search(c.Request.Context(), c.Param("chatId"), currentUser(c), query)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
