package api

import (
	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type messageController struct {
	log      *slog.Logger
	chats    contract.IChatService
	messages contract.IMessageService
}

// send reads a multipart form with chatId, text and an optional image file.
func (h *messageController) send(c *gin.Context) {
	cmd := chat.CreateMessageCommand{
		ChatID:   c.PostForm("chatId"),
		SenderID: currentUser(c),
		Text:     c.PostForm("text"),
	}

	header, err := c.FormFile("image")
	switch {
	case err == nil:
		file, err := header.Open()
		if err != nil {
			abort(c, fmt.Errorf("%w: unreadable image", errors.ErrInvalidArgument))
			return
		}
		defer file.Close()
		cmd.Image = &chat.ImageUpload{Filename: header.Filename, Size: header.Size, Content: file}
	case stderrors.Is(err, http.ErrMissingFile), stderrors.Is(err, http.ErrNotMultipart):
		// text only
	default:
		abort(c, fmt.Errorf("%w: %v", errors.ErrInvalidArgument, err))
		return
	}

	msg, err := h.messages.CreateMessage(c.Request.Context(), cmd)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg, "sender": h.chats.LookupUser(c.Request.Context(), msg.Sender)})
}

// history opens the chat for the caller, which marks the other participant's messages seen.
func (h *messageController) history(c *gin.Context) {
	cmd := chat.GetHistoryCommand{ChatID: c.Param("chatId"), UserID: currentUser(c)}
	if cursor := c.Query("cursor"); cursor != "" {
		cmd.Cursor = lo.ToPtr(cursor)
	}
	history, err := h.chats.GetHistory(c.Request.Context(), cmd)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
