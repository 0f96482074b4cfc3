// Package api exposes the chat services over REST.
package api

import (
	"chat-relay/contract"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	Chats    contract.IChatService
	Messages contract.IMessageService
	Tokens   contract.ITokenValidator
	// Socket serves the websocket upgrade, left unmounted when nil.
	Socket   gin.HandlerFunc
	Gatherer prometheus.Gatherer
	// UploadsDir is served under /uploads when set.
	UploadsDir     string
	MaxUploadBytes int64
}

func NewRouter(log *slog.Logger, cfg Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog(log))
	if cfg.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	if cfg.UploadsDir != "" {
		router.Static("/uploads", cfg.UploadsDir)
	}
	if cfg.Socket != nil {
		router.GET("/ws", cfg.Socket)
	}

	chats := &chatController{log: log, chats: cfg.Chats}
	messages := &messageController{log: log, chats: cfg.Chats, messages: cfg.Messages}

	v1 := router.Group("/api/v1", Authenticate(cfg.Tokens))
	v1.POST("/chat/new", chats.create)
	v1.GET("/chat/all", chats.list)
	v1.GET("/chat/:chatId/search", chats.search)
	v1.POST("/message", messages.send)
	v1.GET("/message/:chatId", messages.history)
	return router
}
