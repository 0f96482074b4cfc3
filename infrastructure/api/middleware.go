package api

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID reuses the caller's request id or creates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func AccessLog(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString("request_id"))
	}
}

// Authenticate resolves the bearer token into the user id of the request context.
func Authenticate(tokens contract.ITokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || tokens == nil {
			abort(c, errors.ErrUnauthenticated)
			return
		}
		userID, err := tokens.Validate(auth.BearerToken(header))
		if err != nil {
			abort(c, err)
			return
		}
		c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	userID, _ := auth.UserIDFromContext(c.Request.Context())
	return userID
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errors.MapToHTTPStatus(err), gin.H{"error": errors.PublicMessage(err)})
}
