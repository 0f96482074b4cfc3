package ws

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	defaultReadTimeout = 60 * time.Second
	maxFrameSize       = 64 << 10
)

type Handler struct {
	log        *slog.Logger
	gateway    contract.IGateway
	tokens     contract.ITokenValidator
	upgrader   websocket.Upgrader
	bufferSize int
}

func NewHandler(log *slog.Logger, gateway contract.IGateway, tokens contract.ITokenValidator, bufferSize int) *Handler {
	return &Handler{
		log:     log,
		gateway: gateway,
		tokens:  tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		bufferSize: bufferSize,
	}
}

// Serve upgrades the request and processes frames until the client disconnects.
// The user comes from ?token=, then ?userId=. Without either the connection is anonymous.
func (h *Handler) Serve(c *gin.Context) {
	userID, err := h.identify(c)
	if err != nil {
		c.JSON(errors.MapToHTTPStatus(err), gin.H{"error": errors.PublicMessage(err)})
		return
	}

	socket, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the response
		h.log.Debug("Websocket upgrade failed", "error", err)
		return
	}

	conn := NewConnection(h.log, userID, socket, h.bufferSize)
	conn.Start()

	// The session outlives the HTTP request handling
	ctx := context.WithoutCancel(c.Request.Context())
	h.gateway.Connect(ctx, conn)
	defer func() {
		h.gateway.Disconnect(ctx, conn)
		conn.Close(websocket.CloseNormalClosure, "session closed")
	}()

	h.readLoop(ctx, conn, socket)
}

func (h *Handler) identify(c *gin.Context) (string, error) {
	if token := c.Query("token"); token != "" {
		if h.tokens == nil {
			return "", errors.ErrInvalidToken
		}
		return h.tokens.Validate(token)
	}
	return c.Query("userId"), nil
}

func (h *Handler) readLoop(ctx context.Context, conn *Connection, socket *websocket.Conn) {
	socket.SetReadLimit(maxFrameSize)
	_ = socket.SetReadDeadline(time.Now().Add(defaultReadTimeout))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(defaultReadTimeout))
	})

	for {
		_, frame, err := socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) &&
				!stderrors.Is(err, websocket.ErrCloseSent) {
				h.log.Debug("Websocket read failed", "connection", conn.ID(), "error", err)
			}
			return
		}
		_ = socket.SetReadDeadline(time.Now().Add(defaultReadTimeout))

		in, err := Decode(frame)
		if err == nil {
			err = h.gateway.Handle(ctx, conn, in)
		}
		if err != nil {
			h.reply(ctx, conn, err)
		}
	}
}

// reply reports a rejected frame to its own connection only.
func (h *Handler) reply(ctx context.Context, conn *Connection, err error) {
	failure := event.Failure{Code: failureCode(err), Message: errors.PublicMessage(err)}
	if sendErr := conn.Consume(ctx, failure); sendErr != nil {
		h.log.Debug("Error frame not delivered", "connection", conn.ID(), "error", sendErr)
	}
}

func failureCode(err error) string {
	switch errors.MapToHTTPStatus(err) {
	case http.StatusBadRequest:
		return "invalid_argument"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "internal"
	}
}
