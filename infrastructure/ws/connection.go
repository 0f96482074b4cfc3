package ws

import (
	"chat-relay/domain/event"
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var (
	ErrConnectionClosed = stderrors.New("connection closed")
	ErrBufferExceeded   = stderrors.New("connection buffer exceeded")
)

// Connection wraps a websocket and coordinates outbound writes via a buffered channel.
// It is safe for concurrent use, only the write loop touches the socket for writing.
type Connection struct {
	id     string
	userID string
	log    *slog.Logger

	ws     *websocket.Conn
	send   chan []byte
	once   sync.Once
	closed chan struct{}
}

func NewConnection(log *slog.Logger, userID string, ws *websocket.Conn, bufferSize int) *Connection {
	return &Connection{
		id:     uuid.NewString(),
		userID: userID,
		log:    log,
		ws:     ws,
		send:   make(chan []byte, bufferSize),
		closed: make(chan struct{}),
	}
}

func (c *Connection) ID() string     { return c.id }
func (c *Connection) UserID() string { return c.userID }

// Start launches the write loop. It must be called exactly once per connection.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Consume enqueues the event. A client too slow to drain its buffer is disconnected.
func (c *Connection) Consume(ctx context.Context, evt event.Event) error {
	payload, err := Encode(evt)
	if err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	case c.send <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return ErrBufferExceeded
	}
}

// Close terminates the connection and stops the write loop.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.closed)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.log.Debug("Write failed", "connection", c.id, "error", err)
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}
