package server

import (
	"chat-relay/domain/event"
	"context"
	stderrors "errors"
	"sync"

	"github.com/google/uuid"
)

var errStreamTooSlow = stderrors.New("subscriber buffer exceeded")

// streamSink is the connection of a gRPC subscriber.
// Consume is called by the delivery side, the Subscribe handler drains events.
type streamSink struct {
	id     string
	userID string
	events chan event.Event
	once   sync.Once
	closed chan struct{}
}

func newStreamSink(userID string, bufferSize int) *streamSink {
	return &streamSink{
		id:     uuid.NewString(),
		userID: userID,
		events: make(chan event.Event, bufferSize),
		closed: make(chan struct{}),
	}
}

func (s *streamSink) ID() string     { return s.id }
func (s *streamSink) UserID() string { return s.userID }

// Consume redirects the event to the owner of the stream.
// A full buffer closes the sink, the subscriber has to reconnect.
func (s *streamSink) Consume(ctx context.Context, e event.Event) error {
	select {
	case <-s.closed:
		return errStreamTooSlow
	case <-ctx.Done():
		return ctx.Err()
	case s.events <- e:
		return nil
	default:
		s.close()
		return errStreamTooSlow
	}
}

func (s *streamSink) close() {
	s.once.Do(func() { close(s.closed) })
}
