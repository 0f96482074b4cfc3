package runtime

import (
	"chat-relay/domain/event"
	"context"
	"sync"
)

type fakeConnection struct {
	id     string
	userID string
	err    error

	mu     sync.Mutex
	events []event.Event
}

func newFakeConnection(id, userID string) *fakeConnection {
	return &fakeConnection{id: id, userID: userID}
}

func (c *fakeConnection) ID() string     { return c.id }
func (c *fakeConnection) UserID() string { return c.userID }

func (c *fakeConnection) Consume(_ context.Context, e event.Event) error {
	if c.err != nil {
		return c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *fakeConnection) Events() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Event(nil), c.events...)
}

func (c *fakeConnection) Named(name event.Name) []event.Event {
	var out []event.Event
	for _, e := range c.Events() {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}
