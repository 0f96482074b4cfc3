package runtime

import (
	"sort"
	"sync"
)

type Set map[string]struct{}

// Presence maps each online user to the set of its live connections.
// A user is online while at least one connection is registered.
type Presence struct {
	mu    sync.RWMutex
	users map[string]Set // map user -> connections
}

func NewPresence() *Presence {
	return &Presence{users: make(map[string]Set)}
}

// Add registers a connection for the user.
// It reports true when the user had no connection before.
func (p *Presence) Add(userID, connID string) bool {
	if userID == "" || connID == "" {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	conns, ok := p.users[userID]
	if !ok {
		conns = make(Set)
		p.users[userID] = conns
	}
	conns[connID] = struct{}{}
	return !ok
}

// Remove forgets a connection of the user.
// It reports true when the last connection went away.
// Removing an unknown connection is a no-op.
func (p *Presence) Remove(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	conns, ok := p.users[userID]
	if !ok {
		return false
	}
	if _, exists := conns[connID]; !exists {
		return false
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(p.users, userID)
		return true
	}
	return false
}

func (p *Presence) ConnectionsOf(userID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conns := p.users[userID]
	ids := make([]string, 0, len(conns))
	for id := range conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (p *Presence) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.users[userID]
	return ok
}

// OnlineUsers returns a sorted snapshot of the online user ids.
func (p *Presence) OnlineUsers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.users))
	for id := range p.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
