package runtime

import (
	"chat-relay/contract"
	"sort"
	"sync"
)

// Registry resolves connection ids into live connections.
// Presence and Rooms only hold ids, the actual sink lives here in a single place.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]contract.Connection
}

func NewRegistry() *Registry {
	return &Registry{connections: make(map[string]contract.Connection)}
}

func (r *Registry) Attach(conn contract.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[conn.ID()] = conn
}

func (r *Registry) Detach(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.connections, connID)
}

func (r *Registry) Get(connID string) (contract.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.connections[connID]
	return conn, ok
}

// All returns the live connections ordered by id.
func (r *Registry) All() []contract.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]contract.Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		conns = append(conns, conn)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].ID() < conns[j].ID() })
	return conns
}
