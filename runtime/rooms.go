package runtime

import (
	"sort"
	"sync"
)

// Rooms tracks which connections joined which chat room.
// Joining is not checked against chat participation, delivery is keyed on it only for broadcasts.
type Rooms struct {
	mu      sync.RWMutex
	members map[string]Set // map chat -> connections
	joined  map[string]Set // map connection -> chats
}

func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[string]Set),
		joined:  make(map[string]Set),
	}
}

// Join is idempotent.
func (r *Rooms) Join(chatID, connID string) {
	if chatID == "" || connID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[chatID]; !ok {
		r.members[chatID] = make(Set)
	}
	r.members[chatID][connID] = struct{}{}

	if _, ok := r.joined[connID]; !ok {
		r.joined[connID] = make(Set)
	}
	r.joined[connID][chatID] = struct{}{}
}

// Leave is a no-op when the connection is not in the room.
func (r *Rooms) Leave(chatID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leave(chatID, connID)
}

// LeaveAll removes the connection from every room it joined.
func (r *Rooms) LeaveAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for chatID := range r.joined[connID] {
		r.leave(chatID, connID)
	}
	delete(r.joined, connID)
}

func (r *Rooms) leave(chatID, connID string) {
	if members, ok := r.members[chatID]; ok {
		delete(members, connID)
		// No empty room kept around
		if len(members) == 0 {
			delete(r.members, chatID)
		}
	}
	if chats, ok := r.joined[connID]; ok {
		delete(chats, chatID)
		if len(chats) == 0 {
			delete(r.joined, connID)
		}
	}
}

func (r *Rooms) Members(chatID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.members[chatID]
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Rooms) IsMember(chatID, connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[chatID][connID]
	return ok
}
