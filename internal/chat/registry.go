package chat

import (
	"context"
	"sync"
)

// Conn is the send side of a transport-owned connection. Implementations
// must be safe for concurrent use; a returned error means the peer is
// unreachable and will be evicted.
type Conn interface {
	Send(ctx context.Context, data []byte) error
}

// member pairs a connection with its display name inside one room.
type member struct {
	conn Conn
	name string
}

// Registry tracks which connections belong to which room. All methods are
// safe for concurrent use; membership changes are linearizable per room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string][]member
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string][]member)}
}

// Join adds conn to roomKey under name, creating the room if needed, and
// returns the up-to-date member name list including the new member.
func (r *Registry) Join(roomKey string, conn Conn, name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms[roomKey] = append(r.rooms[roomKey], member{conn: conn, name: name})

	names := make([]string, 0, len(r.rooms[roomKey]))
	for _, m := range r.rooms[roomKey] {
		names = append(names, m.name)
	}
	return names
}

// Leave removes the first member of roomKey whose connection matches conn
// and reports the removed display name. A connection registered twice is
// removed one occurrence per call. Leaving an unknown room or an already
// removed connection is a no-op. An emptied room is deleted immediately.
func (r *Registry) Leave(conn Conn, roomKey string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomKey]
	if !ok {
		return "", false
	}

	for i, m := range members {
		if m.conn == conn {
			r.rooms[roomKey] = append(members[:i:i], members[i+1:]...)
			if len(r.rooms[roomKey]) == 0 {
				delete(r.rooms, roomKey)
			}
			return m.name, true
		}
	}
	return "", false
}

// Members returns a point-in-time snapshot of the display names in roomKey,
// in join order. Unknown rooms yield an empty list.
func (r *Registry) Members(roomKey string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.rooms[roomKey]))
	for _, m := range r.rooms[roomKey] {
		names = append(names, m.name)
	}
	return names
}

// Count returns the number of members currently in roomKey.
func (r *Registry) Count(roomKey string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomKey])
}

// Rooms returns a snapshot of every currently non-empty room key.
func (r *Registry) Rooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.rooms))
	for key := range r.rooms {
		keys = append(keys, key)
	}
	return keys
}

// snapshot copies the member list of roomKey so callers can deliver without
// holding the lock. Returns nil for unknown rooms.
func (r *Registry) snapshot(roomKey string) []member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomKey]
	if !ok {
		return nil
	}
	out := make([]member, len(members))
	copy(out, members)
	return out
}
