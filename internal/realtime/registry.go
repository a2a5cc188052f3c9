package realtime

import "sync"

// Conn is a live client connection that accepts named events.
type Conn interface {
	ID() string
	Send(event string, payload any) error
}

// Registry maps a user id to at most one live connection.
type Registry interface {
	Register(userID int64, conn Conn)
	Unregister(conn Conn) []int64
	Lookup(userID int64) (Conn, bool)
}

type MemoryRegistry struct {
	mu     sync.RWMutex
	byUser map[int64]Conn
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{byUser: make(map[int64]Conn)}
}

// Register replaces any connection previously held by userID.
func (r *MemoryRegistry) Register(userID int64, conn Conn) {
	r.mu.Lock()
	r.byUser[userID] = conn
	r.mu.Unlock()
}

// Unregister removes every entry pointing at conn and returns the affected user ids.
func (r *MemoryRegistry) Unregister(conn Conn) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []int64
	for userID, c := range r.byUser {
		if c.ID() == conn.ID() {
			delete(r.byUser, userID)
			removed = append(removed, userID)
		}
	}
	return removed
}

func (r *MemoryRegistry) Lookup(userID int64) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

var _ Registry = (*MemoryRegistry)(nil)
