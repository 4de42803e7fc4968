package ws

import (
	"sync"
)

// Conn is the narrow write side of a client connection. *websocket.Conn
// satisfies it; tests use in-memory fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// lockedConn serializes writes to one connection. gorilla/websocket allows
// a single concurrent writer, but broadcasts and error replies for the
// same connection arrive from independent handler goroutines.
type lockedConn struct {
	mu   sync.Mutex
	conn Conn
}

// NewLockedConn wraps a connection so that it is safe to write to from
// multiple goroutines. Every connection entering the hub must be wrapped.
func NewLockedConn(conn Conn) Conn {
	return &lockedConn{conn: conn}
}

func (c *lockedConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

func (c *lockedConn) Close() error { return c.conn.Close() }

// Hub is the process-wide connection registry, keyed by authenticated user
// id. A user may hold several concurrent connections. A connection appears
// in the registry iff it is open: Unregister runs synchronously with the
// close event and is idempotent.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[Conn]ConnInfo
	conns map[Conn]string
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		users: make(map[string]map[Conn]ConnInfo),
		conns: make(map[Conn]string),
	}
}

// Register binds a connection to its user for the connection's lifetime.
func (h *Hub) Register(userID string, conn Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[Conn]ConnInfo)
	}
	h.users[userID][conn] = info
	h.conns[conn] = userID
}

// Unregister removes a connection. Unknown or already-removed connections
// are a no-op.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	userID, ok := h.conns[conn]
	if !ok {
		return
	}
	delete(h.conns, conn)
	if infos, ok := h.users[userID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.users, userID)
		}
	}
}

// FindByUser returns all open connections of a user; the slice may be
// empty.
func (h *Hub) FindByUser(userID string) []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	infos := h.users[userID]
	conns := make([]Conn, 0, len(infos))
	for conn := range infos {
		conns = append(conns, conn)
	}
	return conns
}

// Info returns the registration info for a connection.
func (h *Hub) Info(conn Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	userID, ok := h.conns[conn]
	if !ok {
		return ConnInfo{}, false
	}
	info, ok := h.users[userID][conn]
	return info, ok
}

// Snapshot returns the info of every registered connection, for the debug
// audit endpoint.
func (h *Hub) Snapshot() []ConnInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	infos := make([]ConnInfo, 0, len(h.conns))
	for _, byConn := range h.users {
		for _, info := range byConn {
			infos = append(infos, info)
		}
	}
	return infos
}

// Len reports the number of registered connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
