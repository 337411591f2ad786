package websocket

import (
	"sync"

	"streamer/internal/streamer"
	"streamer/pkg/metrics"
)

// Registry tracks the live connections of this process.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Conn)}
}

func (r *Registry) Add(c *Conn) {
	r.mu.Lock()
	r.conns[c.id] = c
	n := len(r.conns)
	r.mu.Unlock()
	metrics.SetConnectionsActive(n)
}

func (r *Registry) Remove(c *Conn) {
	r.mu.Lock()
	delete(r.conns, c.id)
	n := len(r.conns)
	r.mu.Unlock()
	metrics.SetConnectionsActive(n)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Snapshot returns a copy; connections added or removed afterwards do not
// affect it.
func (r *Registry) Snapshot() []streamer.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]streamer.Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// CloseAll closes every connection, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		c.Close(closeReasonShutdown)
	}
}
