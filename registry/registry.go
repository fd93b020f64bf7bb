// Package registry maps a connected client_id to the byte sink its
// encoded packets must be written to (spec.md §4.G). It is the layer
// the publish router and the CONNACK/SUBACK/PINGRESP replies share so
// neither needs to know whether the client's packets are serialized by
// a goroutine-per-connection writer loop or a direct net.Conn.Write.
package registry

import (
	"io"
	"sync"
)

// sink pairs a client's underlying writer with a mutex so concurrent
// callers (the publish router delivering a fan-out PUBLISH at the same
// moment the connection's own handler writes a SUBACK) never interleave
// bytes on the wire (spec.md §5, grounded on the teacher's network.Pool
// map+mutex shape in network/pool.go, narrowed from a *Connection value
// to a plain io.Writer since this module has no poller/TLS/keepalive
// layer to carry along).
type sink struct {
	mu sync.Mutex
	w  io.Writer
}

// Registry is the process-wide client_id -> sink table.
type Registry struct {
	mu    sync.RWMutex
	sinks map[string]*sink
}

// New creates an empty stream registry.
func New() *Registry {
	return &Registry{sinks: make(map[string]*sink)}
}

// Register associates clientID with w, replacing any previous sink for
// that client_id (a reconnect under the same client_id supersedes the
// old stream; the old connection's own teardown is responsible for
// calling Unregister so it doesn't clobber the new one, checked via
// UnregisterIf).
func (r *Registry) Register(clientID string, w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[clientID] = &sink{w: w}
}

// Unregister removes clientID's sink unconditionally.
func (r *Registry) Unregister(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, clientID)
}

// UnregisterIf removes clientID's sink only if it still wraps w,
// avoiding a just-reconnected client's new stream being torn down by
// the old connection's deferred cleanup.
func (r *Registry) UnregisterIf(clientID string, w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sinks[clientID]; ok && s.w == w {
		delete(r.sinks, clientID)
	}
}

// Send writes data to clientID's registered sink under that sink's own
// lock, serializing it against any other concurrent Send to the same
// client (spec.md §4.G). Returns ErrNotRegistered if the client has no
// sink, e.g. it disconnected between the subscription snapshot and
// delivery.
func (r *Registry) Send(clientID string, data []byte) error {
	r.mu.RLock()
	s, ok := r.sinks[clientID]
	r.mu.RUnlock()
	if !ok {
		return ErrNotRegistered
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(data)
	return err
}

// Contains reports whether clientID currently has a registered stream.
func (r *Registry) Contains(clientID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sinks[clientID]
	return ok
}

// Count returns the number of currently registered streams.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}
