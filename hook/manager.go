package hook

import (
	"sync"

	"github.com/wireq/mqttd/wire"
)

// Manager holds an ordered set of hooks and dispatches each event to
// every hook whose Provides reports true. Dispatch copies the hook list
// under the mutex and calls the hooks after releasing it, so a running
// hook never holds up Add/Remove.
type Manager struct {
	mu    sync.Mutex
	hooks []Hook
	index map[string]int
}

// NewManager creates an empty hook manager.
func NewManager() *Manager {
	return &Manager{index: make(map[string]int)}
}

// Add registers a hook. Returns ErrEmptyHookID or ErrHookAlreadyExists.
func (m *Manager) Add(h Hook) error {
	if h == nil || h.ID() == "" {
		return ErrEmptyHookID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.index[h.ID()]; exists {
		return ErrHookAlreadyExists
	}

	m.index[h.ID()] = len(m.hooks)
	m.hooks = append(m.hooks, h)
	return nil
}

// Remove unregisters a hook by id.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, exists := m.index[id]
	if !exists {
		return ErrHookNotFound
	}

	m.hooks = append(m.hooks[:idx], m.hooks[idx+1:]...)
	delete(m.index, id)
	for i := idx; i < len(m.hooks); i++ {
		m.index[m.hooks[i].ID()] = i
	}
	return nil
}

// Count returns the number of registered hooks.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hooks)
}

func (m *Manager) snapshot() []Hook {
	m.mu.Lock()
	defer m.mu.Unlock()
	hooks := make([]Hook, len(m.hooks))
	copy(hooks, m.hooks)
	return hooks
}

// OnConnect dispatches to every hook providing OnConnect, stopping at
// the first error (observational only; does not affect CONNACK).
func (m *Manager) OnConnect(clientID string) error {
	for _, h := range m.snapshot() {
		if h.Provides(OnConnect) {
			if err := h.OnConnect(clientID); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnPublish dispatches to every hook providing OnPublish.
func (m *Manager) OnPublish(clientID, topic string, payload []byte) error {
	for _, h := range m.snapshot() {
		if h.Provides(OnPublish) {
			if err := h.OnPublish(clientID, topic, payload); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnSubscribe dispatches to every hook providing OnSubscribe.
func (m *Manager) OnSubscribe(clientID, filter string, qos wire.QoS) error {
	for _, h := range m.snapshot() {
		if h.Provides(OnSubscribe) {
			if err := h.OnSubscribe(clientID, filter, qos); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnDisconnect dispatches to every hook providing OnDisconnect.
func (m *Manager) OnDisconnect(clientID string) {
	for _, h := range m.snapshot() {
		if h.Provides(OnDisconnect) {
			h.OnDisconnect(clientID)
		}
	}
}
