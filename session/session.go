// Package session holds per-client-id state that may outlive a single
// TCP connection (spec.md §3, §4.E).
package session

import (
	"sync"

	"github.com/wireq/mqttd/wire"
)

// PendingMessage is a (qos, payload) pair carried in waiting_for_ack or
// pending_tx (spec.md §3).
type PendingMessage struct {
	QoS     wire.QoS
	Topic   string
	Payload []byte
}

// Session is the mapping entry keyed by client_id (spec.md §3). Every
// exported method is safe for concurrent use; callers never reach into
// the maps directly (spec.md §9 Pattern 2).
type Session struct {
	mu sync.RWMutex

	ClientID     string
	CleanSession bool

	subscriptions map[string]wire.QoS
	waitingForAck map[uint16]PendingMessage
	pendingTx     map[uint16]PendingMessage
}

// New creates an empty session for clientID.
func New(clientID string, cleanSession bool) *Session {
	return &Session{
		ClientID:      clientID,
		CleanSession:  cleanSession,
		subscriptions: make(map[string]wire.QoS),
		waitingForAck: make(map[uint16]PendingMessage),
		pendingTx:     make(map[uint16]PendingMessage),
	}
}

// SetSubscription records a granted subscription (spec.md §4.F writes
// through here so the session and the subscription index stay
// consistent, invariant I1).
func (s *Session) SetSubscription(topicFilter string, qos wire.QoS) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions[topicFilter] = qos
}

// RemoveSubscription deletes a subscription, if present.
func (s *Session) RemoveSubscription(topicFilter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscriptions, topicFilter)
}

// Subscriptions returns a snapshot copy of the session's subscriptions.
func (s *Session) Subscriptions() map[string]wire.QoS {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]wire.QoS, len(s.subscriptions))
	for k, v := range s.subscriptions {
		out[k] = v
	}
	return out
}

// AddWaitingForAck records a message sent to this client awaiting
// PUBACK/PUBREC, keyed by the packet id the router allocated
// (invariant I2: that id is currently held by the packet-id generator).
func (s *Session) AddWaitingForAck(pktID uint16, msg PendingMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waitingForAck[pktID] = msg
}

// ResolveWaitingForAck removes the (pktID, _) entry from waiting_for_ack
// and reports whether it was present.
func (s *Session) ResolveWaitingForAck(pktID uint16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.waitingForAck[pktID]; !ok {
		return false
	}
	delete(s.waitingForAck, pktID)
	return true
}

// WaitingForAckIDs returns the packet ids currently awaiting
// acknowledgment. Mainly for tests asserting invariant I2.
func (s *Session) WaitingForAckIDs() []uint16 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uint16, 0, len(s.waitingForAck))
	for id := range s.waitingForAck {
		ids = append(ids, id)
	}
	return ids
}

// EnqueuePendingTx queues a message for delivery once the client
// reconnects (spec.md §3 pending_tx). This spec does not require
// draining pending_tx on reconnect; enqueueing is optional per
// spec.md §4.H and exists so a Store-backed session can account for it.
func (s *Session) EnqueuePendingTx(pktID uint16, msg PendingMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingTx[pktID] = msg
}
