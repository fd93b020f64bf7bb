// Package topic maintains the topic_name -> (client_id -> QoS)
// subscription index (spec.md §4.F). This spec excludes wildcard
// filters (+, #, *) as a Non-goal, so the index is a flat exact-match
// map rather than the trie a wildcard-supporting broker would need —
// simplified from the teacher repo's topic/trie.go, which has no job
// left to do once multi-level matching is off the table.
package topic

import (
	"sync"

	"github.com/wireq/mqttd/wire"
)

// Index is the shared subscription table. An entry exists in the outer
// map iff at least one client is subscribed (spec.md §3).
type Index struct {
	mu    sync.RWMutex
	table map[string]map[string]wire.QoS // topic -> clientID -> QoS
}

// NewIndex creates an empty subscription index.
func NewIndex() *Index {
	return &Index{table: make(map[string]map[string]wire.QoS)}
}

// Subscriber is one (client_id, granted_qos) pair returned by
// SubscribersOf.
type Subscriber struct {
	ClientID string
	QoS      wire.QoS
}

// Subscribe inserts or updates a (client_id, topic_filter, qos) entry.
// Wildcard filters are rejected by the caller before reaching here
// (ValidateFilter); Subscribe itself does no filter-syntax checking so
// it stays a pure map write, matching spec.md §4.F's description.
func (idx *Index) Subscribe(clientID, topicFilter string, qos wire.QoS) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	clients, ok := idx.table[topicFilter]
	if !ok {
		clients = make(map[string]wire.QoS)
		idx.table[topicFilter] = clients
	}
	clients[clientID] = qos
}

// Unsubscribe removes a client's entry for a filter, deleting the outer
// entry if it becomes empty (spec.md §4.F).
func (idx *Index) Unsubscribe(clientID, topicFilter string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	clients, ok := idx.table[topicFilter]
	if !ok {
		return
	}
	delete(clients, clientID)
	if len(clients) == 0 {
		delete(idx.table, topicFilter)
	}
}

// UnsubscribeAll removes every entry for clientID across all filters,
// used on connection teardown for a clean_session client.
func (idx *Index) UnsubscribeAll(clientID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for filter, clients := range idx.table {
		if _, ok := clients[clientID]; ok {
			delete(clients, clientID)
			if len(clients) == 0 {
				delete(idx.table, filter)
			}
		}
	}
}

// SubscribersOf returns every (client_id, granted_qos) subscribed to
// topicName, taken under a single read-lock acquisition (spec.md §5:
// "a PUBLISH fan-out observes the subscription index at a single point
// in time").
func (idx *Index) SubscribersOf(topicName string) []Subscriber {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	clients, ok := idx.table[topicName]
	if !ok {
		return nil
	}
	out := make([]Subscriber, 0, len(clients))
	for clientID, qos := range clients {
		out = append(out, Subscriber{ClientID: clientID, QoS: qos})
	}
	return out
}

// Contains reports whether clientID currently holds a subscription on
// topicFilter, used by tests asserting invariant I1.
func (idx *Index) Contains(clientID, topicFilter string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	clients, ok := idx.table[topicFilter]
	if !ok {
		return false
	}
	_, ok = clients[clientID]
	return ok
}

// ValidateFilter rejects filters containing MQTT wildcard characters
// (spec.md §4.F, §1 Non-goals).
func ValidateFilter(topicFilter string) error {
	for i := 0; i < len(topicFilter); i++ {
		switch topicFilter[i] {
		case '+', '#', '*':
			return ErrWildcardFilter
		}
	}
	return nil
}
