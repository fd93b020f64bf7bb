// Package store holds the retained-message table (spec.md §4.H "Retain
// handling", expanded in SPEC_FULL.md §4.J). Redelivery to new
// subscribers is out of scope; the table exists so a retained PUBLISH
// is recorded somewhere queryable, and so operators who want that table
// to survive a restart have a pluggable backend to reach for.
package store

import "github.com/wireq/mqttd/wire"

// RetainedMessage is the (qos, payload) pair kept per topic.
type RetainedMessage struct {
	Topic   string
	QoS     wire.QoS
	Payload []byte
}

// Store is the retained-message table interface. MemoryStore is the
// default; PebbleStore is an opt-in persistent alternative.
type Store interface {
	Save(topic string, msg RetainedMessage)
	Load(topic string) (RetainedMessage, bool)
	Delete(topic string)
	Count() int
}
