// Package hook provides narrow, observational extension points around
// the broker's state machine (SPEC_FULL.md §4.L), grounded on the
// teacher's hook package but narrowed to the event set this broker's
// spec actually names: connect, publish, subscribe, disconnect. Unlike
// the teacher, no hook return value changes a wire-level outcome —
// CONNECT/PUBLISH acceptance is unconditional per spec.md §4.E/§4.H, so
// hooks here only observe, log, and count.
package hook

import "github.com/wireq/mqttd/wire"

// Event identifies one broker lifecycle point a Hook may provide.
type Event byte

const (
	OnConnect Event = iota
	OnPublish
	OnSubscribe
	OnDisconnect
)

func (e Event) String() string {
	switch e {
	case OnConnect:
		return "OnConnect"
	case OnPublish:
		return "OnPublish"
	case OnSubscribe:
		return "OnSubscribe"
	case OnDisconnect:
		return "OnDisconnect"
	default:
		return "Unknown"
	}
}

// Hook is the interface every extension implements. Provides gates
// dispatch the same way the teacher's Hook.Provides does: a hook only
// receives the events it opts into.
type Hook interface {
	ID() string
	Provides(event Event) bool
	OnConnect(clientID string) error
	OnPublish(clientID, topic string, payload []byte) error
	OnSubscribe(clientID, filter string, qos wire.QoS) error
	OnDisconnect(clientID string)
}
