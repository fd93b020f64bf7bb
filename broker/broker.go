// Package broker wires the wire codec, session store, subscription
// index, stream registry, publish router, hook manager, and retained
// store into the connection state machine spec.md §4.I describes, and
// a TCP listener that drives it (spec.md §6), grounded on the
// teacher's network.Listener/network.Pool accept-loop shape.
package broker

import (
	"github.com/wireq/mqttd/hook"
	"github.com/wireq/mqttd/pkg/logger"
	"github.com/wireq/mqttd/pktid"
	"github.com/wireq/mqttd/registry"
	"github.com/wireq/mqttd/router"
	"github.com/wireq/mqttd/session"
	"github.com/wireq/mqttd/store"
	"github.com/wireq/mqttd/topic"
)

// Broker holds every shared collaborator a connection handler needs.
// A single Broker is created per listening process; ServeConn is safe
// to call concurrently from many accepted connections.
type Broker struct {
	cfg *Config

	Index    *topic.Index
	Sessions *session.Store
	PktIDs   *pktid.Generator
	Streams  *registry.Registry
	Retained store.Store
	Router   *router.Router
	Hooks    *hook.Manager
	Log      logger.Logger
}

// New builds a Broker from defaults overridden by opts.
func New(opts ...Option) *Broker {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	idx := topic.NewIndex()
	sessions := session.NewStore()
	ids := pktid.New()
	streams := registry.New()

	b := &Broker{
		cfg:      cfg,
		Index:    idx,
		Sessions: sessions,
		PktIDs:   ids,
		Streams:  streams,
		Retained: cfg.Retained,
		Hooks:    cfg.Hooks,
		Log:      cfg.Logger,
	}
	b.Router = router.New(idx, sessions, ids, streams, cfg.Retained)
	return b
}

// Address returns the broker's configured listen address.
func (b *Broker) Address() string { return b.cfg.Address }
