package broker

import (
	"github.com/wireq/mqttd/hook"
	"github.com/wireq/mqttd/pkg/logger"
	"github.com/wireq/mqttd/store"
)

// Config holds broker construction parameters, built via functional
// options the way the teacher's network.ListenerConfig/qos.Config/
// session.ManagerConfig are (SPEC_FULL.md §4.M).
type Config struct {
	Address  string
	Logger   logger.Logger
	Hooks    *hook.Manager
	Retained store.Store
}

// DefaultConfig returns a Config with this spec's default listen
// address and no-op ambient collaborators.
func DefaultConfig() *Config {
	return &Config{
		Address:  "127.0.0.1:1883",
		Logger:   logger.Noop(),
		Hooks:    hook.NewManager(),
		Retained: store.NewMemoryStore(),
	}
}

// Option mutates a Config during New.
type Option func(*Config)

// WithAddress overrides the listen address.
func WithAddress(addr string) Option {
	return func(c *Config) { c.Address = addr }
}

// WithLogger installs a non-default logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithHooks installs a pre-populated hook manager.
func WithHooks(m *hook.Manager) Option {
	return func(c *Config) { c.Hooks = m }
}

// WithRetainedStore installs a non-default retained-message store,
// e.g. a store.PebbleStore for on-disk persistence.
func WithRetainedStore(s store.Store) Option {
	return func(c *Config) { c.Retained = s }
}
