package hook

import "github.com/wireq/mqttd/wire"

// Base is a no-op Hook implementation. Embed it and override only the
// methods a concrete hook needs, the way the teacher's Base does.
type Base struct {
	id string
}

// NewBase creates a base hook with the given id.
func NewBase(id string) *Base {
	return &Base{id: id}
}

func (h *Base) ID() string                  { return h.id }
func (h *Base) Provides(event Event) bool   { return false }
func (h *Base) OnConnect(clientID string) error {
	return nil
}
func (h *Base) OnPublish(clientID, topic string, payload []byte) error {
	return nil
}
func (h *Base) OnSubscribe(clientID, filter string, qos wire.QoS) error {
	return nil
}
func (h *Base) OnDisconnect(clientID string) {}

var _ Hook = (*Base)(nil)
