package router

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wireq/mqttd/pktid"
	"github.com/wireq/mqttd/registry"
	"github.com/wireq/mqttd/session"
	"github.com/wireq/mqttd/store"
	"github.com/wireq/mqttd/topic"
	"github.com/wireq/mqttd/wire"
)

func newTestRouter() (*Router, *topic.Index, *session.Store, *registry.Registry) {
	idx := topic.NewIndex()
	sessions := session.NewStore()
	ids := pktid.New()
	streams := registry.New()
	r := New(idx, sessions, ids, streams, store.NewMemoryStore())
	return r, idx, sessions, streams
}

func TestRouteSkipsSenderAndDeliversToOthers(t *testing.T) {
	r, idx, sessions, streams := newTestRouter()
	idx.Subscribe("sender", "t", wire.QoS0)
	idx.Subscribe("other", "t", wire.QoS0)
	sessions.GetOrCreate("other", false)

	var buf bytes.Buffer
	streams.Register("other", &buf)

	res, err := r.Route("sender", "t", []byte("hi"), wire.QoS0, false)
	require.NoError(t, err)
	require.Equal(t, 1, res.Attempted)
	require.Equal(t, 1, res.Delivered)
	require.Empty(t, res.Failures)
	require.NotEmpty(t, buf.Bytes())
}

func TestRouteDowngradesQoSToMinimum(t *testing.T) {
	// spec.md §9: delivered QoS = min(origin_qos, sub_qos), not
	// sub_qos alone.
	r, idx, sessions, streams := newTestRouter()
	idx.Subscribe("sub", "t", wire.QoS2)
	sessions.GetOrCreate("sub", false)
	var buf bytes.Buffer
	streams.Register("sub", &buf)

	_, err := r.Route("pub", "t", []byte("x"), wire.QoS1, false)
	require.NoError(t, err)

	decoded, err := wire.ReadPacket(bufio.NewReader(bytes.NewReader(buf.Bytes())))
	require.NoError(t, err)
	pub, ok := decoded.(*wire.PublishPacket)
	require.True(t, ok)
	require.Equal(t, wire.QoS1, pub.QoS)
}

func TestRouteAppendsWaitingForAckAtQoSGEQ1(t *testing.T) {
	r, idx, sessions, streams := newTestRouter()
	idx.Subscribe("sub", "t", wire.QoS1)
	sess, _ := sessions.GetOrCreate("sub", false)
	var buf bytes.Buffer
	streams.Register("sub", &buf)

	_, err := r.Route("pub", "t", []byte("x"), wire.QoS1, false)
	require.NoError(t, err)

	require.Len(t, sess.WaitingForAckIDs(), 1)
}

func TestRouteQoS0NeverAppendsWaitingForAck(t *testing.T) {
	r, idx, sessions, streams := newTestRouter()
	idx.Subscribe("sub", "t", wire.QoS0)
	sess, _ := sessions.GetOrCreate("sub", false)
	var buf bytes.Buffer
	streams.Register("sub", &buf)

	_, err := r.Route("pub", "t", []byte("x"), wire.QoS0, false)
	require.NoError(t, err)

	require.Empty(t, sess.WaitingForAckIDs())
}

func TestRouteNoSubscribersIsNoop(t *testing.T) {
	r, _, _, _ := newTestRouter()
	res, err := r.Route("pub", "nowhere", []byte("x"), wire.QoS0, false)
	require.NoError(t, err)
	require.Equal(t, 0, res.Attempted)
}

func TestRouteSkipsUnregisteredSubscriberWithoutFailure(t *testing.T) {
	// spec.md §4.H.c: no sink registered -> skip delivery, not a failure.
	r, idx, _, _ := newTestRouter()
	idx.Subscribe("ghost", "t", wire.QoS0)

	res, err := r.Route("pub", "t", []byte("x"), wire.QoS0, false)
	require.NoError(t, err)
	require.Equal(t, 1, res.Attempted)
	require.Equal(t, 0, res.Delivered)
	require.Empty(t, res.Failures)
}

func TestRouteRetainUpdatesRetainedStore(t *testing.T) {
	r, _, _, _ := newTestRouter()
	_, err := r.Route("pub", "t", []byte("retained-value"), wire.QoS1, true)
	require.NoError(t, err)

	msg, ok := r.Retained.Load("t")
	require.True(t, ok)
	require.Equal(t, []byte("retained-value"), msg.Payload)
}

func TestRouteNonRetainDoesNotTouchRetainedStore(t *testing.T) {
	r, _, _, _ := newTestRouter()
	_, err := r.Route("pub", "t", []byte("x"), wire.QoS0, false)
	require.NoError(t, err)

	_, ok := r.Retained.Load("t")
	require.False(t, ok)
}

func TestRoutePktIDExhaustionIsFatalToThePublish(t *testing.T) {
	// spec.md §4.H.b/§7: packet-id exhaustion fails the containing
	// publish and is fatal to the connection, not scoped to one
	// subscriber like a missing sink is.
	r, idx, sessions, streams := newTestRouter()
	idx.Subscribe("sub", "t", wire.QoS1)
	sessions.GetOrCreate("sub", false)
	var buf bytes.Buffer
	streams.Register("sub", &buf)

	for i := 0; i < 65535; i++ {
		_, err := r.PktIDs.Gen()
		require.NoError(t, err)
	}

	res, err := r.Route("pub", "t", []byte("x"), wire.QoS1, false)
	require.ErrorIs(t, err, ErrPublishOutOfPktIds)
	require.Equal(t, 0, res.Delivered)
}
