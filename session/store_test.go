package session

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wireq/mqttd/wire"
)

func TestGetOrCreateCleanSessionAlwaysFresh(t *testing.T) {
	store := NewStore()

	sess, present := store.GetOrCreate("a", false)
	require.False(t, present)
	sess.SetSubscription("topic/x", wire.QoS1)

	// P12 / 4.E: CLEAN_SESSION=1 drops any existing session.
	fresh, present := store.GetOrCreate("a", true)
	require.False(t, present)
	require.Empty(t, fresh.Subscriptions())
	require.NotSame(t, sess, fresh)
}

func TestGetOrCreateResumesExistingSession(t *testing.T) {
	// P12: session_present=true iff a session for that client_id
	// existed.
	store := NewStore()
	first, present := store.GetOrCreate("b", false)
	require.False(t, present)
	first.SetSubscription("topic/y", wire.QoS2)

	second, present := store.GetOrCreate("b", false)
	require.True(t, present)
	require.Same(t, first, second)
	require.Equal(t, wire.QoS2, second.Subscriptions()["topic/y"])
}

func TestGetOrCreateFirstConnectNoCleanSessionNotPresent(t *testing.T) {
	store := NewStore()
	_, present := store.GetOrCreate("c", false)
	require.False(t, present)
}

func TestDropRemovesSession(t *testing.T) {
	store := NewStore()
	store.GetOrCreate("d", false)
	require.True(t, store.Contains("d"))

	store.Drop("d")
	require.False(t, store.Contains("d"))
}

func TestWaitingForAckLifecycle(t *testing.T) {
	sess := New("e", false)
	sess.AddWaitingForAck(5, PendingMessage{QoS: wire.QoS1, Topic: "t", Payload: []byte("p")})
	require.ElementsMatch(t, []uint16{5}, sess.WaitingForAckIDs())

	require.True(t, sess.ResolveWaitingForAck(5))
	require.Empty(t, sess.WaitingForAckIDs())
	require.False(t, sess.ResolveWaitingForAck(5))
}
