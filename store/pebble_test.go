package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wireq/mqttd/wire"
)

func TestPebbleStoreSaveLoadDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewPebbleStore(PebbleStoreConfig{Path: dir})
	require.NoError(t, err)
	defer s.Close()

	s.Save("sensors/temp", RetainedMessage{Topic: "sensors/temp", QoS: wire.QoS1, Payload: []byte("21c")})

	got, ok := s.Load("sensors/temp")
	require.True(t, ok)
	require.Equal(t, wire.QoS1, got.QoS)
	require.Equal(t, []byte("21c"), got.Payload)
	require.Equal(t, 1, s.Count())

	s.Delete("sensors/temp")
	_, ok = s.Load("sensors/temp")
	require.False(t, ok)
	require.Equal(t, 0, s.Count())
}

func TestPebbleStoreOperationsAfterCloseAreNoops(t *testing.T) {
	dir := t.TempDir()
	s, err := NewPebbleStore(PebbleStoreConfig{Path: dir})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Close(), ErrStoreClosed)

	s.Save("x", RetainedMessage{Topic: "x"})
	_, ok := s.Load("x")
	require.False(t, ok)
	require.Equal(t, 0, s.Count())
}
