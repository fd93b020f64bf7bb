package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wireq/mqttd/wire"
)

func TestMemoryStoreSaveLoad(t *testing.T) {
	s := NewMemoryStore()
	s.Save("a/b", RetainedMessage{Topic: "a/b", QoS: wire.QoS1, Payload: []byte("v")})

	got, ok := s.Load("a/b")
	require.True(t, ok)
	require.Equal(t, wire.QoS1, got.QoS)
	require.Equal(t, []byte("v"), got.Payload)
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	s := NewMemoryStore()
	_, ok := s.Load("nope")
	require.False(t, ok)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	s := NewMemoryStore()
	s.Save("a", RetainedMessage{Topic: "a", QoS: wire.QoS0, Payload: []byte("1")})
	s.Save("a", RetainedMessage{Topic: "a", QoS: wire.QoS2, Payload: []byte("2")})

	got, ok := s.Load("a")
	require.True(t, ok)
	require.Equal(t, wire.QoS2, got.QoS)
	require.Equal(t, []byte("2"), got.Payload)
	require.Equal(t, 1, s.Count())
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	s.Save("a", RetainedMessage{Topic: "a"})
	s.Delete("a")

	_, ok := s.Load("a")
	require.False(t, ok)
	require.Equal(t, 0, s.Count())
}
