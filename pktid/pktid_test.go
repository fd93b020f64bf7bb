package pktid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenNeverReturnsZero(t *testing.T) {
	g := New()
	for i := 0; i < 1000; i++ {
		id, err := g.Gen()
		require.NoError(t, err)
		require.NotZero(t, id)
	}
}

func TestGenNeverReturnsInUseID(t *testing.T) {
	// P6: gen never returns an already-in-use id.
	g := New()
	seen := make(map[uint16]bool)
	for i := 0; i < 5000; i++ {
		id, err := g.Gen()
		require.NoError(t, err)
		require.False(t, seen[id], "id %d allocated twice", id)
		seen[id] = true
	}
}

func TestReleaseAllowsReuse(t *testing.T) {
	g := New()
	id, err := g.Gen()
	require.NoError(t, err)
	require.True(t, g.InUse(id))

	g.Release(id)
	require.False(t, g.InUse(id))
	require.Equal(t, 0, g.Count())
}

func TestExhaustion(t *testing.T) {
	g := New()
	for i := 0; i < total; i++ {
		_, err := g.Gen()
		require.NoError(t, err)
	}
	require.Equal(t, total, g.Count())

	_, err := g.Gen()
	require.ErrorIs(t, err, ErrExhausted)
}

func TestLinearScanFallbackAboveHalfOccupancy(t *testing.T) {
	// Fill past the 50% threshold, then release one id and confirm Gen
	// still finds it via the linear-scan branch.
	g := New()
	ids := make([]uint16, 0, total)
	for i := 0; i < total; i++ {
		id, err := g.Gen()
		require.NoError(t, err)
		ids = append(ids, id)
	}

	freed := ids[len(ids)/2]
	g.Release(freed)
	require.Equal(t, total-1, g.Count())

	got, err := g.Gen()
	require.NoError(t, err)
	require.Equal(t, freed, got)
}

func TestCountReflectsAllocatedMinusReleased(t *testing.T) {
	// P6: in-use set equals allocated minus released.
	g := New()
	var allocated []uint16
	for i := 0; i < 100; i++ {
		id, err := g.Gen()
		require.NoError(t, err)
		allocated = append(allocated, id)
	}
	for i := 0; i < 40; i++ {
		g.Release(allocated[i])
	}
	require.Equal(t, 60, g.Count())
}
