// Package pktid allocates and releases unique MQTT packet identifiers
// (spec.md §4.D). It never hands out 0, which MQTT reserves.
//
// Grounded on original_source/libmqtt/src/pktid.rs's random-probe idea,
// but fixes the bug spec.md §4.D calls out: the Rust original probes
// forever with no fallback, which starves as occupancy approaches
// 65535. This generator switches to a linear scan once half the space
// is in use, guaranteeing termination in O(n) even at worst-case
// occupancy, and locking follows the plain sync.Mutex-guards-a-map
// idiom used throughout the teacher repo (hook.RateLimitHook,
// qos.dedupCache) rather than a lock-free structure.
package pktid

import (
	"math/rand/v2"
	"sync"
)

const (
	minID = 1
	maxID = 65535
	total = maxID - minID + 1
)

// Generator allocates ids in [1, 65535].
type Generator struct {
	mu    sync.Mutex
	inUse map[uint16]struct{}
}

// New creates an empty Generator.
func New() *Generator {
	return &Generator{inUse: make(map[uint16]struct{})}
}

// Gen allocates and marks in-use a fresh id, or returns ErrExhausted if
// all 65535 ids are currently held.
func (g *Generator) Gen() (uint16, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.inUse) >= total {
		return 0, ErrExhausted
	}

	var id uint16
	if len(g.inUse) < total/2 {
		id = g.probeRandom()
	} else {
		id = g.scanLinear()
	}

	g.inUse[id] = struct{}{}
	return id, nil
}

// Release removes id from the in-use set, making it available again.
func (g *Generator) Release(id uint16) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inUse, id)
}

// InUse reports whether id is currently allocated. Mainly for tests
// asserting invariant I2 (spec.md §3).
func (g *Generator) InUse(id uint16) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.inUse[id]
	return ok
}

// Count returns the number of ids currently allocated.
func (g *Generator) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inUse)
}

// probeRandom is cheap and collision-free with high probability while
// occupancy is under 50%; callers must hold g.mu.
func (g *Generator) probeRandom() uint16 {
	for {
		id := uint16(rand.IntN(total)) + minID
		if _, taken := g.inUse[id]; !taken {
			return id
		}
	}
}

// scanLinear guarantees termination in bounded time once random
// probing would otherwise degrade as occupancy rises; callers must
// hold g.mu and have already verified len(g.inUse) < total.
func (g *Generator) scanLinear() uint16 {
	for id := minID; id <= maxID; id++ {
		if _, taken := g.inUse[uint16(id)]; !taken {
			return uint16(id)
		}
	}
	// Unreachable: Gen already checked len(g.inUse) < total.
	panic("pktid: scanLinear found no free id despite available capacity")
}
