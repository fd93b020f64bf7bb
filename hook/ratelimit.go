package hook

import (
	"sync"
	"time"
)

const (
	_defaultExpiryWindowMultiplier = 3
	_defaultCleanupInterval        = 2
)

// RateLimitHook counts PUBLISHes per client_id within a fixed window
// (restarted by the first publish after the previous one elapses) and
// logs/counts over-limit clients without rejecting the publish
// (spec.md's unconditional-fan-out rule still governs). Adapted from
// the teacher's hook.RateLimitHook, narrowed to this package's event
// set.
type RateLimitHook struct {
	*Base
	mu           sync.RWMutex
	limiters     map[string]*rateLimiter
	maxRate      int
	window       time.Duration
	cleanupTimer *time.Timer

	exceeded map[string]int
}

type rateLimiter struct {
	count       int
	windowStart time.Time
	lastAccess  time.Time
}

// NewRateLimitHook creates a rate limiting hook allowing up to maxRate
// PUBLISHes per client_id per window.
func NewRateLimitHook(maxRate int, window time.Duration) *RateLimitHook {
	h := &RateLimitHook{
		Base:     NewBase("rate-limit"),
		limiters: make(map[string]*rateLimiter),
		exceeded: make(map[string]int),
		maxRate:  maxRate,
		window:   window,
	}
	h.startCleanup()
	return h
}

func (h *RateLimitHook) Provides(event Event) bool { return event == OnPublish }

func (h *RateLimitHook) Stop() {
	if h.cleanupTimer != nil {
		h.cleanupTimer.Stop()
	}
}

// OnPublish records one publish for clientID and reports
// ErrRateLimitExceeded if it pushed the client over maxRate within the
// current window. The caller (the broker's publish handler) logs this;
// it never blocks the PUBLISH.
func (h *RateLimitHook) OnPublish(clientID, _ string, _ []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	limiter, exists := h.limiters[clientID]

	if !exists || now.Sub(limiter.windowStart) > h.window {
		h.limiters[clientID] = &rateLimiter{count: 1, windowStart: now, lastAccess: now}
		return nil
	}

	limiter.lastAccess = now
	limiter.count++

	if limiter.count > h.maxRate {
		h.exceeded[clientID]++
		return ErrRateLimitExceeded
	}
	return nil
}

// ExceededCount returns how many times clientID has gone over its
// limit since the last ResetClient/ResetAll.
func (h *RateLimitHook) ExceededCount(clientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.exceeded[clientID]
}

// ResetClient clears clientID's window and exceeded count.
func (h *RateLimitHook) ResetClient(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.limiters, clientID)
	delete(h.exceeded, clientID)
}

// ResetAll clears every client's window.
func (h *RateLimitHook) ResetAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.limiters = make(map[string]*rateLimiter)
	h.exceeded = make(map[string]int)
}

// ActiveClients reports how many client_ids currently have a live
// window.
func (h *RateLimitHook) ActiveClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.limiters)
}

func (h *RateLimitHook) startCleanup() {
	cleanupInterval := h.window * _defaultCleanupInterval
	if cleanupInterval < time.Minute {
		cleanupInterval = time.Minute
	}
	h.cleanupTimer = time.AfterFunc(cleanupInterval, func() {
		h.cleanup()
		h.startCleanup()
	})
}

func (h *RateLimitHook) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	expiry := h.window * _defaultExpiryWindowMultiplier
	for clientID, limiter := range h.limiters {
		if now.Sub(limiter.lastAccess) > expiry {
			delete(h.limiters, clientID)
		}
	}
}

var _ Hook = (*RateLimitHook)(nil)
