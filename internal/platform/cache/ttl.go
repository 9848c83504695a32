// Package cache provides the in-memory TTL cache backing the data-access
// layer. Entries stay fresh for one TTL window and remain readable as stale
// fallbacks for a second window before a sweep removes them.
package cache

import (
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a key is absent or no longer readable.
var ErrNotFound = errors.New("cache: key not found")

// MinTTL is the lower bound applied to every TTL. Values below it are
// clamped, never rejected.
const MinTTL = 30 * time.Second

// entry deadlines are fixed at write time from the TTL then in force;
// later SetTTL calls do not retroactively change them.
type entry struct {
	value      any
	writtenAt  time.Time
	freshUntil time.Time
	staleUntil time.Time
}

// TTLCache is a key/value store with two freshness horizons: Get serves
// entries younger than the TTL, GetStale serves anything still retained
// (up to twice the TTL). Not persisted; contents die with the process.
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	now     func() time.Time
	onClear func()
}

// Option configures a TTLCache.
type Option func(*TTLCache)

// WithClock overrides the cache's time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *TTLCache) {
		c.now = now
	}
}

// WithClearHook registers a callback invoked after Clear empties the cache.
func WithClearHook(fn func()) Option {
	return func(c *TTLCache) {
		c.onClear = fn
	}
}

// New creates a TTLCache. ttl is clamped to MinTTL.
func New(ttl time.Duration, opts ...Option) *TTLCache {
	c := &TTLCache{
		entries: make(map[string]entry),
		ttl:     clampTTL(ttl),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl < MinTTL {
		return MinTTL
	}
	return ttl
}

// TTL returns the freshness window applied to new writes.
func (c *TTLCache) TTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttl
}

// SetTTL changes the freshness window for subsequent writes. Existing
// entries keep the deadlines they were written with.
func (c *TTLCache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = clampTTL(ttl)
}

// Get returns the value for key if it is still fresh, ErrNotFound otherwise.
// An expired entry is not removed here; it stays readable via GetStale
// until the sweep horizon passes.
func (c *TTLCache) Get(key string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, ErrNotFound
	}

	if c.now().After(e.freshUntil) {
		return nil, ErrNotFound
	}

	return e.value, nil
}

// GetStale returns the value for key regardless of freshness, as long as
// the entry is still within its retention window.
func (c *TTLCache) GetStale(key string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, ErrNotFound
	}

	if c.now().After(e.staleUntil) {
		return nil, ErrNotFound
	}

	return e.value, nil
}

// Set stores value under key, stamping it with the current time and the
// TTL in force. Each write also sweeps out entries past their retention
// window so the map does not grow without bound.
func (c *TTLCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = entry{
		value:      value,
		writtenAt:  now,
		freshUntil: now.Add(c.ttl),
		staleUntil: now.Add(2 * c.ttl),
	}

	c.sweepLocked(now)
}

// Sweep removes every entry past its retention window and reports how
// many were removed.
func (c *TTLCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(c.now())
}

func (c *TTLCache) sweepLocked(now time.Time) int {
	removed := 0
	for key, e := range c.entries {
		if now.After(e.staleUntil) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries and fires the clear hook, if any.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	hook := c.onClear
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// Len returns the number of retained entries, fresh or stale.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
