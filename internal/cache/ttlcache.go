package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Clock returns the current time. It is injectable so tests can simulate
// entry expiry without sleeping.
type Clock func() time.Time

// FetchFunc loads the value for a key from the upstream source.
type FetchFunc[K ~string, V any] func(ctx context.Context, key K) (V, error)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache memoizes the result of an expensive, fallible fetch per key,
// bounded by a fixed time-to-live. Lookups of a live entry never block on
// I/O; cold or expired keys are fetched with at most one fetch in flight
// per key, concurrent callers for the same key sharing that fetch's
// outcome. Fetch failures are never cached.
type Cache[K ~string, V any] struct {
	ttl   time.Duration
	clock Clock

	entriesMutex sync.RWMutex
	entries      map[K]entry[V]

	flightGroup singleflight.Group
}

// New creates a cache whose entries expire ttl after they are stored.
func New[K ~string, V any](ttl time.Duration) *Cache[K, V] {
	return NewWithClock[K, V](ttl, time.Now)
}

// NewWithClock creates a cache with an explicit clock.
func NewWithClock[K ~string, V any](ttl time.Duration, clock Clock) *Cache[K, V] {
	return &Cache[K, V]{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[K]entry[V]),
	}
}

// GetOrFetch returns the live cached value for key, or invokes fetch to
// load it. Concurrent callers for the same cold key are collapsed into a
// single fetch and all receive its result; callers for different keys
// never block each other. The table lock is never held across fetch.
func (cache *Cache[K, V]) GetOrFetch(ctx context.Context, key K, fetch FetchFunc[K, V]) (V, error) {
	if value, live := cache.lookup(key); live {
		return value, nil
	}

	result, fetchError, _ := cache.flightGroup.Do(string(key), func() (interface{}, error) {
		// A flight that completed between our lookup and joining the
		// group may already have stored a live entry.
		if value, live := cache.lookup(key); live {
			return value, nil
		}

		value, err := fetch(ctx, key)
		if err != nil {
			return nil, err
		}

		cache.store(key, value)
		return value, nil
	})

	if fetchError != nil {
		var zero V
		return zero, fetchError
	}
	return result.(V), nil
}

// Invalidate drops the entry for key, forcing the next GetOrFetch to
// refetch.
func (cache *Cache[K, V]) Invalidate(key K) {
	cache.entriesMutex.Lock()
	delete(cache.entries, key)
	cache.entriesMutex.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (cache *Cache[K, V]) Len() int {
	cache.entriesMutex.RLock()
	defer cache.entriesMutex.RUnlock()
	return len(cache.entries)
}

func (cache *Cache[K, V]) lookup(key K) (V, bool) {
	cache.entriesMutex.RLock()
	cachedEntry, found := cache.entries[key]
	cache.entriesMutex.RUnlock()

	if !found || !cache.clock().Before(cachedEntry.expiresAt) {
		var zero V
		return zero, false
	}
	return cachedEntry.value, true
}

func (cache *Cache[K, V]) store(key K, value V) {
	cache.entriesMutex.Lock()
	cache.entries[key] = entry[V]{
		value:     value,
		expiresAt: cache.clock().Add(cache.ttl),
	}
	cache.entriesMutex.Unlock()
}
