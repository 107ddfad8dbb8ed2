package expiry

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	createdAt time.Time
}

// Store is a mutex-guarded map whose entries live for a fixed TTL.
// Entries past their TTL are invisible to reads and removed by Sweep.
type Store[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Store or a Janitor.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now as the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewStore creates an empty store whose entries expire after ttl.
func NewStore[K comparable, V any](ttl time.Duration, opts ...Option) *Store[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[K, V]{
		entries: make(map[K]entry[V]),
		ttl:     ttl,
		now:     o.now,
	}
}

// TTL returns the lifetime of an entry.
func (s *Store[K, V]) TTL() time.Duration { return s.ttl }

// Put inserts or overwrites key, stamped with the current time.
func (s *Store[K, V]) Put(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry[V]{value: value, createdAt: s.now()}
}

// PutIfAbsent inserts key only when no live entry exists for it.
// It reports whether the value was stored.
func (s *Store[K, V]) PutIfAbsent(key K, value V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if e, ok := s.entries[key]; ok && !s.expired(e, now) {
		return false
	}
	s.entries[key] = entry[V]{value: value, createdAt: now}
	return true
}

// Get returns the live value stored under key.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || s.expired(e, s.now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Has reports whether a live entry exists for key.
func (s *Store[K, V]) Has(key K) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete removes key and reports whether a live entry was removed.
func (s *Store[K, V]) Delete(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	delete(s.entries, key)
	return !s.expired(e, s.now())
}

// Sweep removes every entry older than the TTL at now and returns how many
// were removed.
func (s *Store[K, V]) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (s *Store[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store[K, V]) expired(e entry[V], now time.Time) bool {
	return now.Sub(e.createdAt) > s.ttl
}
