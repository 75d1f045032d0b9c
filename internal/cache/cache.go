// Package cache implements the in-memory TTL store backing
// verification codes, sessions and allow-list lookups. The relational
// store stays the source of truth, this only cuts lookup latency.
package cache

import (
	"sync"
	"time"
)

// DefaultSweepInterval is intentionally independent of per-entry TTLs.
const DefaultSweepInterval = 5 * time.Minute

type entry struct {
	value     any
	ttl       time.Duration
	expiresAt time.Time
}

// Store is a plain TTL map. Entries are never evicted for capacity
// reasons alone, except by the defensive cap set via WithMaxEntries.
// Not an LRU.
type Store struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int

	sweepEvery time.Duration
	done       chan struct{}
	closeOnce  sync.Once

	now func() time.Time
}

type Option func(*Store)

// WithMaxEntries caps the store. When full, a Set first evicts
// doubly-expired entries (past expiry by at least their own TTL) and
// drops the write if that frees nothing.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		s.maxEntries = n
	}
}

// WithSweepInterval overrides how often the background sweep runs.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		s.sweepEvery = d
	}
}

// WithClock replaces the time source, only used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns a started store. Callers own its lifecycle and must
// Close it on shutdown.
func New(opts ...Option) *Store {
	s := &Store{
		entries:    make(map[string]entry),
		sweepEvery: DefaultSweepInterval,
		done:       make(chan struct{}),
		now:        time.Now,
	}

	for _, o := range opts {
		o(s)
	}

	go s.sweepLoop()

	return s
}

func (s *Store) Set(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		if _, exists := s.entries[key]; !exists {
			s.evictDoublyExpiredLocked()

			if len(s.entries) >= s.maxEntries {
				return
			}
		}
	}

	s.entries[key] = entry{
		value:     value,
		ttl:       ttl,
		expiresAt: s.now().Add(ttl),
	}
}

// Get checks expiry lazily, so an entry past its TTL reads as absent
// even if the sweeper hasn't run yet.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}

	if s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}

	return e.value, true
}

func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
}

// Len reports live entries, expired-but-unswept ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Sweep removes every expired entry. The sweeper calls this
// periodically, tests call it directly.
func (s *Store) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.done:
			return
		}
	}
}

func (s *Store) evictDoublyExpiredLocked() {
	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expiresAt.Add(e.ttl)) {
			delete(s.entries, k)
		}
	}
}
