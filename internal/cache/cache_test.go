package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, *time.Time) {
	t.Helper()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	opts = append(opts, WithClock(func() time.Time { return now }), WithSweepInterval(time.Hour))
	s := New(opts...)
	t.Cleanup(s.Close)

	return s, &now
}

func TestGetReturnsLiveValue(t *testing.T) {
	s, _ := newTestStore(t)

	s.Set("k", "v", time.Minute)

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestGetExpiresLazily(t *testing.T) {
	s, now := newTestStore(t)

	s.Set("k", "v", time.Minute)
	*now = now.Add(2 * time.Minute)

	_, ok := s.Get("k")
	assert.False(t, ok, "expired entry must read as absent before any sweep")
	assert.Equal(t, 0, s.Len(), "lazy read should drop the entry")
}

func TestDeleteIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)

	s.Set("k", "v", time.Minute)
	s.Delete("k")
	s.Delete("k")

	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	s, now := newTestStore(t)

	s.Set("short", 1, time.Minute)
	s.Set("long", 2, time.Hour)

	*now = now.Add(10 * time.Minute)
	s.Sweep()

	assert.Equal(t, 1, s.Len())

	_, ok := s.Get("long")
	assert.True(t, ok)
}

func TestCapDropsWriteWhenNothingDoublyExpired(t *testing.T) {
	s, _ := newTestStore(t, WithMaxEntries(2))

	s.Set("a", 1, time.Minute)
	s.Set("b", 2, time.Minute)
	s.Set("c", 3, time.Minute)

	_, ok := s.Get("c")
	assert.False(t, ok, "write past the cap must be dropped")
	assert.Equal(t, 2, s.Len())
}

func TestCapEvictsDoublyExpiredEntries(t *testing.T) {
	s, now := newTestStore(t, WithMaxEntries(2))

	s.Set("a", 1, time.Minute)
	s.Set("b", 2, time.Hour)

	// Past expiry by more than its own TTL.
	*now = now.Add(3 * time.Minute)
	s.Set("c", 3, time.Minute)

	_, ok := s.Get("c")
	assert.True(t, ok, "eviction of the doubly-expired entry should make room")

	_, ok = s.Get("a")
	assert.False(t, ok)
}

func TestOverwritingExistingKeyIgnoresCap(t *testing.T) {
	s, _ := newTestStore(t, WithMaxEntries(2))

	s.Set("a", 1, time.Minute)
	s.Set("b", 2, time.Minute)
	s.Set("a", 10, time.Minute)

	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
}
