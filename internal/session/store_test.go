package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehandhq/stagehand/internal/chat"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func ref(ts string) chat.MessageRef {
	return chat.MessageRef{Channel: "C1", Timestamp: ts}
}

func TestPutAndGet(t *testing.T) {
	clock := newTestClock()
	s := NewStore[string](10*time.Minute, false, clock)

	s.Put("a", "hello", ref("1.1"))

	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestFixedExpiry(t *testing.T) {
	clock := newTestClock()
	s := NewStore[string](10*time.Minute, false, clock)
	s.Put("a", "hello", ref("1.1"))

	// Reads never extend a fixed-TTL entry.
	clock.Advance(9 * time.Minute)
	_, ok := s.Get("a")
	require.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok = s.Get("a")
	assert.False(t, ok, "entry past its fixed TTL reads as not-found")
}

func TestSlidingExpiryExtendsOnRead(t *testing.T) {
	clock := newTestClock()
	s := NewStore[string](30*time.Minute, true, clock)
	s.Put("a", "hello", ref("1.1"))

	for i := 0; i < 3; i++ {
		clock.Advance(20 * time.Minute)
		_, ok := s.Get("a")
		require.True(t, ok, "read %d within the sliding window", i)
	}

	clock.Advance(31 * time.Minute)
	_, ok := s.Get("a")
	assert.False(t, ok)
}

func TestExpiredUnsweptReadsAsNotFound(t *testing.T) {
	clock := newTestClock()
	s := NewStore[string](10*time.Minute, false, clock)
	s.Put("a", "hello", ref("1.1"))

	clock.Advance(11 * time.Minute)

	_, ok := s.Get("a")
	assert.False(t, ok)
	_, _, ok = s.GetByMessage(ref("1.1"))
	assert.False(t, ok)

	// The read already reclaimed it.
	assert.Equal(t, 0, s.Sweep())
}

func TestGetByMessage(t *testing.T) {
	clock := newTestClock()
	s := NewStore[string](10*time.Minute, false, clock)
	s.Put("a", "hello", ref("1.1"))
	s.Put("b", "world", ref("2.2"))

	key, v, ok := s.GetByMessage(ref("2.2"))
	require.True(t, ok)
	assert.Equal(t, "b", key)
	assert.Equal(t, "world", v)

	_, _, ok = s.GetByMessage(ref("9.9"))
	assert.False(t, ok)
}

func TestPutReplacesAndRebindsIndex(t *testing.T) {
	clock := newTestClock()
	s := NewStore[string](10*time.Minute, false, clock)
	s.Put("a", "first", ref("1.1"))
	s.Put("a", "second", ref("2.2"))

	_, _, ok := s.GetByMessage(ref("1.1"))
	assert.False(t, ok, "old message binding must not survive a replace")

	key, v, ok := s.GetByMessage(ref("2.2"))
	require.True(t, ok)
	assert.Equal(t, "a", key)
	assert.Equal(t, "second", v)
}

func TestRebind(t *testing.T) {
	clock := newTestClock()
	s := NewStore[string](10*time.Minute, false, clock)
	s.Put("a", "hello", ref("1.1"))

	require.True(t, s.Rebind("a", ref("3.3")))

	_, _, ok := s.GetByMessage(ref("1.1"))
	assert.False(t, ok)
	key, _, ok := s.GetByMessage(ref("3.3"))
	require.True(t, ok)
	assert.Equal(t, "a", key)

	assert.False(t, s.Rebind("missing", ref("4.4")))
}

func TestUpdate(t *testing.T) {
	clock := newTestClock()
	s := NewStore[[]int](10*time.Minute, false, clock)
	s.Put("a", []int{1}, ref("1.1"))

	ok := s.Update("a", func(v *[]int) { *v = append(*v, 2) })
	require.True(t, ok)

	v, _ := s.Get("a")
	assert.Equal(t, []int{1, 2}, v)

	clock.Advance(11 * time.Minute)
	assert.False(t, s.Update("a", func(v *[]int) { *v = nil }))
}

func TestSweep(t *testing.T) {
	clock := newTestClock()
	s := NewStore[string](10*time.Minute, false, clock)
	s.Put("a", "old", ref("1.1"))

	clock.Advance(5 * time.Minute)
	s.Put("b", "new", ref("2.2"))

	clock.Advance(6 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())

	_, ok := s.Get("b")
	assert.True(t, ok)
}

func TestDelete(t *testing.T) {
	clock := newTestClock()
	s := NewStore[string](10*time.Minute, false, clock)
	s.Put("a", "hello", ref("1.1"))

	s.Delete("a")

	_, ok := s.Get("a")
	assert.False(t, ok)
	_, _, ok = s.GetByMessage(ref("1.1"))
	assert.False(t, ok)
}
