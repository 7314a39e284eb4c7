package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(maxSize int, ttl time.Duration) (*ResponseCache, *fakeClock) {
	c := New(Config{MaxSize: maxSize, TTL: ttl})
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c.now = clock.Now
	return c, clock
}

func TestKey_Deterministic(t *testing.T) {
	key1 := Key("测试文本")
	key2 := Key("测试文本")
	assert.Equal(t, key1, key2)
	assert.Len(t, key1, 32)

	key3 := Key("不同文本")
	assert.NotEqual(t, key1, key3)
}

func TestKey_Normalization(t *testing.T) {
	assert.Equal(t, Key("List Employees"), Key("  list employees "))
	assert.NotEqual(t, Key("list employees"), Key("list managers"))
}

func TestCache_PutAndGet(t *testing.T) {
	c, _ := newTestCache(5, time.Minute)

	_, ok := c.Get("测试文本")
	assert.False(t, ok)

	c.Put("测试文本", Response{Intent: "list_employees", StructuredDataJSON: "{}"})

	got, ok := c.Get("测试文本")
	require.True(t, ok)
	assert.Equal(t, "list_employees", got.Intent)
}

func TestCache_Expiration(t *testing.T) {
	c, clock := newTestCache(5, time.Minute)

	c.Put("text", Response{Intent: "a"})

	_, ok := c.Get("text")
	assert.True(t, ok)

	// Just past the TTL the entry must be gone, cleanup or not.
	clock.Advance(time.Minute + time.Second)
	_, ok = c.Get("text")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry should be evicted on lookup")
}

func TestCache_SizeBound(t *testing.T) {
	c, _ := newTestCache(5, time.Minute)

	for i := 0; i < 20; i++ {
		c.Put(fmt.Sprintf("text-%d", i), Response{Intent: fmt.Sprintf("intent_%d", i)})
		assert.LessOrEqual(t, c.Len(), 5)
	}
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	c, clock := newTestCache(3, time.Hour)

	c.Put("a", Response{Intent: "a"})
	clock.Advance(time.Second)
	c.Put("b", Response{Intent: "b"})
	clock.Advance(time.Second)
	c.Put("c", Response{Intent: "c"})
	clock.Advance(time.Second)

	// Nothing has expired, so the oldest entry makes room.
	c.Put("d", Response{Intent: "d"})

	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should have been evicted")
	for _, text := range []string{"b", "c", "d"} {
		_, ok := c.Get(text)
		assert.True(t, ok, "entry %q should survive", text)
	}
}

func TestCache_ExpiredPurgeBeforeEviction(t *testing.T) {
	c, clock := newTestCache(2, time.Minute)

	c.Put("a", Response{Intent: "a"})
	c.Put("b", Response{Intent: "b"})

	clock.Advance(2 * time.Minute)
	c.Put("c", Response{Intent: "c"})

	// Both old entries were expired, so only the new one remains.
	assert.Equal(t, 1, c.Len())
	got, ok := c.Get("c")
	require.True(t, ok)
	assert.Equal(t, "c", got.Intent)
}

func TestCache_OverwriteKeepsOneEntry(t *testing.T) {
	c, _ := newTestCache(5, time.Minute)

	c.Put("text", Response{Intent: "first"})
	c.Put("text", Response{Intent: "second"})

	assert.Equal(t, 1, c.Len())
	got, ok := c.Get("text")
	require.True(t, ok)
	assert.Equal(t, "second", got.Intent)
}

func TestCache_ValueCopySemantics(t *testing.T) {
	c, _ := newTestCache(5, time.Minute)

	resp := Response{Intent: "original", StructuredDataJSON: "{}"}
	c.Put("text", resp)

	// Mutating the caller's copy must not touch the cached value.
	resp.Intent = "mutated"

	got, ok := c.Get("text")
	require.True(t, ok)
	assert.Equal(t, "original", got.Intent)
}
