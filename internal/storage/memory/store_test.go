package memory

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/respkv/internal/core/domain"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestStore_PutGet(t *testing.T) {
	store := New()

	store.Put("k", []byte("v"), 0)

	got, ok := store.Get("k")
	if !ok {
		t.Fatal("Get: key not found")
	}
	if string(got) != "v" {
		t.Fatalf("Get = %q, want %q", got, "v")
	}

	if _, ok := store.Get("missing"); ok {
		t.Fatal("Get(missing) should report not found")
	}
}

func TestStore_BinaryValue(t *testing.T) {
	store := New()
	value := []byte{0x00, '\r', '\n', 0xff}

	store.Put("bin", value, 0)

	got, ok := store.Get("bin")
	if !ok || string(got) != string(value) {
		t.Fatalf("Get = %v, %v, want %v", got, ok, value)
	}
}

func TestStore_Expiry(t *testing.T) {
	clock := newFakeClock()
	var expired []string
	store := New(WithClock(clock.Now), WithExpireHook(func(key string) {
		expired = append(expired, key)
	}))

	store.Put("k", []byte("v"), 50*time.Millisecond)

	clock.Advance(49 * time.Millisecond)
	if got, ok := store.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("Get before expiry = %q, %v", got, ok)
	}

	clock.Advance(time.Millisecond)
	if _, ok := store.Get("k"); ok {
		t.Fatal("Get at expiry should report not found")
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0 after lazy reclaim", store.Len())
	}
	if len(expired) != 1 || expired[0] != "k" {
		t.Errorf("expire hook calls = %v, want [k]", expired)
	}

	if keys := store.Keys(); len(keys) != 0 {
		t.Errorf("Keys = %v, want empty", keys)
	}
}

func TestStore_OverwriteClearsTTL(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock.Now))

	store.Put("k", []byte("v1"), 10*time.Millisecond)
	store.Put("k", []byte("v2"), 0)

	clock.Advance(time.Second)
	got, ok := store.Get("k")
	if !ok || string(got) != "v2" {
		t.Fatalf("Get = %q, %v, want v2", got, ok)
	}
}

func TestStore_OverwriteExpired(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock.Now))

	store.Put("k", []byte("old"), 10*time.Millisecond)
	clock.Advance(time.Second)
	store.Put("k", []byte("new"), 0)

	got, ok := store.Get("k")
	if !ok || string(got) != "new" {
		t.Fatalf("Get = %q, %v, want new", got, ok)
	}
}

func TestStore_KeysFiltersExpired(t *testing.T) {
	clock := newFakeClock()
	hooks := 0
	store := New(WithClock(clock.Now), WithExpireHook(func(string) { hooks++ }))

	store.Put("a", []byte("1"), 0)
	store.Put("b", []byte("2"), 10*time.Millisecond)
	store.Put("c", []byte("3"), time.Hour)

	clock.Advance(time.Second)

	keys := store.Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Fatalf("Keys = %v, want [a c]", keys)
	}
	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2", store.Len())
	}
	if hooks != 1 {
		t.Errorf("expire hook calls = %d, want 1", hooks)
	}
}

func TestStore_Load(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock.Now))
	now := clock.Now()

	n := store.Load([]domain.Record{
		{Key: "plain", Value: []byte("p")},
		{Key: "future", Value: []byte("f"), ExpiresAt: now.Add(time.Minute)},
		{Key: "past", Value: []byte("x"), ExpiresAt: now.Add(-time.Minute)},
	})

	if n != 2 {
		t.Fatalf("Load = %d, want 2", n)
	}
	if _, ok := store.Get("past"); ok {
		t.Error("expired record should not be loaded")
	}
	if got, ok := store.Get("future"); !ok || string(got) != "f" {
		t.Errorf("Get(future) = %q, %v", got, ok)
	}

	clock.Advance(2 * time.Minute)
	if _, ok := store.Get("future"); ok {
		t.Error("loaded record should keep its expiry")
	}
}

func TestStore_WithShardCount(t *testing.T) {
	store := New(WithShardCount(4))
	for i := 0; i < 100; i++ {
		store.Put(strconv.Itoa(i), []byte("v"), 0)
	}
	if store.Len() != 100 {
		t.Errorf("Len = %d, want 100", store.Len())
	}
	if store.entries.ShardCount() != 4 {
		t.Errorf("ShardCount = %d, want 4", store.entries.ShardCount())
	}
}

func TestStore_ConcurrentDisjointWrites(t *testing.T) {
	store := New()
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Put("key_"+strconv.Itoa(i), []byte("value_"+strconv.Itoa(i)), 0)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		got, ok := store.Get("key_" + strconv.Itoa(i))
		if !ok || string(got) != "value_"+strconv.Itoa(i) {
			t.Fatalf("Get(key_%d) = %q, %v", i, got, ok)
		}
	}
}

func TestStore_ConcurrentExpiredReads(t *testing.T) {
	clock := newFakeClock()
	var reclaimed atomic.Int32
	store := New(WithClock(clock.Now), WithExpireHook(func(string) { reclaimed.Add(1) }))

	store.Put("k", []byte("v"), time.Millisecond)
	clock.Advance(time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := store.Get("k"); ok {
				t.Error("expired key returned a value")
			}
		}()
	}
	wg.Wait()

	if reclaimed.Load() != 1 {
		t.Errorf("reclaimed = %d, want exactly 1", reclaimed.Load())
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
}
