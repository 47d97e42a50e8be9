package cmap

import (
	"sort"
	"strconv"
	"testing"
)

func TestRange(t *testing.T) {
	m := New[int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	collected := make(map[string]int)
	m.Range(func(key string, value int) bool {
		collected[key] = value
		return true
	})

	if len(collected) != 3 {
		t.Errorf("Range collected %d items, want 3", len(collected))
	}

	for k, v := range map[string]int{"a": 1, "b": 2, "c": 3} {
		if collected[k] != v {
			t.Errorf("collected[%s] = %d, want %d", k, collected[k], v)
		}
	}
}

func TestRangeEarlyStop(t *testing.T) {
	m := New[int]()
	for i := 0; i < 100; i++ {
		m.Set(strconv.Itoa(i), i)
	}

	count := 0
	m.Range(func(string, int) bool {
		count++
		return count < 10
	})

	if count != 10 {
		t.Errorf("Range stopped at %d, want 10", count)
	}
}

func TestKeys(t *testing.T) {
	m := New[int]()
	m.Set("x", 1)
	m.Set("y", 2)
	m.Set("z", 3)

	keys := m.Keys()
	if len(keys) != 3 {
		t.Fatalf("Keys() length = %d, want 3", len(keys))
	}

	sort.Strings(keys)
	expected := []string{"x", "y", "z"}
	for i, k := range keys {
		if k != expected[i] {
			t.Errorf("keys[%d] = %q, want %q", i, k, expected[i])
		}
	}
}

func TestKeys_Empty(t *testing.T) {
	m := New[int]()
	if keys := m.Keys(); len(keys) != 0 {
		t.Errorf("Keys() = %v, want empty", keys)
	}
}

func TestItems(t *testing.T) {
	m := New[int]()
	m.Set("a", 1)
	m.Set("b", 2)

	items := m.Items()
	if len(items) != 2 {
		t.Fatalf("Items() length = %d, want 2", len(items))
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	if items[0].Key != "a" || items[0].Value != 1 {
		t.Errorf("items[0] = %+v, want {a 1}", items[0])
	}
	if items[1].Key != "b" || items[1].Value != 2 {
		t.Errorf("items[1] = %+v, want {b 2}", items[1])
	}
}
