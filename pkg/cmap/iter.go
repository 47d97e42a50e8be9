package cmap

// Range iterates over all key-value pairs.
//
// The callback returns false to stop iteration. Locks are taken shard by
// shard, so the view is consistent per shard but not across shards. The
// callback must not call back into the map.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Keys returns all keys.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.Count())
	m.Range(func(key string, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Item is a key-value pair returned by Items.
type Item[V any] struct {
	Key   string
	Value V
}

// Items returns a snapshot of all key-value pairs.
func (m *Map[V]) Items() []Item[V] {
	items := make([]Item[V], 0, m.Count())
	m.Range(func(key string, value V) bool {
		items = append(items, Item[V]{Key: key, Value: value})
		return true
	})
	return items
}
