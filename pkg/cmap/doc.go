// Package cmap provides a sharded concurrent map keyed by string.
//
// Keys are spread over a power-of-two number of shards by their murmur3
// hash; each shard is a plain map behind its own RWMutex, so operations
// on keys in different shards never contend.
//
// Usage:
//
//	m := cmap.NewWithShards[*Entry](32)
//	m.Set("key", entry)
//	val, ok := m.Get("key")
//	m.DeleteIf("key", func(e *Entry) bool { return e.Expired(now) })
//
// Thread Safety:
//
// All operations are thread-safe. Get, Has and iteration take a read
// lock; Set, Delete and DeleteIf take the shard's write lock, which makes
// DeleteIf an atomic compare-and-delete.
package cmap
