// Package memory provides the in-memory keyspace for respkv.
//
// The keyspace maps string keys to domain.Entry values on top of a
// sharded concurrent map. Expiry is lazy: an expired entry stays in the
// map until a read observes it, at which point it is removed with an
// atomic compare-and-delete so that concurrent readers never resurrect
// or double-reclaim a key.
//
// Thread Safety:
//
// All operations are safe for concurrent use. Operations on one key are
// linearizable; there is no multi-key atomicity.
package memory
