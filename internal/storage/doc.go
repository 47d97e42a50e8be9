// Package storage provides the storage engine for respkv.
//
// The engine owns the in-memory keyspace and seeds it once at startup
// from an RDB snapshot. Writes are never persisted back to disk.
//
// Architecture:
//
//   - Memory Store: the keyspace on a sharded concurrent map
//   - Snapshot: read-only RDB loader used during Recover
package storage
