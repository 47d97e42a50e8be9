// Package main provides the entry point for respkv-server.
//
// The server keeps a sharded in-memory keyspace, seeded once from an
// RDB snapshot, and serves it over the Redis protocol. An optional admin
// HTTP listener exposes Prometheus metrics and health endpoints.
//
// Usage:
//
//	respkv-server --dir /data --dbfilename dump.rdb
//	RESPKV_CONFIG=/etc/respkv.yaml respkv-server
//
// Flags other than --dir, --dbfilename and --config are ignored.
package main
