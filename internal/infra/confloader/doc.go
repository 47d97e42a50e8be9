// Package confloader provides configuration loading mechanism.
//
// This package implements a layered configuration loader on top of
// koanf, plus an fsnotify based watcher for config file changes.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables (RESPKV_ prefix)
//  3. Configuration file (YAML)
//  4. Default values (the target struct as passed in)
//
// Environment variable names are matched against the koanf tags of the
// target struct, so RESPKV_STORAGE_SHARD_COUNT resolves to
// storage.shard_count rather than storage.shard.count.
package confloader
