package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Redis.Addr != DefaultRedisAddr {
		t.Errorf("Redis.Addr = %q, want %q", cfg.Server.Redis.Addr, DefaultRedisAddr)
	}
	if cfg.Server.Redis.ReadTimeout != DefaultReadTimeout {
		t.Errorf("Redis.ReadTimeout = %v, want %v", cfg.Server.Redis.ReadTimeout, DefaultReadTimeout)
	}
	if cfg.Server.Redis.IdleTimeout != 0 {
		t.Errorf("Redis.IdleTimeout = %v, want 0 (disabled)", cfg.Server.Redis.IdleTimeout)
	}
	if cfg.Server.Metrics.Addr != DefaultMetricsAddr {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Server.Metrics.Addr, DefaultMetricsAddr)
	}

	if cfg.Storage.Dir != "/tmp/redis-files" {
		t.Errorf("Storage.Dir = %q, want /tmp/redis-files", cfg.Storage.Dir)
	}
	if cfg.Storage.DBFilename != "dump.rdb" {
		t.Errorf("Storage.DBFilename = %q, want dump.rdb", cfg.Storage.DBFilename)
	}
	if cfg.Storage.ShardCount != DefaultShardCount {
		t.Errorf("Storage.ShardCount = %d, want %d", cfg.Storage.ShardCount, DefaultShardCount)
	}

	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, DefaultLogFormat)
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"valid", func(*ServerConfig) {}, ""},
		{"metrics disabled", func(c *ServerConfig) { c.Server.Metrics.Addr = "" }, ""},
		{"empty redis addr", func(c *ServerConfig) { c.Server.Redis.Addr = "" }, "server.redis.addr is required"},
		{"bad redis addr", func(c *ServerConfig) { c.Server.Redis.Addr = "6379" }, "server.redis.addr"},
		{"bad metrics addr", func(c *ServerConfig) { c.Server.Metrics.Addr = "nope" }, "server.metrics.addr"},
		{"same addrs", func(c *ServerConfig) { c.Server.Metrics.Addr = c.Server.Redis.Addr }, "must differ"},
		{"negative timeout", func(c *ServerConfig) { c.Server.Redis.ReadTimeout = -time.Second }, "timeouts"},
		{"negative max conns", func(c *ServerConfig) { c.Server.Redis.MaxConnections = -1 }, "max_connections"},
		{"negative rate", func(c *ServerConfig) { c.Server.Redis.RateLimit = -5 }, "rate_limit"},
		{"empty dir", func(c *ServerConfig) { c.Storage.Dir = "" }, "storage.dir is required"},
		{"empty dbfilename", func(c *ServerConfig) { c.Storage.DBFilename = "" }, "storage.dbfilename is required"},
		{"dbfilename path", func(c *ServerConfig) { c.Storage.DBFilename = "sub/dump.rdb" }, "must be a file name"},
		{"shard count zero", func(c *ServerConfig) { c.Storage.ShardCount = 0 }, ""},
		{"shard count not power of two", func(c *ServerConfig) { c.Storage.ShardCount = 12 }, "power of two"},
		{"bad log level", func(c *ServerConfig) { c.Log.Level = "verbose" }, "log.level"},
		{"bad log format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Verify(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Verify() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
