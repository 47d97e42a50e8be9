package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Redis.Addr == "" {
		return errors.New("server.redis.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Redis.Addr); err != nil {
		return fmt.Errorf("server.redis.addr: %w", err)
	}
	if cfg.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Addr); err != nil {
			return fmt.Errorf("server.metrics.addr: %w", err)
		}
		if cfg.Metrics.Addr == cfg.Redis.Addr {
			return errors.New("server.metrics.addr must differ from server.redis.addr")
		}
	}

	if cfg.Redis.ReadTimeout < 0 || cfg.Redis.WriteTimeout < 0 || cfg.Redis.IdleTimeout < 0 {
		return errors.New("server.redis timeouts must not be negative")
	}
	if cfg.Redis.MaxConnections < 0 {
		return errors.New("server.redis.max_connections must not be negative")
	}
	if cfg.Redis.RateLimit < 0 || cfg.Redis.RateBurst < 0 {
		return errors.New("server.redis.rate_limit and rate_burst must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.Dir == "" {
		return errors.New("storage.dir is required")
	}
	if cfg.DBFilename == "" {
		return errors.New("storage.dbfilename is required")
	}
	if strings.ContainsAny(cfg.DBFilename, `/\`) {
		return fmt.Errorf("storage.dbfilename %q must be a file name, not a path", cfg.DBFilename)
	}
	if n := cfg.ShardCount; n < 0 || (n > 0 && n&(n-1) != 0) {
		return fmt.Errorf("storage.shard_count %d must be a power of two", n)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is not json or text", cfg.Format)
	}
	return nil
}
