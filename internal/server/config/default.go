package config

import "time"

// Default configuration values.
const (
	DefaultRedisAddr    = "0.0.0.0:6379"
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 0 // no idle limit, clients may stay connected indefinitely

	DefaultMetricsAddr = "127.0.0.1:9121"

	DefaultDir        = "/tmp/redis-files"
	DefaultDBFilename = "dump.rdb"
	DefaultShardCount = 16

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Addr:         DefaultRedisAddr,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				IdleTimeout:  DefaultIdleTimeout,
			},
			Metrics: MetricsConfig{
				Addr: DefaultMetricsAddr,
			},
		},
		Storage: StorageSection{
			Dir:        DefaultDir,
			DBFilename: DefaultDBFilename,
			ShardCount: DefaultShardCount,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
