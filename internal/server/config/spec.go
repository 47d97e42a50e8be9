package config

import "time"

// ServerConfig is the root configuration for respkv-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis   RedisConfig   `koanf:"redis"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// RedisConfig configures the RESP listener.
type RedisConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// MaxConnections caps concurrent clients; 0 means unlimited.
	MaxConnections int `koanf:"max_connections"`

	// RateLimit is the per-connection command rate (commands/s); 0 disables it.
	RateLimit int `koanf:"rate_limit"`
	// RateBurst is the limiter burst size; defaults to RateLimit.
	RateBurst int `koanf:"rate_burst"`
}

// MetricsConfig configures the admin HTTP listener.
type MetricsConfig struct {
	// Addr is the listen address; empty disables the listener.
	Addr string `koanf:"addr"`
}

// StorageSection configures the keyspace and its snapshot.
type StorageSection struct {
	Dir        string `koanf:"dir"`
	DBFilename string `koanf:"dbfilename"`
	ShardCount int    `koanf:"shard_count"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
