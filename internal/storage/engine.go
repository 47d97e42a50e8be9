package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/storage/snapshot"
)

// Config configures the storage engine.
type Config struct {
	// Dir is the directory holding the snapshot file.
	Dir string

	// DBFilename is the snapshot file name inside Dir.
	DBFilename string

	// ShardCount is the number of keyspace shards (power of two, 0 = default).
	ShardCount int

	// OnExpire is called once for every key reclaimed by lazy expiry.
	OnExpire func(key string)

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Engine owns the keyspace.
type Engine struct {
	cfg    Config
	store  *memory.Store
	logger *slog.Logger
}

// New creates a new storage engine with an empty keyspace.
//
// Call Recover() after New() to load the snapshot.
func New(cfg Config) (*Engine, error) {
	if cfg.DBFilename == "" {
		return nil, fmt.Errorf("storage: dbfilename is required")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var opts []memory.Option
	if cfg.ShardCount > 0 {
		opts = append(opts, memory.WithShardCount(cfg.ShardCount))
	}
	if cfg.OnExpire != nil {
		opts = append(opts, memory.WithExpireHook(cfg.OnExpire))
	}

	return &Engine{
		cfg:    cfg,
		store:  memory.New(opts...),
		logger: cfg.Logger,
	}, nil
}

// Recover seeds the keyspace from the snapshot file. A missing file is
// not an error. Must be called before the store is shared.
func (e *Engine) Recover(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	startTime := time.Now()
	e.logger.Info("storage recovery started",
		"dir", e.cfg.Dir,
		"dbfilename", e.cfg.DBFilename)

	records, err := snapshot.Load(e.cfg.Dir, e.cfg.DBFilename)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	loaded := e.store.Load(records)
	e.logger.Info("recovery completed",
		"elapsed", time.Since(startTime),
		"key_count", loaded,
		"skipped_expired", len(records)-loaded)

	return nil
}

// Store returns the keyspace.
func (e *Engine) Store() *memory.Store {
	return e.store
}

// Close releases the engine. The keyspace is discarded.
func (e *Engine) Close() error {
	e.logger.Info("storage engine closed", "key_count", e.store.Len())
	return nil
}
