// Package tests provides end-to-end tests for respkv.
//
// The server is assembled the way respkv-server does it: a storage
// engine recovered from an RDB snapshot, the RESP listener and the admin
// HTTP listener. Traffic goes through the respkv-bench clients.
package tests

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/respkv/internal/cli/command"
	"github.com/yndnr/respkv/internal/cli/connection"
	"github.com/yndnr/respkv/internal/server/config"
	"github.com/yndnr/respkv/internal/server/httpserver"
	"github.com/yndnr/respkv/internal/server/redisserver"
	"github.com/yndnr/respkv/internal/storage"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

type testServer struct {
	redisAddr string
	adminAddr string
	engine    *storage.Engine
}

// writeSnapshot writes an RDB file holding a live key, a key expiring
// in the future and one that has already expired.
func writeSnapshot(t *testing.T, dir, name string) {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("REDIS0011")
	str := func(s string) {
		buf.WriteByte(byte(len(s)))
		buf.WriteString(s)
	}
	expireMs := func(at time.Time) {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(at.UnixMilli()))
		buf.WriteByte(0xFC)
		buf.Write(b[:])
	}

	buf.WriteByte(0xFA)
	str("redis-ver")
	str("7.2.0")
	buf.Write([]byte{0xFE, 0x00, 0xFB, 0x03, 0x02})

	buf.WriteByte(0x00)
	str("apple")
	str("red")

	expireMs(time.Now().Add(time.Hour))
	buf.WriteByte(0x00)
	str("banana")
	str("yellow")

	expireMs(time.Now().Add(-time.Hour))
	buf.WriteByte(0x00)
	str("stale")
	str("gone")

	buf.WriteByte(0xFF)
	buf.Write(make([]byte, 8))

	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
}

func startStack(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	writeSnapshot(t, dir, "snap.rdb")

	cfg := config.Default()
	cfg.Server.Redis.Addr = "127.0.0.1:0"
	cfg.Server.Metrics.Addr = "127.0.0.1:0"
	cfg.Storage.Dir = dir
	cfg.Storage.DBFilename = "snap.rdb"

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := metric.NewRegistry()

	engine, err := storage.New(storage.Config{
		Dir:        cfg.Storage.Dir,
		DBFilename: cfg.Storage.DBFilename,
		ShardCount: cfg.Storage.ShardCount,
		OnExpire:   func(string) { metrics.IncKeysExpired() },
		Logger:     log,
	})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if err := engine.Recover(context.Background()); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if err := metrics.Register(metric.NewKeyspaceCollector(engine.Store().Len)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	d := redisserver.NewDispatcher(engine.Store(), config.RegistryFrom(cfg), metrics)
	redisSrv := redisserver.New(&redisserver.Config{Addr: cfg.Server.Redis.Addr}, d, nil, metrics)
	if err := redisSrv.Start(context.Background()); err != nil {
		t.Fatalf("redis Start: %v", err)
	}

	admin := httpserver.New(cfg.Server.Metrics.Addr, httpserver.NewRouter(&httpserver.RouterConfig{
		Metrics: metrics,
		Logger:  log,
		Ready:   redisSrv.Accepting,
	}))
	if err := admin.Start(nil); err != nil {
		t.Fatalf("admin Start: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = admin.Shutdown(ctx)
		_ = redisSrv.Shutdown(ctx)
		_ = engine.Close()
	})

	// Start serves in the background; wait until the listener is bound.
	deadline := time.Now().Add(2 * time.Second)
	for redisSrv.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if redisSrv.Addr() == nil {
		t.Fatal("redis server did not start")
	}

	return &testServer{
		redisAddr: redisSrv.Addr().String(),
		adminAddr: admin.Addr().String(),
		engine:    engine,
	}
}

func TestServer_SnapshotAndCommands(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	srv := startStack(t)

	c, err := connection.Dial(context.Background(), srv.redisAddr, 2*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	for k, want := range map[string]string{"apple": "red", "banana": "yellow"} {
		got, ok, err := c.Get(k)
		if err != nil || !ok || got != want {
			t.Errorf("GET %s = %q, %v, %v; want %q", k, got, ok, err, want)
		}
	}
	if _, ok, _ := c.Get("stale"); ok {
		t.Error("expired snapshot key should not be loaded")
	}

	reply, err := c.Do("CONFIG", "GET", "dbfilename")
	if err != nil || reply.String() != "[dbfilename snap.rdb]" {
		t.Errorf("CONFIG GET dbfilename = %v, %v", reply, err)
	}

	if _, err := c.Do("SET", "temp", "x", "PX", "50"); err != nil {
		t.Fatalf("SET PX: %v", err)
	}
	time.Sleep(120 * time.Millisecond)
	if _, ok, _ := c.Get("temp"); ok {
		t.Error("temp should have expired")
	}

	reply, err = c.Do("KEYS", "*")
	if err != nil || len(reply.Array) != 2 {
		t.Errorf("KEYS * = %v, %v; want apple and banana", reply, err)
	}
}

func TestServer_BenchAndMetrics(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	srv := startStack(t)

	res, err := command.RunBench(context.Background(), command.BenchConfig{
		Addr:     srv.redisAddr,
		Clients:  8,
		Requests: 400,
		Timeout:  2 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("RunBench: %v", err)
	}
	if res.Requests != 400 || res.Errors != 0 {
		t.Errorf("bench result = %+v", res)
	}
	if n := srv.engine.Store().Len(); n != 402 {
		t.Errorf("store size = %d, want 402", n)
	}

	admin := connection.NewAdminClient(srv.adminAddr, 2*time.Second)
	ready, err := admin.Ready(context.Background())
	if err != nil || !ready {
		t.Errorf("Ready() = %v, %v", ready, err)
	}

	resp, err := http.Get("http://" + srv.adminAddr + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`respkv_commands_total{command="set",result="ok"} 400`,
		`respkv_commands_total{command="get",result="ok"} 400`,
		"respkv_keyspace_keys 402",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("/metrics missing %q", want)
		}
	}
}
