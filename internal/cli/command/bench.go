package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/respkv/internal/cli/connection"
	"github.com/yndnr/respkv/internal/cli/output"
)

// BenchConfig controls a benchmark run.
type BenchConfig struct {
	Addr     string
	Clients  int
	Requests int
	Timeout  time.Duration
}

// BenchResult summarises a benchmark run. One request is a SET followed
// by a GET of the same key.
type BenchResult struct {
	Addr       string        `json:"addr" yaml:"addr"`
	Clients    int           `json:"clients" yaml:"clients"`
	Requests   int64         `json:"requests" yaml:"requests"`
	Errors     int64         `json:"errors" yaml:"errors"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
	Throughput float64       `json:"throughput" yaml:"throughput" table:"commands_per_sec"`
}

// errValueMismatch is counted when GET does not return what SET stored.
var errValueMismatch = errors.New("GET returned a different value")

// RunCommand returns the "run" command.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the SET/GET load test",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "clients",
				Aliases: []string{"c"},
				Usage:   "Number of concurrent connections",
				Value:   100,
			},
			&cli.IntFlag{
				Name:    "requests",
				Aliases: []string{"n"},
				Usage:   "Total number of SET/GET pairs",
				Value:   100000,
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a progress bar on stderr",
			},
		},
		Action: benchRun,
	}
}

func benchRun(c *cli.Context) error {
	flags := ParseGlobalFlags(c)
	cfg := BenchConfig{
		Addr:     flags.Addr,
		Clients:  c.Int("clients"),
		Requests: c.Int("requests"),
		Timeout:  flags.Timeout,
	}

	var bar *output.ProgressBar
	var onProgress func(int64)
	if c.Bool("progress") {
		bar = output.NewProgressBar(stderr(c), "requests")
		bar.SetTotal(int64(cfg.Requests))
		onProgress = bar.Update
	}

	result, err := RunBench(c.Context, cfg, onProgress)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	return render(c, result)
}

// RunBench issues cfg.Requests SET/GET pairs spread over cfg.Clients
// connections. Worker i handles requests i, i+Clients, i+2*Clients and
// so on. Error replies are counted; a broken connection aborts the run.
// onProgress, when set, is called periodically with completed requests.
func RunBench(ctx context.Context, cfg BenchConfig, onProgress func(done int64)) (*BenchResult, error) {
	if cfg.Clients <= 0 {
		return nil, fmt.Errorf("clients must be positive, got %d", cfg.Clients)
	}
	if cfg.Requests <= 0 {
		return nil, fmt.Errorf("requests must be positive, got %d", cfg.Requests)
	}
	clients := min(cfg.Clients, cfg.Requests)

	var done, failed atomic.Int64

	stopProgress := startProgress(&done, onProgress)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for id := 0; id < clients; id++ {
		g.Go(func() error {
			client, err := connection.Dial(gctx, cfg.Addr, cfg.Timeout)
			if err != nil {
				return err
			}
			defer client.Close()

			for j := id; j < cfg.Requests; j += clients {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := setGet(client, j); err != nil {
					var serverErr *connection.ServerError
					if !errors.As(err, &serverErr) && !errors.Is(err, errValueMismatch) {
						return fmt.Errorf("client %d: %w", id, err)
					}
					failed.Add(1)
				}
				done.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	elapsed := time.Since(start)
	stopProgress()
	if err != nil {
		return nil, err
	}

	if onProgress != nil {
		onProgress(done.Load())
	}
	return &BenchResult{
		Addr:       cfg.Addr,
		Clients:    clients,
		Requests:   done.Load(),
		Errors:     failed.Load(),
		Elapsed:    elapsed,
		Throughput: throughput(done.Load(), elapsed),
	}, nil
}

func setGet(client *connection.Client, j int) error {
	key := "key" + strconv.Itoa(j)
	value := "value" + strconv.Itoa(j)

	if err := client.Set(key, value); err != nil {
		return err
	}
	got, ok, err := client.Get(key)
	if err != nil {
		return err
	}
	if !ok || got != value {
		return errValueMismatch
	}
	return nil
}

// startProgress reports done every 100ms until the returned stop func
// is called.
func startProgress(done *atomic.Int64, onProgress func(int64)) (stop func()) {
	if onProgress == nil {
		return func() {}
	}

	quit := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				onProgress(done.Load())
			case <-quit:
				return
			}
		}
	}()
	return func() {
		close(quit)
		<-stopped
	}
}

func throughput(requests int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(requests) / elapsed.Seconds()
}
