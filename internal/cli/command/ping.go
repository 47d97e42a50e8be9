package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/cli/connection"
)

// PingResult is one PING round trip.
type PingResult struct {
	Seq  int           `json:"seq" yaml:"seq"`
	Addr string        `json:"addr" yaml:"addr"`
	RTT  time.Duration `json:"rtt" yaml:"rtt"`
}

// PingCommand returns the "ping" command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Check connectivity with PING",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "Number of pings to send",
				Value: 1,
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Delay between pings",
				Value: 0,
			},
		},
		Action: pingAction,
	}
}

func pingAction(c *cli.Context) error {
	flags := ParseGlobalFlags(c)
	count := c.Int("count")
	if count <= 0 {
		return fmt.Errorf("count must be positive, got %d", count)
	}

	client, err := connection.Dial(c.Context, flags.Addr, flags.Timeout)
	if err != nil {
		return err
	}
	defer client.Close()

	results := make([]PingResult, 0, count)
	for i := 1; i <= count; i++ {
		if i > 1 && c.Duration("interval") > 0 {
			select {
			case <-time.After(c.Duration("interval")):
			case <-c.Context.Done():
				return c.Context.Err()
			}
		}
		rtt, err := client.Ping()
		if err != nil {
			return fmt.Errorf("ping %d: %w", i, err)
		}
		results = append(results, PingResult{Seq: i, Addr: client.Addr(), RTT: rtt})
	}
	return render(c, results)
}
