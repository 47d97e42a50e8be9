package command

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/cli/output"
	"github.com/yndnr/respkv/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "respkv-bench",
		Usage:   "Load generator and probe for respkv servers",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			RunCommand(),
			PingCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "addr",
			Aliases: []string{"a"},
			Usage:   "RESP server address",
			EnvVars: []string{"RESPKV_ADDR"},
			Value:   "localhost:6379",
		},
		&cli.StringFlag{
			Name:    "admin-addr",
			Usage:   "Admin HTTP address of the server",
			EnvVars: []string{"RESPKV_ADMIN_ADDR"},
			Value:   "localhost:9121",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Dial and per-request timeout",
			Value: 5 * time.Second,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Addr      string
	AdminAddr string
	Timeout   time.Duration
	Output    string
	Wide      bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Addr:      c.String("addr"),
		AdminAddr: c.String("admin-addr"),
		Timeout:   c.Duration("timeout"),
		Output:    c.String("output"),
		Wide:      c.Bool("wide"),
	}
}

// render writes data in the selected output format.
func render(c *cli.Context, data any) error {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}
	return output.NewFormatter(format, flags.Wide).Format(stdout(c), data)
}

func stdout(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func stderr(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
