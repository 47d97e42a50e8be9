package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/cli/connection"
	"github.com/yndnr/respkv/internal/cli/output"
	"github.com/yndnr/respkv/internal/infra/buildinfo"
)

// VersionInfo pairs the client build with the server's, when reachable.
type VersionInfo struct {
	Client buildinfo.Info  `json:"client" yaml:"client"`
	Server *buildinfo.Info `json:"server,omitempty" yaml:"server,omitempty"`
	Error  string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// VersionCommand returns the "version" command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show client and server build information",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "client-only",
				Usage: "Do not query the server",
			},
		},
		Action: versionAction,
	}
}

func versionAction(c *cli.Context) error {
	info := VersionInfo{Client: buildinfo.Get()}

	if !c.Bool("client-only") {
		flags := ParseGlobalFlags(c)
		admin := connection.NewAdminClient(flags.AdminAddr, flags.Timeout)
		server, err := admin.Version(c.Context)
		if err != nil {
			info.Error = err.Error()
		} else {
			info.Server = &server
		}
	}

	if format, _ := output.ParseFormat(ParseGlobalFlags(c).Output); format == output.FormatTable {
		return render(c, versionTable(info))
	}
	return render(c, info)
}

type versionRow struct {
	Side      string `json:"side"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time" table:"built,wide"`
	GoVersion string `json:"go_version"`
}

// versionTable flattens VersionInfo into one row per side.
func versionTable(info VersionInfo) []versionRow {
	row := func(side string, bi buildinfo.Info) versionRow {
		return versionRow{Side: side, Version: bi.Version, Commit: bi.Commit, BuildTime: bi.BuildTime, GoVersion: bi.GoVersion}
	}

	rows := []versionRow{row("client", info.Client)}
	switch {
	case info.Server != nil:
		rows = append(rows, row("server", *info.Server))
	case info.Error != "":
		rows = append(rows, versionRow{Side: "server", Version: "unavailable"})
	}
	return rows
}
