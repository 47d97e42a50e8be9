// Package command defines the respkv-bench command line using
// urfave/cli/v2:
//
//   - root.go: application, global flags and output helpers
//   - bench.go: the load generator behind "run"
//   - ping.go: connectivity check
//   - version.go: client and server build information
package command
