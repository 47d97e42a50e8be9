// Package output formats respkv-bench results.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned text tables from structs, slices and maps
//   - json.go / yaml.go: machine-readable output
//   - progress.go: request progress on stderr while a run is in flight
package output
