// Package main provides the entry point for respkv-bench.
//
// respkv-bench drives SET/GET load against a respkv server and reports
// throughput:
//
//	respkv-bench --addr localhost:6379 run --clients 100 --requests 100000
//	respkv-bench ping --count 3
package main

import (
	"os"

	"github.com/yndnr/respkv/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
