// Package benchmark provides performance benchmarks for respkv.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Run a single group with a longer bench time:
//
//	go test -bench=BenchmarkStore -benchmem -benchtime=10s ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
