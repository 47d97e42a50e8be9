package benchmark

import (
	"fmt"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/yndnr/respkv/internal/core/domain"
	"github.com/yndnr/respkv/internal/storage/memory"
)

// KeyCounts defines the keyspace sizes for benchmarking.
var KeyCounts = []int{1000, 10000, 100000, 500000}

// SmallKeyCounts for quick benchmarks.
var SmallKeyCounts = []int{1000, 10000}

func key(i int) string {
	return "key" + strconv.Itoa(i)
}

func value(i int) []byte {
	return []byte("value" + strconv.Itoa(i))
}

// prefillStore writes count keys; every tenth key carries a TTL.
func prefillStore(store *memory.Store, count int) {
	for i := 0; i < count; i++ {
		var ttl time.Duration
		if i%10 == 0 {
			ttl = time.Hour
		}
		store.Put(key(i), value(i), ttl)
	}
}

// records builds count snapshot records.
func records(count int) []domain.Record {
	out := make([]domain.Record, count)
	for i := range out {
		out[i] = domain.Record{Key: key(i), Value: value(i)}
	}
	return out
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithKeyCounts runs a benchmark function with various keyspace sizes.
func runWithKeyCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
