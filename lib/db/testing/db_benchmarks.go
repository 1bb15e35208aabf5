package testing

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/kvcore/lib/db"
)

// benchKeySpace bounds the number of distinct keys so that engines with linear
// lookups (zipmap) stay comparable with hashed ones
const benchKeySpace = 1000

// Benchmark is a named benchmark that runs against a fresh database
type Benchmark struct {
	Name string
	Fn   func(b *testing.B, factory DBFactory)
}

// Benchmarks returns all benchmarks of the suite. The cli uses it to run them
// outside of go test.
func Benchmarks() []Benchmark {
	return []Benchmark{
		{"Set", func(b *testing.B, f DBFactory) { benchmarkSet(b, f()) }},
		{"SetExisting", func(b *testing.B, f DBFactory) { benchmarkSetExisting(b, f()) }},
		{"SetLargeValue", func(b *testing.B, f DBFactory) { benchmarkSetLargeValue(b, f()) }},
		{"Get", func(b *testing.B, f DBFactory) { benchmarkGet(b, f()) }},
		{"Delete", func(b *testing.B, f DBFactory) { benchmarkDelete(b, f()) }},
		{"Has", func(b *testing.B, f DBFactory) { benchmarkHas(b, f()) }},
		{"Has(not)", func(b *testing.B, f DBFactory) { benchmarkHasNot(b, f()) }},
		{"RandomKey", func(b *testing.B, f DBFactory) { benchmarkRandomKey(b, f()) }},
		{"MixedUsage", func(b *testing.B, f DBFactory) { benchmarkMixedUsage(b, f()) }},
	}
}

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementations
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		for _, bench := range Benchmarks() {
			b.Run(bench.Name, func(b *testing.B) {
				bench.Fn(b, factory)
			})
		}
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func benchKeys(prefix string) [][]byte {
	keys := make([][]byte, benchKeySpace)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("%s-%d", prefix, i))
	}
	return keys
}

func fill(database db.KVDB, keys [][]byte) {
	for i, key := range keys {
		_, _ = database.Set(key, []byte(fmt.Sprintf("test-value-%d", i)))
	}
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Set operation
func benchmarkSet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)

	keys := benchKeys("test-key")
	value := []byte("test-value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = database.Set(keys[i%len(keys)], value)
	}
}

// Benchmark for Set operation with existing keys
func benchmarkSetExisting(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)

	keys := benchKeys("test-key")
	fill(database, keys)
	values := [][]byte{[]byte("short"), []byte("a somewhat longer value")}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = database.Set(keys[i%len(keys)], values[i%2])
	}
}

// Benchmark for Set operation with large values
func benchmarkSetLargeValue(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)

	keys := benchKeys("large-key")[:16]
	largeValue := make([]byte, 64*1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = database.Set(keys[i%len(keys)], largeValue)
	}
}

// Benchmark for Get operation
func benchmarkGet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureGet)

	keys := benchKeys("test-key")
	fill(database, keys)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Get(keys[i%len(keys)])
	}
}

// Benchmark for Delete operation, every deleted key is set again
func benchmarkDelete(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureDelete)

	keys := benchKeys("test-key")
	fill(database, keys)
	value := []byte("value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := keys[i%len(keys)]
		database.Delete(key)
		_, _ = database.Set(key, value)
	}
}

// Benchmark for Has operation on missing keys
func benchmarkHasNot(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureHas)

	fill(database, benchKeys("test-key"))
	missing := benchKeys("missing-key")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Has(missing[i%len(missing)])
	}
}

// Benchmark for Has operation
func benchmarkHas(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureHas)

	keys := benchKeys("test-key")
	fill(database, keys)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Has(keys[i%len(keys)])
	}
}

// Benchmark for RandomKey operation
func benchmarkRandomKey(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureRandomKey)

	fill(database, benchKeys("test-key"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.RandomKey()
	}
}

// Benchmark for mixed usage patterns
func benchmarkMixedUsage(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureGet)
	requireFeature(b, database, db.FeatureDelete)
	requireFeature(b, database, db.FeatureHas)

	keys := benchKeys("test-key")
	fill(database, keys)
	value := []byte("mixed-value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := keys[(i*7)%len(keys)]

		// Select operation (0-3: get, set, delete, has)
		switch i % 4 {
		case 0:
			database.Get(key)
		case 1:
			_, _ = database.Set(key, value)
		case 2:
			database.Delete(key)
		case 3:
			database.Has(key)
		}
	}
}
