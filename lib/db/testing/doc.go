// Package testing provides standardised tests and benchmarks for
// engine adapters that satisfy the db.KVDB interface.
//
// The package contains:
//   - testing: A conformance suite for the KVDB contract (copy semantics,
//     insert/update reporting, deletes, iteration, random keys)
//   - benchmark: Throughput tests for the common operations over a bounded
//     key space, usable from go test and from the cli
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() db.KVDB {
//		return NewMyStore()
//	}
//
//	// Running the standard test suite
//	dbtesting.RunKVDBTests(t, "MyStore", factory)
//
//	// Running performance benchmarks
//	dbtesting.RunKVDBBenchmarks(b, "MyStore", factory)
package testing
