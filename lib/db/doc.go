// Package db defines the interface shared by the kvcore storage engines.
//
// kvcore ships two engines with the same semantics but opposite trade-offs:
//
//   - engines/dict: a chained hash table with power-of-two bucket arrays and
//     whole-table rehashing. O(1) average lookups, per-entry overhead.
//   - engines/zipmap: a single contiguous byte buffer of length-prefixed
//     entries and free blocks. Minimal overhead, O(n) lookups, meant for small
//     collections.
//
// Both packages expose their native API (the one the rest of an engine is
// built on) plus an adapter implementing KVDB so that tools, tests and
// benchmarks can treat them uniformly.
//
// Key Components:
//
//   - KVDB Interface: Set, Get, Has, Delete, Len, Range and RandomKey over
//     byte string keys and values.
//
//   - Feature Flags: The Feature type defines capability flags that engines
//     advertise through SupportsFeature. RandomKey and Resize only exist on
//     the hash table, Repr only on the packed map.
//
//   - Database Information: DatabaseInfo reports the accounted size, entry
//     count and engine specific metadata (table statistics, fragmentation).
//
// Choosing between the engines based on collection size is left to the
// caller; neither engine converts itself into the other.
//
// The testing package (github.com/ValentinKolb/kvcore/lib/db/testing) provides
// the conformance suite and benchmarks run against both adapters:
//   - RunKVDBTests: Runs a standardized test suite to validate implementations
//   - RunKVDBBenchmarks: Provides performance benchmarks for comparing implementations
package db
