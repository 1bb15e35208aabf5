// Package alloc provides the allocator used by the kvcore storage engines.
//
// The allocator hands out byte regions and keeps a running count of the bytes
// in use. What happens when a request can not be satisfied is decided by a
// single failure hook:
//
//   - FatalOnFailure (default): the failure is logged and the process aborts
//     by panicking with a *common.Error carrying RetCOutOfMemory.
//   - PropagateOnFailure: an out-of-memory *common.Error is returned to the
//     caller, which surfaces it unchanged.
//
// The Go heap never reports exhaustion itself, so Heap accepts a byte limit.
// Requests that would push the usage above the limit are treated as failed
// allocations. This is what the tests use to drive both policies.
//
// Usage is tracked with an xsync.Counter and exported through a per-heap
// VictoriaMetrics set:
//
//	kvcore_alloc_used_bytes   gauge
//	kvcore_alloc_calls_total  counter
//	kvcore_alloc_oom_total    counter
package alloc
