// Package zipmap implements a string to string map packed into a single
// byte buffer. Lookups are linear scans, which is fine for the small
// collections it is meant for and keeps the per-entry overhead at a few bytes.
//
// Buffer layout:
//
//	[status][entry or free block]...[0xFF]
//
// The parts are encoded as follows:
//   - status: one byte, bit 0 is set once a free block was created (the map is
//     fragmented). Nothing clears it and no compaction is performed.
//   - entry: [key len][key][value len][free][value][free bytes]. free is a
//     single byte counting unused bytes after the value (at most 5).
//   - free block: [0xFE][len], len covers the whole block including the marker.
//   - lengths below 253 take one byte, larger ones are written as 0xFD followed
//     by a 4 byte length in host byte order.
//
// Deleted entries become free blocks. New pairs go into the first free block
// that is large enough, otherwise the buffer grows by exactly the size of the
// new entry. Adjacent free blocks are not merged.
//
// Key Components:
//
//   - ZipMap: the buffer with its read operations (Get, Exists, Len, cursor
//     iteration, Repr). There is no cached entry count.
//   - Engine: creates and mutates buffers through an alloc.Allocator. Mutations
//     may relocate the buffer and return the handle to continue with.
//   - Store: adapter that exposes one buffer as db.KVDB.
//
// The buffer format is trusted; malformed buffers are not detected. Nothing in
// this package is safe for concurrent use.
package zipmap
