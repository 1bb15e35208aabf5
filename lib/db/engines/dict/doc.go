// Package dict implements an in-memory hash table with separate chaining.
//
// The table maps keys to values of any type. How keys are hashed and compared
// and whether keys and values are copied into the table is decided by a
// capability descriptor (Type) given at creation time. The package ships
// descriptors for byte string keys (CopyKeyType, SharedType, CopyKeyValueType)
// and for integer keys (IntType).
//
// Key Components:
//
//   - Table: The bucket array and its entries. The number of buckets is always
//     zero or a power of two (min 4). Before an insert the table doubles once it
//     holds as many entries as it has buckets, and every entry is rehashed into
//     the new array at once. Resize shrinks a table to the smallest size that
//     still holds all entries. Entries are kept in an arena and chained by index;
//     freed slots are reused by later inserts.
//
//   - Iterator: Visits buckets in index order and chains from head to tail. The
//     successor is read ahead, so the entry returned last may be deleted.
//
//   - Stats: Chain length summary of a table (like the classic table stats
//     printout), collected with a go-metrics histogram.
//
//   - Store: Adapter that exposes a table with copied byte string keys and
//     values as db.KVDB.
//
// Memory used by buckets, entries and copied keys and values is accounted
// through an alloc.Allocator. Depending on its policy an exhausted allocator
// either panics or makes the failing operation return common.ErrOutOfMemory;
// in the latter case the table is left unchanged.
//
// A Table is not safe for concurrent use.
package dict
