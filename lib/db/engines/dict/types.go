package dict

import (
	"bytes"

	"github.com/ValentinKolb/kvcore/lib/alloc"
	"github.com/ValentinKolb/kvcore/lib/db/util"
)

// --------------------------------------------------------------------------
// Capability Descriptor
// --------------------------------------------------------------------------

// Type is the capability descriptor of a Table. It decides how keys are hashed
// and compared and who owns keys and values stored in the table.
//
// Duplication and destruction are optional in the sense that a descriptor may
// implement them as identity functions and no-ops; the table always calls them.
type Type[K, V any] interface {
	// Hash returns the hash of key. Only the low bits are used to pick a bucket.
	Hash(key K) uint32

	// KeyDup returns the copy of key that is stored in the table.
	KeyDup(key K) (K, error)

	// ValDup returns the copy of val that is stored in the table.
	ValDup(val V) (V, error)

	// KeyCompare reports whether k1 and k2 are the same key.
	KeyCompare(k1, k2 K) bool

	// KeyDestroy releases a key that was returned by KeyDup.
	KeyDestroy(key K)

	// ValDestroy releases a value that was returned by ValDup.
	ValDestroy(val V)
}

// --------------------------------------------------------------------------
// Canonical Descriptors (byte string keys)
// --------------------------------------------------------------------------

// byteKeys holds what all byte string descriptors share
type byteKeys struct {
	hash  util.HashFunc
	alloc alloc.Allocator
}

func newByteKeys(a alloc.Allocator, hash util.HashFunc) byteKeys {
	if a == nil {
		a = alloc.Default()
	}
	if hash == nil {
		hash = util.GenHash
	}
	return byteKeys{hash: hash, alloc: a}
}

func (b byteKeys) Hash(key []byte) uint32 {
	return b.hash(key)
}

func (b byteKeys) KeyCompare(k1, k2 []byte) bool {
	return bytes.Equal(k1, k2)
}

// CopyKeyType copies keys into the table and shares values with the caller.
// Useful when values are shared or reference counted objects.
type CopyKeyType[V any] struct {
	byteKeys
}

// NewCopyKeyType creates a descriptor that duplicates keys through a (nil = default allocator)
// and hashes them with hash (nil = util.GenHash)
func NewCopyKeyType[V any](a alloc.Allocator, hash util.HashFunc) *CopyKeyType[V] {
	return &CopyKeyType[V]{newByteKeys(a, hash)}
}

func (t *CopyKeyType[V]) KeyDup(key []byte) ([]byte, error) {
	return alloc.Dup(t.alloc, key)
}

func (t *CopyKeyType[V]) ValDup(val V) (V, error) {
	return val, nil
}

func (t *CopyKeyType[V]) KeyDestroy(key []byte) {
	t.alloc.Free(key)
}

func (t *CopyKeyType[V]) ValDestroy(V) {}

// SharedType stores keys and values as given. Both stay owned by the caller,
// e.g. interned strings that outlive the table.
type SharedType[V any] struct {
	byteKeys
}

// NewSharedType creates a descriptor that never copies, hashing keys with hash (nil = util.GenHash)
func NewSharedType[V any](hash util.HashFunc) *SharedType[V] {
	return &SharedType[V]{newByteKeys(nil, hash)}
}

func (t *SharedType[V]) KeyDup(key []byte) ([]byte, error) {
	return key, nil
}

func (t *SharedType[V]) ValDup(val V) (V, error) {
	return val, nil
}

func (t *SharedType[V]) KeyDestroy([]byte) {}

func (t *SharedType[V]) ValDestroy(V) {}

// CopyKeyValueType copies keys and values into the table.
// The table exclusively owns everything it stores.
type CopyKeyValueType struct {
	byteKeys
}

// NewCopyKeyValueType creates a descriptor that duplicates keys and values through a (nil = default
// allocator) and hashes keys with hash (nil = util.GenHash)
func NewCopyKeyValueType(a alloc.Allocator, hash util.HashFunc) *CopyKeyValueType {
	return &CopyKeyValueType{newByteKeys(a, hash)}
}

func (t *CopyKeyValueType) KeyDup(key []byte) ([]byte, error) {
	return alloc.Dup(t.alloc, key)
}

func (t *CopyKeyValueType) ValDup(val []byte) ([]byte, error) {
	return alloc.Dup(t.alloc, val)
}

func (t *CopyKeyValueType) KeyDestroy(key []byte) {
	t.alloc.Free(key)
}

func (t *CopyKeyValueType) ValDestroy(val []byte) {
	t.alloc.Free(val)
}

// --------------------------------------------------------------------------
// Integer Keys
// --------------------------------------------------------------------------

// IntType maps uint32 keys using Thomas Wang's mix function. Nothing is copied.
type IntType[V any] struct{}

func (IntType[V]) Hash(key uint32) uint32            { return util.IntHash(key) }
func (IntType[V]) KeyDup(key uint32) (uint32, error) { return key, nil }
func (IntType[V]) ValDup(val V) (V, error)           { return val, nil }
func (IntType[V]) KeyCompare(k1, k2 uint32) bool     { return k1 == k2 }
func (IntType[V]) KeyDestroy(uint32)                 {}
func (IntType[V]) ValDestroy(V)                      {}
