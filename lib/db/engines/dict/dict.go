package dict

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"unsafe"

	"github.com/ValentinKolb/kvcore/lib/alloc"
	"github.com/ValentinKolb/kvcore/lib/common"
	"github.com/ValentinKolb/kvcore/lib/db/util"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
)

var plog = logger.GetLogger(common.LoggerDict)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// InitialSize is the number of buckets of a table after the first insert
	InitialSize = 4

	// maxSize caps the bucket array so that every index fits into the 32 bit hash
	maxSize = 1 << 31

	// nilIdx terminates a chain and marks an empty bucket
	nilIdx int32 = -1

	bucketBytes = int(unsafe.Sizeof(int32(0)))
)

// ReplaceResult tells whether Replace created a new entry or updated an existing one
type ReplaceResult int

const (
	Inserted ReplaceResult = iota
	Updated
)

func (r ReplaceResult) String() string {
	if r == Inserted {
		return "Inserted"
	}
	return "Updated"
}

// --------------------------------------------------------------------------
// Core Table structure
// --------------------------------------------------------------------------

// Entry is a snapshot of a key-value pair stored in a Table
type Entry[K, V any] struct {
	Key K
	Val V
}

// entry is the arena representation of a key-value pair
type entry[K, V any] struct {
	key  K
	val  V
	next int32 // arena index of the next entry in the same bucket
}

// Table is a chained hash table.
//
// Entries live in an arena and are linked by index. Bucket i holds the arena
// index of the first entry whose hash&sizemask equals i. New entries are put at
// the head of their chain.
//
// Thread-safety: A Table is not safe for concurrent use.
type Table[K, V any] struct {
	typ      Type[K, V]
	privdata any

	buckets  []int32 // heads of the chains, len(buckets) == size
	size     uint64  // always 0 or a power of two >= InitialSize
	sizemask uint64
	used     uint64

	arena     []entry[K, V]
	freeSlot  int32 // first reusable arena slot, linked through entry.next
	entrySize int

	alloc      alloc.Allocator
	rand       *rand.Rand
	expansions gometrics.Counter
}

type config struct {
	alloc alloc.Allocator
	rand  *rand.Rand
}

// Option configures a Table at creation time
type Option func(c *config)

// WithAllocator accounts the bucket array and entries on a (default: alloc.Default())
func WithAllocator(a alloc.Allocator) Option {
	return func(c *config) {
		c.alloc = a
	}
}

// WithRand sets the random source used by RandomEntry
func WithRand(r *rand.Rand) Option {
	return func(c *config) {
		c.rand = r
	}
}

// New creates an empty table (size 0) for the descriptor typ.
// privdata is kept with the table and can be read back with PrivData.
func New[K, V any](typ Type[K, V], privdata any, opts ...Option) *Table[K, V] {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.alloc == nil {
		c.alloc = alloc.Default()
	}
	if c.rand == nil {
		c.rand = rand.New(rand.NewPCG(util.GenerateSeed(), util.GenerateSeed()))
	}

	t := &Table[K, V]{
		typ:        typ,
		privdata:   privdata,
		freeSlot:   nilIdx,
		alloc:      c.alloc,
		rand:       c.rand,
		expansions: gometrics.NewCounter(),
	}
	var e entry[K, V]
	t.entrySize = int(unsafe.Sizeof(e))
	return t
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Len returns the number of entries
func (t *Table[K, V]) Len() int {
	return int(t.used)
}

// Slots returns the number of buckets
func (t *Table[K, V]) Slots() int {
	return int(t.size)
}

// SizeMask returns the mask applied to hashes, always Slots()-1 for a non-empty bucket array
func (t *Table[K, V]) SizeMask() uint64 {
	return t.sizemask
}

// PrivData returns the value passed to New
func (t *Table[K, V]) PrivData() any {
	return t.privdata
}

// Type returns the descriptor of the table
func (t *Table[K, V]) Type() Type[K, V] {
	return t.typ
}

// Expansions returns how often the bucket array was rebuilt
func (t *Table[K, V]) Expansions() int64 {
	return t.expansions.Count()
}

// --------------------------------------------------------------------------
// Resizing
// --------------------------------------------------------------------------

// nextPower returns the smallest power of two >= size, at least InitialSize
func nextPower(size uint64) uint64 {
	if size >= maxSize {
		return maxSize
	}
	i := uint64(InitialSize)
	for i < size {
		i *= 2
	}
	return i
}

// Expand rebuilds the bucket array with room for at least size buckets
// (rounded up to a power of two, min InitialSize) and rehashes every entry.
//
// Entries are moved with head insertion, so chains that end up in the same
// new bucket come out in reverse order.
//
// A size smaller than the number of entries is rejected with common.ErrCapacity
// and the table is left untouched.
func (t *Table[K, V]) Expand(size uint64) error {
	if t.used > size {
		return common.Errorf(common.RetCCapacity, "cannot resize to %d buckets, table holds %d entries", size, t.used)
	}

	realsize := nextPower(size)
	if err := t.alloc.Reserve(int(realsize) * bucketBytes); err != nil {
		return err
	}

	buckets := make([]int32, realsize)
	for i := range buckets {
		buckets[i] = nilIdx
	}
	mask := realsize - 1

	// move all entries, an empty old table (size 0) just creates the new one
	remaining := t.used
	for i := uint64(0); i < t.size && remaining > 0; i++ {
		idx := t.buckets[i]
		for idx != nilIdx {
			e := &t.arena[idx]
			next := e.next

			h := uint64(t.typ.Hash(e.key)) & mask
			e.next = buckets[h]
			buckets[h] = idx
			remaining--

			idx = next
		}
	}
	if remaining != 0 {
		panic(fmt.Sprintf("dict: %d entries lost while rehashing", remaining))
	}

	t.alloc.Release(len(t.buckets) * bucketBytes)
	plog.Debugf("expanded table from %d to %d buckets (%d entries)", t.size, realsize, t.used)

	t.buckets = buckets
	t.size = realsize
	t.sizemask = mask
	t.expansions.Inc(1)
	return nil
}

// Resize shrinks or grows the table to the smallest size that holds all entries
// (power of two, min InitialSize).
func (t *Table[K, V]) Resize() error {
	minimal := t.used
	if minimal < InitialSize {
		minimal = InitialSize
	}
	return t.Expand(minimal)
}

// expandIfNeeded creates the initial bucket array or doubles it once the table is full
func (t *Table[K, V]) expandIfNeeded() error {
	if t.size == 0 {
		return t.Expand(InitialSize)
	}
	if t.used == t.size {
		return t.Expand(t.size * 2)
	}
	return nil
}

// --------------------------------------------------------------------------
// Arena
// --------------------------------------------------------------------------

func (t *Table[K, V]) newEntry() (int32, error) {
	if err := t.alloc.Reserve(t.entrySize); err != nil {
		return nilIdx, err
	}

	if t.freeSlot != nilIdx {
		idx := t.freeSlot
		t.freeSlot = t.arena[idx].next
		return idx, nil
	}

	t.arena = append(t.arena, entry[K, V]{next: nilIdx})
	return int32(len(t.arena) - 1), nil
}

func (t *Table[K, V]) freeEntry(idx int32) {
	t.arena[idx] = entry[K, V]{next: t.freeSlot}
	t.freeSlot = idx
	t.alloc.Release(t.entrySize)
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// keyIndex returns the bucket a new entry for key belongs to.
// It grows the table first if needed and fails with common.ErrDuplicateKey if
// the key is already present.
func (t *Table[K, V]) keyIndex(key K) (uint64, error) {
	if err := t.expandIfNeeded(); err != nil {
		return 0, err
	}

	h := uint64(t.typ.Hash(key)) & t.sizemask
	for idx := t.buckets[h]; idx != nilIdx; idx = t.arena[idx].next {
		if t.typ.KeyCompare(key, t.arena[idx].key) {
			return 0, common.ErrDuplicateKey
		}
	}
	return h, nil
}

// Add inserts key with val. If the key already exists common.ErrDuplicateKey
// is returned and the entries are not modified.
func (t *Table[K, V]) Add(key K, val V) error {
	h, err := t.keyIndex(key)
	if err != nil {
		return err
	}

	idx, err := t.newEntry()
	if err != nil {
		return err
	}

	k, err := t.typ.KeyDup(key)
	if err != nil {
		t.freeEntry(idx)
		return err
	}
	v, err := t.typ.ValDup(val)
	if err != nil {
		t.typ.KeyDestroy(k)
		t.freeEntry(idx)
		return err
	}

	e := &t.arena[idx]
	e.key = k
	e.val = v
	e.next = t.buckets[h]
	t.buckets[h] = idx
	t.used++
	return nil
}

// Replace adds key with val, or overwrites the value if the key exists.
//
// The new value is installed before the old one is destroyed, which keeps
// reference counted values alive when val and the old value are the same object.
func (t *Table[K, V]) Replace(key K, val V) (ReplaceResult, error) {
	err := t.Add(key, val)
	if err == nil {
		return Inserted, nil
	}
	if !errors.Is(err, common.ErrDuplicateKey) {
		return Inserted, err
	}

	idx := t.lookup(key)
	v, err := t.typ.ValDup(val)
	if err != nil {
		return Updated, err
	}

	e := &t.arena[idx]
	old := e.val
	e.val = v
	t.typ.ValDestroy(old)
	return Updated, nil
}

// Delete removes key. If freeContents is set the descriptor's destructors are
// called for the stored key and value, otherwise ownership passes to the caller.
// Returns common.ErrKeyNotFound if the key does not exist.
func (t *Table[K, V]) Delete(key K, freeContents bool) error {
	if t.size == 0 {
		return common.ErrKeyNotFound
	}

	h := uint64(t.typ.Hash(key)) & t.sizemask
	prev := nilIdx
	for idx := t.buckets[h]; idx != nilIdx; idx = t.arena[idx].next {
		e := &t.arena[idx]
		if !t.typ.KeyCompare(key, e.key) {
			prev = idx
			continue
		}

		// unlink
		if prev != nilIdx {
			t.arena[prev].next = e.next
		} else {
			t.buckets[h] = e.next
		}

		if freeContents {
			t.typ.KeyDestroy(e.key)
			t.typ.ValDestroy(e.val)
		}
		t.freeEntry(idx)
		t.used--
		return nil
	}
	return common.ErrKeyNotFound
}

// DeleteNoFree removes key without calling the destructors
func (t *Table[K, V]) DeleteNoFree(key K) error {
	return t.Delete(key, false)
}

// Empty removes all entries, calling the destructors, and resets the table to size 0
func (t *Table[K, V]) Empty() {
	for i := uint64(0); i < t.size && t.used > 0; i++ {
		idx := t.buckets[i]
		for idx != nilIdx {
			e := &t.arena[idx]
			next := e.next
			t.typ.KeyDestroy(e.key)
			t.typ.ValDestroy(e.val)
			t.alloc.Release(t.entrySize)
			t.used--
			idx = next
		}
	}

	t.alloc.Release(len(t.buckets) * bucketBytes)
	t.buckets = nil
	t.arena = nil
	t.freeSlot = nilIdx
	t.size = 0
	t.sizemask = 0
	t.used = 0
}

// Release frees everything held by the table. The table can be reused afterward
// and behaves like a new one.
func (t *Table[K, V]) Release() {
	t.Empty()
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// lookup returns the arena index of key or nilIdx
func (t *Table[K, V]) lookup(key K) int32 {
	if t.size == 0 {
		return nilIdx
	}

	h := uint64(t.typ.Hash(key)) & t.sizemask
	for idx := t.buckets[h]; idx != nilIdx; idx = t.arena[idx].next {
		if t.typ.KeyCompare(key, t.arena[idx].key) {
			return idx
		}
	}
	return nilIdx
}

// Find returns the entry stored for key
func (t *Table[K, V]) Find(key K) (Entry[K, V], bool) {
	idx := t.lookup(key)
	if idx == nilIdx {
		return Entry[K, V]{}, false
	}
	e := &t.arena[idx]
	return Entry[K, V]{Key: e.key, Val: e.val}, true
}

// FetchValue returns the value stored for key
func (t *Table[K, V]) FetchValue(key K) (V, bool) {
	e, ok := t.Find(key)
	return e.Val, ok
}

// RandomEntry returns a random entry.
//
// A random non-empty bucket is chosen first, then a random entry within its
// chain. Every non-empty bucket is equally likely, so entries in long chains
// are picked less often than entries that are alone in their bucket.
func (t *Table[K, V]) RandomEntry() (Entry[K, V], bool) {
	if t.used == 0 {
		return Entry[K, V]{}, false
	}

	var head int32
	for {
		head = t.buckets[t.rand.Uint64()&t.sizemask]
		if head != nilIdx {
			break
		}
	}

	chainLen := 0
	for idx := head; idx != nilIdx; idx = t.arena[idx].next {
		chainLen++
	}

	idx := head
	for n := t.rand.IntN(chainLen); n > 0; n-- {
		idx = t.arena[idx].next
	}

	e := &t.arena[idx]
	return Entry[K, V]{Key: e.key, Val: e.val}, true
}
