package zipmap

import (
	"fmt"
	"iter"
	"math"
	"strings"

	"github.com/ValentinKolb/kvcore/lib/alloc"
	"github.com/ValentinKolb/kvcore/lib/common"
	"github.com/ValentinKolb/kvcore/lib/db/engines/zipmap/internal"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger(common.LoggerZipmap)

// ZipMap is an encoded map buffer.
//
// Mutating operations of Engine may relocate the buffer. The ZipMap passed in
// must not be used after the call; continue with the returned one.
type ZipMap []byte

// Cursor is an iteration position inside a ZipMap
type Cursor int

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

// Engine creates and mutates ZipMaps. It owns no state besides the allocator,
// one engine can serve any number of maps.
type Engine struct {
	alloc alloc.Allocator
}

// NewEngine creates an engine that allocates through a (nil = alloc.Default())
func NewEngine(a alloc.Allocator) *Engine {
	if a == nil {
		a = alloc.Default()
	}
	return &Engine{alloc: a}
}

// New returns an empty map: status 0 followed by the end marker
func (e *Engine) New() (ZipMap, error) {
	zm, err := e.alloc.Alloc(2)
	if err != nil {
		return nil, err
	}
	zm[0] = 0
	zm[1] = internal.End
	return zm, nil
}

// Free releases the buffer. zm must not be used afterward.
func (e *Engine) Free(zm ZipMap) {
	e.alloc.Free(zm)
}

// Set maps key to val. updated reports whether the key was present before.
//
// An existing entry is overwritten in place if its span is large enough.
// Otherwise the entry is turned into a free block and the pair is written to
// the first free block that fits, or appended after growing the buffer by
// exactly the size of the new entry.
//
// If growing fails the original map is returned unchanged with the error.
func (e *Engine) Set(zm ZipMap, key, val []byte) (_ ZipMap, updated bool, err error) {
	if uint64(len(key)) > math.MaxUint32 || uint64(len(val)) > math.MaxUint32 {
		return zm, false, common.Errorf(common.RetCCapacity, "key or value too large (%d/%d bytes)", len(key), len(val))
	}

	required := internal.RequiredLength(len(key), len(val))
	res := internal.Layout(zm).Lookup(key, required)

	var span, freeLen, p int
	if res.Entry >= 0 {
		updated = true
		span = internal.Layout(zm).RawEntryLength(res.Entry)
	}

	switch {
	case res.Entry >= 0 && span >= required:
		// overwrite in place
		p, freeLen = res.Entry, span

	case res.FreeLen > 0:
		p, freeLen = res.FreeOff, res.FreeLen

	default:
		total := res.End + 1
		grown, err := e.alloc.Realloc(zm, total+required)
		if err != nil {
			return zm, false, err
		}
		plog.Debugf("grew zipmap from %d to %d bytes", total, total+required)
		zm = grown
		p, freeLen = res.End, required
		zm[total+required-1] = internal.End
	}

	l := internal.Layout(zm)

	// the old entry is too small for the new value, give its span back
	if res.Entry >= 0 && p != res.Entry {
		l.MarkFree(res.Entry, span)
		zm[0] |= internal.StatusFragmented
	}

	empty := freeLen - required
	vfree := empty
	if empty > internal.ValueMaxFree {
		l.MarkFree(p+required, empty)
		zm[0] |= internal.StatusFragmented
		vfree = 0
	}

	l.WriteEntry(p, key, val, vfree)
	return zm, updated, nil
}

// Delete removes key by turning its entry into a free block.
// Adjacent free blocks are not merged.
func (e *Engine) Delete(zm ZipMap, key []byte) (ZipMap, bool) {
	l := internal.Layout(zm)
	off := l.Find(key)
	if off < 0 {
		return zm, false
	}
	l.MarkFree(off, l.RawEntryLength(off))
	zm[0] |= internal.StatusFragmented
	return zm, true
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// Get returns the value for key. The slice points into the buffer and is only
// valid until the next mutation. An empty value is a non-nil empty slice.
func (zm ZipMap) Get(key []byte) ([]byte, bool) {
	l := internal.Layout(zm)
	off := l.Find(key)
	if off < 0 {
		return nil, false
	}
	v, _ := l.Value(off)
	return v, true
}

// Exists reports whether key is present
func (zm ZipMap) Exists(key []byte) bool {
	return internal.Layout(zm).Find(key) >= 0
}

// Len counts the entries by iterating over the whole buffer
func (zm ZipMap) Len() int {
	n := 0
	for range zm.All() {
		n++
	}
	return n
}

// Fragmented reports whether a free block was ever created in the buffer.
// The flag is never cleared.
func (zm ZipMap) Fragmented() bool {
	return zm[0]&internal.StatusFragmented != 0
}

// Bytes returns the encoded buffer
func (zm ZipMap) Bytes() []byte {
	return zm
}

// FreeBytes returns the number of bytes held by free blocks and trailing free space
func (zm ZipMap) FreeBytes() int {
	l := internal.Layout(zm)
	free := 0
	for off := internal.HeaderSize; !l.IsEnd(off); {
		if l.IsFree(off) {
			free += l.FreeLength(off)
		} else {
			_, vfree := l.Value(off)
			free += vfree
		}
		off = l.Skip(off)
	}
	return free
}

// --------------------------------------------------------------------------
// Iteration
// --------------------------------------------------------------------------

// Rewind returns a cursor positioned before the first entry
func (zm ZipMap) Rewind() Cursor {
	return internal.HeaderSize
}

// Next returns the entry at or after c and the cursor following it.
// ok is false once the end marker is reached. key and val point into the
// buffer. Any mutation of the map invalidates all cursors.
func (zm ZipMap) Next(c Cursor) (key, val []byte, next Cursor, ok bool) {
	l := internal.Layout(zm)
	off := l.NextEntry(int(c))
	if off < 0 {
		return nil, nil, c, false
	}
	key = l.Key(off)
	val, _ = l.Value(off)
	return key, val, Cursor(off + l.RawEntryLength(off)), true
}

// All returns an iterator over all pairs for use with range-over-func
func (zm ZipMap) All() iter.Seq2[[]byte, []byte] {
	return func(yield func([]byte, []byte) bool) {
		c := zm.Rewind()
		for {
			k, v, next, ok := zm.Next(c)
			if !ok || !yield(k, v) {
				return
			}
			c = next
		}
	}
}

// --------------------------------------------------------------------------
// Debugging
// --------------------------------------------------------------------------

// Repr renders the buffer layout, e.g.
//
//	{status 1}{key 3}foo{value 1}!{4 empty block}{key 3}age{value 3}foo[..]{end}
//
// Trailing free bytes of a value are shown as dots in brackets.
func (zm ZipMap) Repr() string {
	l := internal.Layout(zm)
	var b strings.Builder

	fmt.Fprintf(&b, "{status %d}", zm[0])
	off := internal.HeaderSize
	for {
		switch {
		case l.IsEnd(off):
			b.WriteString("{end}")
			return b.String()
		case l.IsFree(off):
			n := l.FreeLength(off)
			fmt.Fprintf(&b, "{%d empty block}", n)
			off += n
		default:
			key := l.Key(off)
			val, vfree := l.Value(off)
			fmt.Fprintf(&b, "{key %d}%s{value %d}%s", len(key), key, len(val), val)
			if vfree > 0 {
				b.WriteString("[" + strings.Repeat(".", vfree) + "]")
			}
			off += l.RawEntryLength(off)
		}
	}
}
