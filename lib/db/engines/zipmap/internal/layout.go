package internal

import (
	"encoding/binary"
	"fmt"
)

// --------------------------------------------------------------------------
// Markers
// --------------------------------------------------------------------------

const (
	BigLen byte = 253 // length >= 253 follows as 4 bytes in host order
	Empty  byte = 254 // start of a free block
	End    byte = 255 // last byte of every buffer

	StatusFragmented byte = 1

	// ValueMaxFree is the max number of trailing free bytes after a value.
	// More slack than this is turned into a free block.
	ValueMaxFree = 5

	// HeaderSize is the size of the status byte
	HeaderSize = 1

	bigLenBytes = 5
)

// LenBytes returns the number of bytes needed to encode l
func LenBytes(l int) int {
	if l < int(BigLen) {
		return 1
	}
	return bigLenBytes
}

// RequiredLength returns the size of an entry holding a key of klen bytes and
// a value of vlen bytes without trailing free space
func RequiredLength(klen, vlen int) int {
	l := klen + vlen + 3
	if klen >= int(BigLen) {
		l += 4
	}
	if vlen >= int(BigLen) {
		l += 4
	}
	return l
}

// --------------------------------------------------------------------------
// Layout
// --------------------------------------------------------------------------

// Layout is a cursor-style view over an encoded buffer. All offsets are
// absolute positions in the buffer; offset 0 is the status byte.
//
// The buffer is trusted: an offset that does not point to a length field,
// entry or free block yields garbage or a bounds panic.
type Layout []byte

// At returns the marker or first length byte at off
func (l Layout) At(off int) byte {
	return l[off]
}

// IsEnd reports whether off points to the end marker
func (l Layout) IsEnd(off int) bool {
	return l[off] == End
}

// IsFree reports whether off points to a free block
func (l Layout) IsFree(off int) bool {
	return l[off] == Empty
}

// DecodeLength returns the length encoded at off
func (l Layout) DecodeLength(off int) int {
	b := l[off]
	if b < BigLen {
		return int(b)
	}
	return int(binary.NativeEndian.Uint32(l[off+1 : off+bigLenBytes]))
}

// EncodeLength writes n at off and returns the number of bytes written
func (l Layout) EncodeLength(off int, n int) int {
	if n < int(BigLen) {
		l[off] = byte(n)
		return 1
	}
	l[off] = BigLen
	binary.NativeEndian.PutUint32(l[off+1:off+bigLenBytes], uint32(n))
	return bigLenBytes
}

// RawKeyLength returns the span of the key at off (length field and bytes)
func (l Layout) RawKeyLength(off int) int {
	n := l.DecodeLength(off)
	return LenBytes(n) + n
}

// RawValueLength returns the span of the value at off (length field, free
// count byte, bytes and trailing free space)
func (l Layout) RawValueLength(off int) int {
	n := l.DecodeLength(off)
	used := LenBytes(n)
	return used + int(l[off+used]) + 1 + n
}

// RawEntryLength returns the full span of the entry at off
func (l Layout) RawEntryLength(off int) int {
	k := l.RawKeyLength(off)
	return k + l.RawValueLength(off+k)
}

// FreeLength returns the span of the free block at off, marker included
func (l Layout) FreeLength(off int) int {
	return l.DecodeLength(off + 1)
}

// Skip returns the offset following the entry or free block at off
func (l Layout) Skip(off int) int {
	if l.IsFree(off) {
		return off + l.FreeLength(off)
	}
	return off + l.RawEntryLength(off)
}

// Key returns the key bytes of the entry at off
func (l Layout) Key(off int) []byte {
	n := l.DecodeLength(off)
	start := off + LenBytes(n)
	return l[start : start+n : start+n]
}

// Value returns the value bytes and the trailing free count of the entry at off
func (l Layout) Value(off int) ([]byte, int) {
	voff := off + l.RawKeyLength(off)
	n := l.DecodeLength(voff)
	freeAt := voff + LenBytes(n)
	start := freeAt + 1
	return l[start : start+n : start+n], int(l[freeAt])
}

// MarkFree turns the span [off, off+span) into a free block
func (l Layout) MarkFree(off, span int) {
	if span < 2 {
		panic(fmt.Sprintf("zipmap: free block of %d bytes cannot hold its header", span))
	}
	l[off] = Empty
	l.EncodeLength(off+1, span)
}

// WriteEntry writes key and value at off with trailing free count vfree.
// The caller makes sure the span fits.
func (l Layout) WriteEntry(off int, key, val []byte, vfree int) {
	off += l.EncodeLength(off, len(key))
	off += copy(l[off:], key)
	off += l.EncodeLength(off, len(val))
	l[off] = byte(vfree)
	off++
	copy(l[off:], val)
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// LookupResult describes a full scan of a buffer
type LookupResult struct {
	Entry   int // offset of the matching entry, -1 if not found
	End     int // offset of the end marker
	FreeOff int // offset of the first free block with at least the requested size
	FreeLen int // span of that free block, 0 if none fits
}

// Lookup scans the whole buffer for key. If required > 0 the first free block
// of at least required bytes is reported as well.
func (l Layout) Lookup(key []byte, required int) LookupResult {
	res := LookupResult{Entry: -1}

	off := HeaderSize
	for !l.IsEnd(off) {
		if l.IsFree(off) {
			n := l.FreeLength(off)
			if required > 0 && n >= required && res.FreeLen == 0 {
				res.FreeOff = off
				res.FreeLen = n
			}
			off += n
			continue
		}

		if res.Entry < 0 && string(l.Key(off)) == string(key) {
			res.Entry = off
		}
		off += l.RawEntryLength(off)
	}
	res.End = off
	return res
}

// Find returns the offset of the entry for key or -1. It stops at the first match.
func (l Layout) Find(key []byte) int {
	off := HeaderSize
	for !l.IsEnd(off) {
		if l.IsFree(off) {
			off += l.FreeLength(off)
			continue
		}
		if string(l.Key(off)) == string(key) {
			return off
		}
		off += l.RawEntryLength(off)
	}
	return -1
}

// NextEntry returns the offset of the first entry at or after off, skipping
// free blocks, or -1 once the end marker is reached
func (l Layout) NextEntry(off int) int {
	for l.IsFree(off) {
		off += l.FreeLength(off)
	}
	if l.IsEnd(off) {
		return -1
	}
	return off
}
