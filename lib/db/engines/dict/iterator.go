package dict

import "iter"

// Iterator walks all entries of a Table bucket by bucket.
//
// The successor of the current entry is read before the entry is returned, so
// the entry returned last may be deleted while iterating. Any other change to
// the table during iteration (inserts, resizes, deleting other entries) leaves
// the iteration order undefined.
type Iterator[K, V any] struct {
	t     *Table[K, V]
	index int64 // current bucket, -1 before the first call to Next
	entry int32
	next  int32
}

// Iterator creates an iterator positioned before the first entry
func (t *Table[K, V]) Iterator() *Iterator[K, V] {
	return &Iterator[K, V]{
		t:     t,
		index: -1,
		entry: nilIdx,
		next:  nilIdx,
	}
}

// Next returns the next entry, ok is false once all entries were visited
func (it *Iterator[K, V]) Next() (e Entry[K, V], ok bool) {
	t := it.t
	for {
		if it.entry == nilIdx {
			it.index++
			if it.index >= int64(t.size) {
				return Entry[K, V]{}, false
			}
			it.entry = t.buckets[it.index]
		} else {
			it.entry = it.next
		}

		if it.entry != nilIdx {
			cur := &t.arena[it.entry]
			it.next = cur.next
			return Entry[K, V]{Key: cur.key, Val: cur.val}, true
		}
	}
}

// Release ends the iteration
func (it *Iterator[K, V]) Release() {
	it.t = nil
}

// All returns an iterator over all key-value pairs for use with range-over-func
func (t *Table[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		it := t.Iterator()
		defer it.Release()
		for {
			e, ok := it.Next()
			if !ok || !yield(e.Key, e.Val) {
				return
			}
		}
	}
}
