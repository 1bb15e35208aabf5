package dict

import (
	"fmt"
	"math/bits"
	"math/rand/v2"
	"testing"
	"unsafe"

	"github.com/ValentinKolb/kvcore/lib/alloc"
	"github.com/ValentinKolb/kvcore/lib/common"
	"github.com/stretchr/testify/require"
)

// constType puts every key into the same bucket
type constType struct {
	SharedType[int]
	destroyedVals []int
}

func (c *constType) Hash([]byte) uint32 { return 0 }

func (c *constType) ValDestroy(v int) {
	c.destroyedVals = append(c.destroyedVals, v)
}

func newTestTable(t *testing.T) (*Table[[]byte, []byte], *alloc.Heap) {
	t.Helper()
	h := alloc.NewHeap(nil)
	return New[[]byte, []byte](NewCopyKeyValueType(h, nil), nil, WithAllocator(h)), h
}

func TestAddFindDelete(t *testing.T) {
	d, _ := newTestTable(t)

	require.Equal(t, 0, d.Slots())
	_, ok := d.Find([]byte("missing"))
	require.False(t, ok)

	require.NoError(t, d.Add([]byte("a"), []byte("1")))
	require.NoError(t, d.Add([]byte("b"), []byte("2")))
	require.Equal(t, 2, d.Len())

	e, ok := d.Find([]byte("a"))
	require.True(t, ok)
	require.Equal(t, []byte("a"), e.Key)
	require.Equal(t, []byte("1"), e.Val)

	v, ok := d.FetchValue([]byte("b"))
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)

	err := d.Add([]byte("a"), []byte("other"))
	require.ErrorIs(t, err, common.ErrDuplicateKey)
	v, _ = d.FetchValue([]byte("a"))
	require.Equal(t, []byte("1"), v)
	require.Equal(t, 2, d.Len())

	require.NoError(t, d.Delete([]byte("a"), true))
	require.ErrorIs(t, d.Delete([]byte("a"), true), common.ErrKeyNotFound)
	_, ok = d.Find([]byte("a"))
	require.False(t, ok)
	require.Equal(t, 1, d.Len())
}

func TestDeleteOnEmptyTable(t *testing.T) {
	d, _ := newTestTable(t)
	require.ErrorIs(t, d.Delete([]byte("x"), true), common.ErrKeyNotFound)
	require.ErrorIs(t, d.DeleteNoFree([]byte("x")), common.ErrKeyNotFound)
}

func TestStoredKeysAreCopies(t *testing.T) {
	d, _ := newTestTable(t)

	key := []byte("key")
	val := []byte("val")
	require.NoError(t, d.Add(key, val))
	key[0] = 'X'
	val[0] = 'X'

	v, ok := d.FetchValue([]byte("key"))
	require.True(t, ok)
	require.Equal(t, []byte("val"), v)
}

func TestExpandGrowth(t *testing.T) {
	d, _ := newTestTable(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Add([]byte(fmt.Sprintf("k%d", i)), nil))
	}

	// 0 -> 4 on the first insert, 4 -> 8 on the fifth
	require.Equal(t, 8, d.Slots())
	require.EqualValues(t, 2, d.Expansions())
	require.EqualValues(t, 7, d.SizeMask())
}

func TestSizeIsPowerOfTwo(t *testing.T) {
	d, _ := newTestTable(t)

	for i := 0; i < 1000; i++ {
		require.NoError(t, d.Add([]byte(fmt.Sprintf("key-%d", i)), []byte("v")))
		require.Equal(t, 1, bits.OnesCount(uint(d.Slots())), "size %d", d.Slots())
		require.GreaterOrEqual(t, d.Slots(), d.Len())
	}
	require.Equal(t, 1024, d.Slots())
}

func TestExpandRejectsSmallerThanUsed(t *testing.T) {
	d, _ := newTestTable(t)
	for i := 0; i < 10; i++ {
		require.NoError(t, d.Add([]byte(fmt.Sprintf("k%d", i)), nil))
	}
	slots := d.Slots()

	err := d.Expand(5)
	require.ErrorIs(t, err, common.ErrCapacity)
	require.Equal(t, slots, d.Slots())
	require.Equal(t, 10, d.Len())

	require.NoError(t, d.Expand(10))
	require.Equal(t, 16, d.Slots())
}

func TestExpandRoundsUp(t *testing.T) {
	d, _ := newTestTable(t)

	require.NoError(t, d.Expand(0))
	require.Equal(t, InitialSize, d.Slots())

	require.NoError(t, d.Expand(100))
	require.Equal(t, 128, d.Slots())

	require.NoError(t, d.Expand(128))
	require.Equal(t, 128, d.Slots())
}

func TestResizePreservesContents(t *testing.T) {
	d, _ := newTestTable(t)
	require.NoError(t, d.Expand(1024))

	for i := 0; i < 20; i++ {
		require.NoError(t, d.Add([]byte(fmt.Sprintf("k%d", i)), []byte(fmt.Sprintf("v%d", i))))
	}

	require.NoError(t, d.Resize())
	require.Equal(t, 32, d.Slots())

	for i := 0; i < 20; i++ {
		v, ok := d.FetchValue([]byte(fmt.Sprintf("k%d", i)))
		require.True(t, ok)
		require.Equal(t, []byte(fmt.Sprintf("v%d", i)), v)
	}

	// tiny tables shrink to the minimum size
	d.Empty()
	require.NoError(t, d.Add([]byte("x"), nil))
	require.NoError(t, d.Expand(64))
	require.NoError(t, d.Resize())
	require.Equal(t, InitialSize, d.Slots())
}

func TestReplace(t *testing.T) {
	d, h := newTestTable(t)

	res, err := d.Replace([]byte("k"), []byte("v1"))
	require.NoError(t, err)
	require.Equal(t, Inserted, res)

	res, err = d.Replace([]byte("k"), []byte("a longer value"))
	require.NoError(t, err)
	require.Equal(t, Updated, res)
	require.Equal(t, 1, d.Len())

	v, _ := d.FetchValue([]byte("k"))
	require.Equal(t, []byte("a longer value"), v)

	// the old value was freed
	d.Release()
	require.EqualValues(t, 0, h.Used())
}

func TestReplaceInstallsBeforeDestroy(t *testing.T) {
	typ := &constType{}
	d := New[[]byte, int](typ, nil)

	_, err := d.Replace([]byte("k"), 1)
	require.NoError(t, err)
	_, err = d.Replace([]byte("k"), 2)
	require.NoError(t, err)

	require.Equal(t, []int{1}, typ.destroyedVals)
	v, _ := d.FetchValue([]byte("k"))
	require.Equal(t, 2, v)
}

func TestDeleteNoFreeKeepsContents(t *testing.T) {
	typ := &constType{}
	d := New[[]byte, int](typ, nil)

	require.NoError(t, d.Add([]byte("a"), 1))
	require.NoError(t, d.Add([]byte("b"), 2))

	require.NoError(t, d.DeleteNoFree([]byte("a")))
	require.Empty(t, typ.destroyedVals)

	require.NoError(t, d.Delete([]byte("b"), true))
	require.Equal(t, []int{2}, typ.destroyedVals)
}

func TestHeadInsertionOrder(t *testing.T) {
	d := New[[]byte, int](&constType{}, nil)
	require.NoError(t, d.Expand(16))

	for i, k := range []string{"a", "b", "c"} {
		require.NoError(t, d.Add([]byte(k), i))
	}

	var order []string
	for k := range d.All() {
		order = append(order, string(k))
	}
	require.Equal(t, []string{"c", "b", "a"}, order)

	// a single bucket holds every entry
	st := d.Stats()
	require.Equal(t, 1, st.Slots)
	require.Equal(t, 3, st.MaxChain)
}

func TestChainDelete(t *testing.T) {
	d := New[[]byte, int](&constType{}, nil)
	for i := 0; i < 6; i++ {
		require.NoError(t, d.Add([]byte(fmt.Sprintf("k%d", i)), i))
	}

	// head, middle and tail of the chain
	for _, k := range []string{"k5", "k2", "k0"} {
		require.NoError(t, d.Delete([]byte(k), true))
	}
	for _, k := range []string{"k1", "k3", "k4"} {
		_, ok := d.Find([]byte(k))
		require.True(t, ok, k)
	}
	require.Equal(t, 3, d.Len())

	// freed arena slots are reused
	require.NoError(t, d.Add([]byte("new"), 9))
	require.Equal(t, 4, d.Len())
}

func TestIteratorVisitsAll(t *testing.T) {
	d, _ := newTestTable(t)

	it := d.Iterator()
	_, ok := it.Next()
	require.False(t, ok)

	want := make(map[string]string)
	for i := 0; i < 100; i++ {
		k, v := fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i)
		want[k] = v
		require.NoError(t, d.Add([]byte(k), []byte(v)))
	}

	got := make(map[string]string)
	it = d.Iterator()
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		got[string(e.Key)] = string(e.Val)
	}
	it.Release()
	require.Equal(t, want, got)
}

func TestIteratorDeleteCurrent(t *testing.T) {
	d, _ := newTestTable(t)
	for i := 0; i < 50; i++ {
		require.NoError(t, d.Add([]byte(fmt.Sprintf("k%d", i)), nil))
	}

	visited := 0
	it := d.Iterator()
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		visited++
		require.NoError(t, d.Delete(e.Key, false))
	}
	require.Equal(t, 50, visited)
	require.Equal(t, 0, d.Len())
}

func TestRandomEntry(t *testing.T) {
	d := New[[]byte, []byte](NewCopyKeyValueType(nil, nil), nil, WithRand(rand.New(rand.NewPCG(7, 7))))

	_, ok := d.RandomEntry()
	require.False(t, ok)

	keys := make(map[string]bool)
	for i := 0; i < 32; i++ {
		k := fmt.Sprintf("k%d", i)
		keys[k] = true
		require.NoError(t, d.Add([]byte(k), nil))
	}

	seen := make(map[string]bool)
	for i := 0; i < 5000; i++ {
		e, ok := d.RandomEntry()
		require.True(t, ok)
		require.True(t, keys[string(e.Key)])
		seen[string(e.Key)] = true
	}
	require.Len(t, seen, 32)
}

func TestRandomEntryWithinChain(t *testing.T) {
	d := New[[]byte, int](&constType{}, nil, WithRand(rand.New(rand.NewPCG(1, 2))))
	for i := 0; i < 4; i++ {
		require.NoError(t, d.Add([]byte(fmt.Sprintf("k%d", i)), i))
	}

	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		e, _ := d.RandomEntry()
		seen[e.Val] = true
	}
	require.Len(t, seen, 4)
}

func TestEmptyResetsTable(t *testing.T) {
	d, h := newTestTable(t)
	for i := 0; i < 100; i++ {
		require.NoError(t, d.Add([]byte(fmt.Sprintf("k%d", i)), []byte("value")))
	}
	require.Positive(t, h.Used())

	d.Empty()
	require.Equal(t, 0, d.Len())
	require.Equal(t, 0, d.Slots())
	require.EqualValues(t, 0, h.Used())

	// usable again
	require.NoError(t, d.Add([]byte("x"), []byte("y")))
	require.Equal(t, InitialSize, d.Slots())
}

func TestOutOfMemoryPropagates(t *testing.T) {
	h := alloc.NewHeap(&alloc.Options{Limit: 10, Policy: common.OOMPropagate})
	d := New[[]byte, []byte](NewCopyKeyValueType(h, nil), nil, WithAllocator(h))

	err := d.Add([]byte("k"), []byte("v"))
	require.ErrorIs(t, err, common.ErrOutOfMemory)
	require.Equal(t, 0, d.Len())
	require.Equal(t, 0, d.Slots())
	require.EqualValues(t, 0, h.Used())
}

func TestOutOfMemoryDuringDupRollsBack(t *testing.T) {
	var e entry[[]byte, []byte]
	entrySize := int64(unsafe.Sizeof(e))

	// room for the buckets, the entry and the key but not the value
	limit := int64(InitialSize*bucketBytes) + entrySize + 1 + 2
	h := alloc.NewHeap(&alloc.Options{Limit: limit, Policy: common.OOMPropagate})
	d := New[[]byte, []byte](NewCopyKeyValueType(h, nil), nil, WithAllocator(h))

	err := d.Add([]byte("k"), []byte("value"))
	require.ErrorIs(t, err, common.ErrOutOfMemory)
	require.Equal(t, 0, d.Len())
	require.EqualValues(t, InitialSize*bucketBytes, h.Used())

	require.NoError(t, d.Add([]byte("k"), []byte("v")))
	d.Release()
	require.EqualValues(t, 0, h.Used())
}

func TestOutOfMemoryFatal(t *testing.T) {
	h := alloc.NewHeap(&alloc.Options{Limit: 10})
	d := New[[]byte, []byte](NewCopyKeyValueType(h, nil), nil, WithAllocator(h))

	require.Panics(t, func() {
		_ = d.Add([]byte("k"), []byte("v"))
	})
}

func TestIntKeys(t *testing.T) {
	d := New[uint32, string](IntType[string]{}, "priv")
	require.Equal(t, "priv", d.PrivData())

	for i := uint32(0); i < 100; i++ {
		require.NoError(t, d.Add(i, fmt.Sprint(i)))
	}
	for i := uint32(0); i < 100; i++ {
		v, ok := d.FetchValue(i)
		require.True(t, ok)
		require.Equal(t, fmt.Sprint(i), v)
	}
}

func TestCopyKeyTypeSharesValues(t *testing.T) {
	type obj struct{ n int }
	d := New[[]byte, *obj](NewCopyKeyType[*obj](nil, nil), nil)

	o := &obj{n: 1}
	require.NoError(t, d.Add([]byte("k"), o))
	o.n = 2

	v, _ := d.FetchValue([]byte("k"))
	require.Same(t, o, v)
	require.Equal(t, 2, v.n)
}

func TestStats(t *testing.T) {
	d, _ := newTestTable(t)
	require.Contains(t, d.Stats().String(), "No stats available")

	for i := 0; i < 100; i++ {
		require.NoError(t, d.Add([]byte(fmt.Sprintf("k%d", i)), nil))
	}

	st := d.Stats()
	require.Equal(t, 128, st.Size)
	require.Equal(t, 100, st.Entries)
	require.Positive(t, st.Slots)
	require.GreaterOrEqual(t, st.MaxChain, 1)
	require.InDelta(t, st.AvgChainCounted, st.AvgChainComputed, 1e-9)

	total := 0
	for i, n := range st.Distribution {
		total += i * n
	}
	require.Equal(t, 100, total)
	require.Equal(t, st.Size-st.Slots, st.Distribution[0])

	out := st.String()
	require.Contains(t, out, "table size: 128")
	require.Contains(t, out, "number of elements: 100")
}
