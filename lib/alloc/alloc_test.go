package alloc

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ValentinKolb/kvcore/lib/common"
	"github.com/stretchr/testify/require"
)

func TestAllocAccounting(t *testing.T) {
	h := NewHeap(nil)

	b, err := h.Alloc(16)
	require.NoError(t, err)
	require.Len(t, b, 16)
	require.EqualValues(t, 16, h.Used())

	b, err = h.Realloc(b, 40)
	require.NoError(t, err)
	require.Len(t, b, 40)
	require.EqualValues(t, 40, h.Used())

	b, err = h.Realloc(b, 10)
	require.NoError(t, err)
	require.Len(t, b, 10)
	require.EqualValues(t, 10, h.Used())

	require.NoError(t, h.Reserve(100))
	require.EqualValues(t, 110, h.Used())
	h.Release(100)

	h.Free(b)
	require.EqualValues(t, 0, h.Used())
	h.Free(nil)
	require.EqualValues(t, 0, h.Used())
}

func TestReallocPreservesPrefix(t *testing.T) {
	h := NewHeap(nil)

	b, err := h.Alloc(4)
	require.NoError(t, err)
	copy(b, "abcd")

	b, err = h.Realloc(b, 8)
	require.NoError(t, err)
	require.Equal(t, []byte("abcd\x00\x00\x00\x00"), b)

	// realloc of nil behaves like alloc
	c, err := h.Realloc(nil, 3)
	require.NoError(t, err)
	require.Len(t, c, 3)
	require.EqualValues(t, 11, h.Used())
}

func TestPropagatePolicy(t *testing.T) {
	h := NewHeap(&Options{Limit: 32, Policy: common.OOMPropagate})

	b, err := h.Alloc(30)
	require.NoError(t, err)

	_, err = h.Alloc(3)
	require.Error(t, err)
	require.True(t, errors.Is(err, common.ErrOutOfMemory))
	require.EqualValues(t, 30, h.Used(), "failed allocations must not be accounted")

	_, err = h.Realloc(b, 33)
	require.ErrorIs(t, err, common.ErrOutOfMemory)
	require.EqualValues(t, 30, h.Used())

	require.ErrorIs(t, h.Reserve(10), common.ErrOutOfMemory)
	require.EqualValues(t, 2, h.Failures())

	// shrinking always succeeds
	b, err = h.Realloc(b, 2)
	require.NoError(t, err)
	require.EqualValues(t, 2, h.Used())
}

func TestFatalPolicy(t *testing.T) {
	h := NewHeap(&Options{Limit: 8})

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected the fatal policy to abort")
		err, ok := r.(error)
		require.True(t, ok)
		require.ErrorIs(t, err, common.ErrOutOfMemory)
	}()

	_, _ = h.Alloc(9)
	t.Fatal("unreachable")
}

func TestCustomFailureHandler(t *testing.T) {
	var requested []int
	h := NewHeap(&Options{
		Limit: 4,
		OnFailure: func(size int, used int64) error {
			requested = append(requested, size)
			return common.ErrOutOfMemory
		},
	})

	_, err := h.Alloc(5)
	require.ErrorIs(t, err, common.ErrOutOfMemory)
	require.Equal(t, []int{5}, requested)
}

func TestDup(t *testing.T) {
	h := NewHeap(nil)

	src := []byte("hello")
	c, err := Dup(h, src)
	require.NoError(t, err)
	require.Equal(t, src, c)

	c[0] = 'H'
	require.Equal(t, byte('h'), src[0], "dup must not share memory")
	require.EqualValues(t, 5, h.Used())
}

func TestWritePrometheus(t *testing.T) {
	h := NewHeap(nil)
	_, err := h.Alloc(7)
	require.NoError(t, err)

	var buf bytes.Buffer
	h.WritePrometheus(&buf)
	out := buf.String()

	require.True(t, strings.Contains(out, "kvcore_alloc_used_bytes 7"), out)
	require.True(t, strings.Contains(out, "kvcore_alloc_calls_total 1"), out)
	require.True(t, strings.Contains(out, "kvcore_alloc_oom_total 0"), out)
}
