package internal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLengthEncoding(t *testing.T) {
	for _, n := range []int{0, 1, 252, 253, 254, 255, 256, 70000} {
		l := make(Layout, 8)
		written := l.EncodeLength(0, n)
		require.Equal(t, LenBytes(n), written, "length %d", n)
		require.Equal(t, n, l.DecodeLength(0), "length %d", n)
	}

	l := make(Layout, 8)
	l.EncodeLength(0, 252)
	require.Equal(t, byte(252), l.At(0))
	l.EncodeLength(0, 253)
	require.Equal(t, BigLen, l.At(0))
}

func TestRequiredLength(t *testing.T) {
	require.Equal(t, 3, RequiredLength(0, 0))
	require.Equal(t, 4+3+3, RequiredLength(4, 3))
	require.Equal(t, 253+3+4, RequiredLength(253, 0))
	require.Equal(t, 253+253+3+8, RequiredLength(253, 253))
}

func TestEntrySpans(t *testing.T) {
	// "\x00" + key "foo" + value "bar" with 2 trailing free bytes + end
	l := Layout("\x00\x03foo\x03\x02bar..\xff")

	require.Equal(t, 4, l.RawKeyLength(1))
	require.Equal(t, 7, l.RawValueLength(5))
	require.Equal(t, 11, l.RawEntryLength(1))
	require.Equal(t, 12, l.Skip(1))
	require.True(t, l.IsEnd(12))

	require.Equal(t, []byte("foo"), l.Key(1))
	v, free := l.Value(1)
	require.Equal(t, []byte("bar"), v)
	require.Equal(t, 2, free)
}

func TestWriteAndLookup(t *testing.T) {
	l := make(Layout, 1+9+9+1)
	l.WriteEntry(1, []byte("foo"), []byte("bar"), 0)
	l.WriteEntry(10, []byte("baz"), []byte("qux"), 0)
	l[19] = End

	require.Equal(t, 1, l.Find([]byte("foo")))
	require.Equal(t, 10, l.Find([]byte("baz")))
	require.Equal(t, -1, l.Find([]byte("ba")))

	l.MarkFree(1, 9)
	require.True(t, l.IsFree(1))
	require.Equal(t, 9, l.FreeLength(1))
	require.Equal(t, -1, l.Find([]byte("foo")))
	require.Equal(t, 10, l.NextEntry(1))

	res := l.Lookup([]byte("baz"), 9)
	require.Equal(t, 10, res.Entry)
	require.Equal(t, 19, res.End)
	require.Equal(t, 1, res.FreeOff)
	require.Equal(t, 9, res.FreeLen)

	res = l.Lookup([]byte("missing"), 10)
	require.Equal(t, -1, res.Entry)
	require.Equal(t, 0, res.FreeLen)

	l.MarkFree(10, 9)
	require.Equal(t, -1, l.NextEntry(1))
}
