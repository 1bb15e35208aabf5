package zipmap

import (
	"testing"

	"github.com/ValentinKolb/kvcore/lib/db"
	dbtesting "github.com/ValentinKolb/kvcore/lib/db/testing"
	"github.com/stretchr/testify/require"
)

func newStore(t testing.TB) db.KVDB {
	s, err := NewStore(nil)
	require.NoError(t, err)
	return s
}

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "Zipmap", func() db.KVDB {
		return newStore(t)
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "Zipmap", func() db.KVDB {
		return newStore(b)
	})
}

func TestStoreInfo(t *testing.T) {
	s, err := NewStore(nil)
	require.NoError(t, err)
	require.True(t, s.SupportsFeature(db.FeatureRepr|db.FeatureRandomKey))
	require.False(t, s.SupportsFeature(db.FeatureResize))

	_, err = s.Set([]byte("a"), []byte("1"))
	require.NoError(t, err)
	_, err = s.Set([]byte("b"), []byte("2"))
	require.NoError(t, err)
	s.Delete([]byte("a"))

	info := s.GetInfo()
	require.Equal(t, db.ImplZipmap, info.DbType)
	require.Equal(t, 1, info.Entries)
	require.Equal(t, len(s.Map()), info.SizeBytes)
	require.Equal(t, "{status 1}{5 empty block}{key 1}b{value 1}2{end}", s.Repr())

	require.NoError(t, s.Close())
	require.Equal(t, "{status 0}{end}", s.Repr())
}
