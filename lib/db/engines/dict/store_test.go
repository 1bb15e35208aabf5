package dict

import (
	"testing"

	"github.com/ValentinKolb/kvcore/lib/db"
	dbtesting "github.com/ValentinKolb/kvcore/lib/db/testing"
	"github.com/ValentinKolb/kvcore/lib/db/util"
	"github.com/stretchr/testify/require"
)

func newStore(t testing.TB, opts *StoreOptions) db.KVDB {
	s, err := NewStore(opts)
	require.NoError(t, err)
	return s
}

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "Dict", func() db.KVDB {
		return newStore(t, nil)
	})

	dbtesting.RunKVDBTests(t, "DictXXHash", func() db.KVDB {
		return newStore(t, &StoreOptions{Hash: util.HashXX, InitialSize: 64})
	})

	dbtesting.RunKVDBTests(t, "DictFarmHash", func() db.KVDB {
		return newStore(t, &StoreOptions{Hash: util.HashFarm})
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "Dict", func() db.KVDB {
		return newStore(b, nil)
	})
}

func TestStoreResize(t *testing.T) {
	s, err := NewStore(&StoreOptions{InitialSize: 1000})
	require.NoError(t, err)
	require.Equal(t, 1024, s.Table().Slots())
	require.True(t, s.SupportsFeature(db.FeatureResize|db.FeatureRandomKey))
	require.False(t, s.SupportsFeature(db.FeatureRepr))

	_, err = s.Set([]byte("a"), []byte("1"))
	require.NoError(t, err)
	require.NoError(t, s.Resize())
	require.Equal(t, InitialSize, s.Table().Slots())

	require.Equal(t, 1, s.Stats().Entries)
	require.NoError(t, s.Close())
	require.Equal(t, 0, s.Len())
}
