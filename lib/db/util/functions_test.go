package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenHash(t *testing.T) {
	require.EqualValues(t, 5381, GenHash(nil))
	// 5381*33 + 'a'
	require.EqualValues(t, 177670, GenHash([]byte("a")))
	// (5381*33 + 'a')*33 + 'b'
	require.EqualValues(t, 5863208, GenHash([]byte("ab")))
	require.NotEqual(t, GenHash([]byte("ab")), GenHash([]byte("ba")))
}

func TestIntHash(t *testing.T) {
	require.Equal(t, IntHash(42), IntHash(42))

	// consecutive integers must not land in consecutive low bits
	seen := make(map[uint32]bool)
	for i := uint32(0); i < 64; i++ {
		seen[IntHash(i)&63] = true
	}
	require.Greater(t, len(seen), 16)
	require.EqualValues(t, 7, IdentityHash(7))
}

func TestHashFuncByName(t *testing.T) {
	key := []byte("some-key")
	for _, name := range []string{"djb", "fnv", "xxhash", "farm"} {
		fn, err := HashFuncByName(name)
		require.NoError(t, err, name)
		require.Equal(t, fn(key), fn(key), name)
	}

	fn, err := HashFuncByName("")
	require.NoError(t, err)
	require.Equal(t, GenHash(key), fn(key))

	_, err = HashFuncByName("md5")
	require.Error(t, err)
}

func TestGenerateSeed(t *testing.T) {
	require.NotEqual(t, GenerateSeed(), GenerateSeed())
}
