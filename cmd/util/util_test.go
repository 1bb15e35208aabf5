package util

import (
	"strings"
	"testing"

	"github.com/ValentinKolb/kvcore/lib/common"
	"github.com/ValentinKolb/kvcore/lib/db"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := "one two three four five six seven eight nine ten eleven twelve thirteen"
	wrapped := WrapString(text)
	for _, line := range strings.Split(wrapped, "\n") {
		require.LessOrEqual(t, len(line), Wrap)
	}
	require.Equal(t, "short text", WrapString("  short   text "))
}

func TestEngineConfigFromFlags(t *testing.T) {
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "test"}
	SetupEngineFlags(cmd)
	require.NoError(t, cmd.PersistentFlags().Parse([]string{"--engine", "zipmap", "--alloc-limit", "4096", "--oom-policy", "propagate"}))
	require.NoError(t, viper.BindPFlags(cmd.PersistentFlags()))

	conf, err := GetEngineConfig()
	require.NoError(t, err)
	require.Equal(t, common.EngineZipmap, conf.Engine)
	require.Equal(t, "djb", conf.Hash)
	require.EqualValues(t, 4096, conf.AllocLimitBytes)
	require.Equal(t, common.OOMPropagate, conf.OOMPolicy)

	heap := NewAllocator(conf)
	s, err := NewStore(conf, heap)
	require.NoError(t, err)
	require.Equal(t, db.ImplZipmap, s.GetInfo().DbType)

	_, err = s.Set([]byte("k"), make([]byte, 8192))
	require.ErrorIs(t, err, common.ErrOutOfMemory)
	require.False(t, s.Has([]byte("k")))
}

func TestEngineConfigInvalid(t *testing.T) {
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "test"}
	SetupEngineFlags(cmd)
	require.NoError(t, viper.BindPFlags(cmd.PersistentFlags()))

	viper.Set("hash", "md5")
	_, err := GetEngineConfig()
	require.Error(t, err)

	viper.Set("hash", "xxhash")
	conf, err := GetEngineConfig()
	require.NoError(t, err)

	s, err := NewStore(conf, NewAllocator(conf))
	require.NoError(t, err)
	require.Equal(t, db.ImplDict, s.GetInfo().DbType)
	require.True(t, s.SupportsFeature(db.FeatureResize))
}
