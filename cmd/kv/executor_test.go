package kv

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/kvcore/cmd/util"
	"github.com/ValentinKolb/kvcore/lib/alloc"
	"github.com/ValentinKolb/kvcore/lib/common"
	"github.com/ValentinKolb/kvcore/lib/db"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, engine common.EngineType) db.KVDB {
	t.Helper()
	conf := common.DefaultEngineConfig()
	conf.Engine = engine
	s, err := util.NewStore(conf, alloc.NewHeap(nil))
	require.NoError(t, err)
	return s
}

func TestExecutorSession(t *testing.T) {
	var out bytes.Buffer
	e := NewExecutor(newTestStore(t, common.EngineDict), &out)

	e.Run([]string{
		"set foo bar",
		"SET foo baz",
		"",
		"# comment",
		"get foo",
		"has foo",
		"len",
		"del foo",
		"get foo",
		"del foo",
		"bogus",
		"get",
		"quit",
		"set never reached",
	})

	want := "inserted\n" +
		"updated\n" +
		"\"baz\"\n" +
		"true\n" +
		"1\n" +
		"true\n" +
		"(nil)\n" +
		"false\n" +
		"ERR unknown command \"bogus\"\n" +
		"ERR get expects 1 arguments, got 0\n"
	require.Equal(t, want, out.String())
}

func TestExecutorRepr(t *testing.T) {
	var out bytes.Buffer
	e := NewExecutor(newTestStore(t, common.EngineZipmap), &out)

	require.NoError(t, e.Exec("set a 1"))
	out.Reset()
	require.NoError(t, e.Exec("repr"))
	require.Equal(t, "{status 0}{key 1}a{value 1}1{end}\n", out.String())

	err := e.Exec("resize")
	require.ErrorIs(t, err, common.ErrUnsupported)
}

func TestExecutorDictOnly(t *testing.T) {
	var out bytes.Buffer
	e := NewExecutor(newTestStore(t, common.EngineDict), &out)

	require.ErrorIs(t, e.Exec("repr"), common.ErrUnsupported)

	require.NoError(t, e.Exec("set a 1"))
	require.NoError(t, e.Exec("resize"))
	out.Reset()
	require.NoError(t, e.Exec("stats"))
	require.Contains(t, out.String(), "number of elements: 1")
}

func TestExecutorRandomAndKeys(t *testing.T) {
	var out bytes.Buffer
	e := NewExecutor(newTestStore(t, common.EngineZipmap), &out)

	require.NoError(t, e.Exec("random"))
	require.Equal(t, "(nil)\n", out.String())

	require.NoError(t, e.Exec("set k v"))
	out.Reset()
	require.NoError(t, e.Exec("random"))
	require.Equal(t, "\"k\"\n", out.String())

	out.Reset()
	require.NoError(t, e.Exec("keys"))
	require.Equal(t, "\"k\" => \"v\"\n", out.String())

	out.Reset()
	require.NoError(t, e.Exec("info"))
	require.Contains(t, out.String(), "\"entries\": 1")
}
