package kv

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/ValentinKolb/kvcore/cmd/util"
	"github.com/ValentinKolb/kvcore/lib/common"
	"github.com/ValentinKolb/kvcore/lib/db/engines/zipmap"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	execCmd = &cobra.Command{
		Use:   "exec [command...]",
		Short: "Execute commands against the configured engine",
		Long: util.WrapString("Execute commands against a fresh instance of the configured engine. " +
			"Each argument is one command line, without arguments the lines are read from stdin. " +
			"Supported commands: set, get, has, del, len, keys, random, info, repr, stats, resize, quit."),
		Example: `  kvcore kv exec "set foo bar" "get foo" "repr" --engine zipmap
  printf 'set a 1\nset b 2\nstats\n' | kvcore kv exec --metrics`,
		RunE: runExec,
	}

	demoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Show how the zipmap layout changes with a sequence of writes",
		Args:  cobra.NoArgs,
		RunE:  runDemo,
	}
)

func init() {
	key := "metrics"
	execCmd.Flags().Bool(key, false, util.WrapString("Print the allocator metrics in prometheus format after the last command"))
}

func runExec(cmd *cobra.Command, args []string) (err error) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	defer recoverFatal(&err)

	executor := NewExecutor(store, cmd.OutOrStdout())
	if len(args) > 0 {
		executor.Run(args)
	} else {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read commands: %w", err)
		}
		executor.Run(lines)
	}

	if viper.GetBool("metrics") {
		heap.WritePrometheus(cmd.OutOrStdout())
	}
	return nil
}

func runDemo(cmd *cobra.Command, _ []string) (err error) {
	defer recoverFatal(&err)

	out := cmd.OutOrStdout()
	engine := zipmap.NewEngine(heap)
	zm, err := engine.New()
	if err != nil {
		return err
	}
	defer func() { engine.Free(zm) }()

	set := func(k, v string) error {
		zm, _, err = engine.Set(zm, []byte(k), []byte(v))
		return err
	}

	steps := []struct {
		title string
		run   func() error
	}{
		{"set hello=world! foo=bar foo=!", func() error {
			return errors.Join(set("hello", "world!"), set("foo", "bar"), set("foo", "!"))
		}},
		{"set foo=12345", func() error { return set("foo", "12345") }},
		{"set new=xx noval=", func() error { return errors.Join(set("new", "xx"), set("noval", "")) }},
		{"del new", func() error {
			zm, _ = engine.Delete(zm, []byte("new"))
			return nil
		}},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%-32s %s\n", step.title, zm.Repr())
	}

	_, _ = fmt.Fprintln(out)
	for k, v := range zm.All() {
		_, _ = fmt.Fprintf(out, "  %d:%s => %d:%s\n", len(k), k, len(v), v)
	}
	if v, ok := zm.Get([]byte("foo")); ok {
		_, _ = fmt.Fprintf(out, "\nfoo = %s (%d bytes total, %d free)\n", v, len(zm.Bytes()), zm.FreeBytes())
	}
	return nil
}

// recoverFatal turns the panic of the fatal oom policy into a command error
func recoverFatal(err *error) {
	r := recover()
	if r == nil {
		return
	}
	var kvErr *common.Error
	if e, ok := r.(error); ok && errors.As(e, &kvErr) {
		plog.Errorf("aborting: %v", kvErr)
		*err = kvErr
		return
	}
	fmt.Fprintf(os.Stderr, "unexpected panic: %v\n", r)
	panic(r)
}
