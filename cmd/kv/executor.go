package kv

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ValentinKolb/kvcore/lib/common"
	"github.com/ValentinKolb/kvcore/lib/db"
	"github.com/ValentinKolb/kvcore/lib/db/engines/dict"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger(common.LoggerCLI)

// errQuit ends a command session
var errQuit = errors.New("quit")

// Executor runs text commands against a store and writes the replies to out.
//
// Commands (one per line, fields separated by whitespace):
//
//	set <key> <value>   get <key>   has <key>   del <key>
//	len   keys   random   info   repr   stats   resize   quit
type Executor struct {
	store db.KVDB
	out   io.Writer
}

// NewExecutor creates an executor for store
func NewExecutor(store db.KVDB, out io.Writer) *Executor {
	return &Executor{store: store, out: out}
}

// Exec runs a single command line. Empty lines and lines starting with # are ignored.
// Unknown commands and engine errors are returned, the session can continue.
func (e *Executor) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	plog.Debugf("exec %s %v", cmd, args)

	switch cmd {
	case "set":
		if err := expectArgs(cmd, args, 2); err != nil {
			return err
		}
		updated, err := e.store.Set([]byte(args[0]), []byte(args[1]))
		if err != nil {
			return err
		}
		if updated {
			e.printf("updated\n")
		} else {
			e.printf("inserted\n")
		}

	case "get":
		if err := expectArgs(cmd, args, 1); err != nil {
			return err
		}
		if v, ok := e.store.Get([]byte(args[0])); ok {
			e.printf("%q\n", v)
		} else {
			e.printf("(nil)\n")
		}

	case "has":
		if err := expectArgs(cmd, args, 1); err != nil {
			return err
		}
		e.printf("%t\n", e.store.Has([]byte(args[0])))

	case "del":
		if err := expectArgs(cmd, args, 1); err != nil {
			return err
		}
		e.printf("%t\n", e.store.Delete([]byte(args[0])))

	case "len":
		e.printf("%d\n", e.store.Len())

	case "keys":
		e.store.Range(func(key, value []byte) bool {
			e.printf("%q => %q\n", key, value)
			return true
		})

	case "random":
		if k, ok := e.store.RandomKey(); ok {
			e.printf("%q\n", k)
		} else {
			e.printf("(nil)\n")
		}

	case "info":
		data, err := json.MarshalIndent(e.store.GetInfo(), "", "  ")
		if err != nil {
			return err
		}
		e.printf("%s\n", data)

	case "repr":
		r, ok := e.store.(interface{ Repr() string })
		if !ok || !e.store.SupportsFeature(db.FeatureRepr) {
			return unsupported(cmd)
		}
		e.printf("%s\n", r.Repr())

	case "stats":
		if s, ok := e.store.(interface{ Stats() dict.Stats }); ok {
			e.printf("%s", s.Stats())
			return nil
		}
		info := e.store.GetInfo()
		e.printf("entries: %d, size: %d bytes\n", info.Entries, info.SizeBytes)

	case "resize":
		r, ok := e.store.(interface{ Resize() error })
		if !ok || !e.store.SupportsFeature(db.FeatureResize) {
			return unsupported(cmd)
		}
		if err := r.Resize(); err != nil {
			return err
		}
		e.printf("ok\n")

	case "quit", "exit":
		return errQuit

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// Run executes all lines. Errors are printed and do not stop the session.
func (e *Executor) Run(lines []string) {
	for _, line := range lines {
		if err := e.Exec(line); err != nil {
			if errors.Is(err, errQuit) {
				return
			}
			e.printf("ERR %v\n", err)
		}
	}
}

func (e *Executor) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e.out, format, args...)
}

func expectArgs(cmd string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s expects %d arguments, got %d", cmd, n, len(args))
	}
	return nil
}

func unsupported(cmd string) error {
	return common.Errorf(common.RetCUnsupportedOperation, "%s is not supported by this engine", cmd)
}
