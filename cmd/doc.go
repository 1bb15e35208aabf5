// Package cmd implements the command-line interface of kvcore. It runs the
// storage engines in-process, so every invocation starts from an empty store.
//
// The package is organized into several subpackages:
//
//   - kv: Commands that drive an engine (exec, demo, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See kvcore -help for a list of all commands.
package cmd
