package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/kvcore/cmd/kv"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvcore",
		Short: "in-memory key-value storage engines",
		Long: fmt.Sprintf(`kvcore (v%s)

Two in-memory key-value storage engines written in Go: an incrementally
growing chained hash table and a compact single-buffer zipmap.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvcore",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvcore v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
