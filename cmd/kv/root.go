package kv

import (
	"github.com/ValentinKolb/kvcore/cmd/util"
	"github.com/ValentinKolb/kvcore/lib/alloc"
	"github.com/ValentinKolb/kvcore/lib/common"
	"github.com/ValentinKolb/kvcore/lib/db"
	"github.com/spf13/cobra"
)

var (
	engineConfig *common.EngineConfig
	heap         *alloc.Heap
	store        db.KVDB

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Run key-value operations against a local storage engine",
		PersistentPreRunE: setupEngine,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add engine flags to the KV command
	util.SetupEngineFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(execCmd)
	KeyValueCommands.AddCommand(demoCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupEngine reads the configuration and creates the allocator and the store
func setupEngine(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	conf, err := util.GetEngineConfig()
	if err != nil {
		return err
	}

	if err := common.InitLoggers(conf.LogLevel); err != nil {
		return err
	}

	engineConfig = conf
	heap = util.NewAllocator(conf)
	store, err = util.NewStore(conf, heap)
	return err
}
