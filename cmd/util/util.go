package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvcore/lib/alloc"
	"github.com/ValentinKolb/kvcore/lib/common"
	"github.com/ValentinKolb/kvcore/lib/db"
	"github.com/ValentinKolb/kvcore/lib/db/engines/dict"
	"github.com/ValentinKolb/kvcore/lib/db/engines/zipmap"
	dbutil "github.com/ValentinKolb/kvcore/lib/db/util"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (KVCORE_<FLAG>)
	EnvPrefix = "kvcore"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupEngineFlags adds the engine configuration flags to a command
func SetupEngineFlags(cmd *cobra.Command) {
	def := common.DefaultEngineConfig()

	key := "engine"
	cmd.PersistentFlags().String(key, string(def.Engine), WrapString("Storage engine to use (dict, zipmap)"))

	key = "hash"
	cmd.PersistentFlags().String(key, def.Hash, WrapString("Hash function of the dict engine (djb, fnv, xxhash, farm)"))

	key = "initial-size"
	cmd.PersistentFlags().Uint64(key, def.InitialSize, WrapString("Number of buckets the dict engine allocates up front (0 = grow on first insert)"))

	key = "alloc-limit"
	cmd.PersistentFlags().Int64(key, def.AllocLimitBytes, WrapString("Max bytes the allocator hands out before reporting out of memory (0 = unlimited)"))

	key = "oom-policy"
	cmd.PersistentFlags().String(key, string(def.OOMPolicy), WrapString("What happens when the allocator limit is exceeded: fatal aborts the command, propagate returns an error to the caller"))

	key = "log-level"
	cmd.PersistentFlags().String(key, def.LogLevel, WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetEngineConfig reads and validates the engine configuration from viper
func GetEngineConfig() (*common.EngineConfig, error) {
	conf := &common.EngineConfig{
		Engine:          common.EngineType(viper.GetString("engine")),
		Hash:            viper.GetString("hash"),
		InitialSize:     viper.GetUint64("initial-size"),
		AllocLimitBytes: viper.GetInt64("alloc-limit"),
		OOMPolicy:       common.OOMPolicy(viper.GetString("oom-policy")),
		LogLevel:        viper.GetString("log-level"),
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// NewAllocator creates the allocator described by conf
func NewAllocator(conf *common.EngineConfig) *alloc.Heap {
	return alloc.NewHeap(&alloc.Options{
		Limit:  conf.AllocLimitBytes,
		Policy: conf.OOMPolicy,
	})
}

// NewStore creates the storage engine described by conf on top of a
func NewStore(conf *common.EngineConfig, a alloc.Allocator) (db.KVDB, error) {
	switch conf.Engine {
	case common.EngineDict:
		hash, err := dbutil.HashFuncByName(conf.Hash)
		if err != nil {
			return nil, err
		}
		return dict.NewStore(&dict.StoreOptions{
			Allocator:   a,
			Hash:        hash,
			InitialSize: conf.InitialSize,
		})
	case common.EngineZipmap:
		return zipmap.NewStore(a)
	default:
		return nil, fmt.Errorf("invalid engine %s", conf.Engine)
	}
}
