package common

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Engine configuration struct
// --------------------------------------------------------------------------

type EngineType string

const (
	EngineDict   EngineType = "dict"
	EngineZipmap EngineType = "zipmap"
)

type OOMPolicy string

const (
	OOMFatal     OOMPolicy = "fatal"
	OOMPropagate OOMPolicy = "propagate"
)

// EngineConfig holds all parameters needed to construct a storage engine.
type EngineConfig struct {
	// Which storage engine to use
	Engine EngineType

	// Hash function for the dict engine (djb, fnv, xxhash, farm)
	Hash string

	// Initial number of buckets of the dict engine (0 = grow on first insert)
	InitialSize uint64

	// Allocator parameters
	AllocLimitBytes int64
	OOMPolicy       OOMPolicy

	// Logging configuration
	LogLevel string
}

// DefaultEngineConfig returns the configuration used when nothing is set
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Engine:          EngineDict,
		Hash:            "djb",
		InitialSize:     0,
		AllocLimitBytes: 0,
		OOMPolicy:       OOMFatal,
		LogLevel:        "warn",
	}
}

// Validate checks that all enumerated fields hold known values
func (c *EngineConfig) Validate() error {
	switch c.Engine {
	case EngineDict, EngineZipmap:
	default:
		return fmt.Errorf("invalid engine: %s (expected one of: dict, zipmap)", c.Engine)
	}

	switch c.Hash {
	case "djb", "fnv", "xxhash", "farm":
	default:
		return fmt.Errorf("invalid hash: %s (expected one of: djb, fnv, xxhash, farm)", c.Hash)
	}

	switch c.OOMPolicy {
	case OOMFatal, OOMPropagate:
	default:
		return fmt.Errorf("invalid oom policy: %s (expected one of: fatal, propagate)", c.OOMPolicy)
	}

	if c.AllocLimitBytes < 0 {
		return fmt.Errorf("allocator limit must not be negative: %d", c.AllocLimitBytes)
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// String returns a formatted string representation of the configuration
func (c *EngineConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Engine")
	addField("Type", string(c.Engine))
	if c.Engine == EngineDict {
		addField("Hash", c.Hash)
		addField("Initial Size", fmt.Sprintf("%d buckets", c.InitialSize))
	}

	addSection("Allocator")
	if c.AllocLimitBytes == 0 {
		addField("Limit", "unlimited")
	} else {
		addField("Limit", fmt.Sprintf("%d bytes", c.AllocLimitBytes))
	}
	addField("OOM Policy", string(c.OOMPolicy))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
