package db

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplDict   Implementation = "dict"
	ImplZipmap Implementation = "zipmap"
)

// Feature represents engine features as bit flags
type Feature uint64

const (
	FeatureSet       Feature = 1 << iota // Support for Set operations
	FeatureGet                           // Support for Get operations
	FeatureHas                           // Support for Has operations
	FeatureDelete                        // Support for Delete operations
	FeatureRange                         // Support for Range operations
	FeatureLen                           // Support for Len operations
	FeatureRandomKey                     // Support for RandomKey operations
	FeatureResize                        // Support for Resize operations
	FeatureRepr                          // Support for Repr operations
)

func (f Feature) String() string {
	switch f {
	case FeatureSet:
		return "Set"
	case FeatureGet:
		return "Get"
	case FeatureHas:
		return "Has"
	case FeatureDelete:
		return "Delete"
	case FeatureRange:
		return "Range"
	case FeatureLen:
		return "Len"
	case FeatureRandomKey:
		return "RandomKey"
	case FeatureResize:
		return "Resize"
	case FeatureRepr:
		return "Repr"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	Entries           int            `json:"entries"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB is the common face of the storage engines: byte string keys mapped to
// byte string values. Implementations differ in footprint and complexity, not
// in semantics, and advertise optional operations through SupportsFeature.
//
// Thread-safety: No implementation is safe for concurrent use. The caller must
// serialize all access, reads included.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Set inserts or updates the value for key.
	// updated reports whether the key existed before.
	// The engine stores its own copy of key and value.
	Set(key, value []byte) (updated bool, err error)

	// Delete removes key. deleted reports whether the key existed.
	Delete(key []byte) (deleted bool)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get returns a copy of the value for key.
	// An empty value is returned as a non-nil empty slice with loaded=true.
	Get(key []byte) (value []byte, loaded bool)

	// Has checks whether key exists.
	Has(key []byte) (loaded bool)

	// Len returns the number of keys.
	Len() int

	// Range calls fn for every pair until fn returns false.
	// key and value are only valid during the call.
	// The order is engine specific and fn must not modify the engine.
	Range(fn func(key, value []byte) bool)

	// RandomKey returns a copy of a random key (FeatureRandomKey).
	RandomKey() (key []byte, ok bool)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the engine supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the engine.
	GetInfo() (info DatabaseInfo)

	// Close releases all memory held by the engine.
	Close() (err error)
}
