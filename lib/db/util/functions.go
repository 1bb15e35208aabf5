package util

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-farm"
)

// --------------------------------------------------------------------------
// General Utility Functions
// --------------------------------------------------------------------------

// GenerateSeed creates a random seed, e.g. for the random source of a table
func GenerateSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// fall back to the current time, only if crypto/rand is unavailable
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// --------------------------------------------------------------------------
// Hash Functions
// --------------------------------------------------------------------------

// HashFunc maps a byte string to a 32 bit hash.
// Tables only use the low bits (hash & sizemask), so all bits should be well mixed.
type HashFunc func(b []byte) uint32

// GenHash is the generic hash function by Bernstein (djb2):
// starting at 5381, hash = hash*33 + c for every byte.
func GenHash(b []byte) uint32 {
	var hash uint32 = 5381

	for _, c := range b {
		hash = ((hash << 5) + hash) + uint32(c) // hash * 33 + c
	}
	return hash
}

// IntHash is Thomas Wang's 32 bit mix function
func IntHash(key uint32) uint32 {
	key += ^(key << 15)
	key ^= key >> 10
	key += key << 3
	key ^= key >> 6
	key += ^(key << 11)
	key ^= key >> 16
	return key
}

// IdentityHash returns the key unchanged, only useful for keys that are already well distributed
func IdentityHash(key uint32) uint32 {
	return key
}

// HashFNV generates a hash for a byte string using FNV-1a folded to 32 bit
func HashFNV(b []byte) uint32 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	hash := uint64(offset64)
	for _, c := range b {
		hash ^= uint64(c)
		hash *= prime64
	}

	return uint32(hash ^ (hash >> 32))
}

// HashXX uses xxhash and keeps the low 32 bits
func HashXX(b []byte) uint32 {
	return uint32(xxhash.Sum64(b))
}

// HashFarm uses farmhash's 32 bit variant
func HashFarm(b []byte) uint32 {
	return farm.Hash32(b)
}

// HashFuncByName resolves the names accepted by the configuration (djb, fnv, xxhash, farm)
func HashFuncByName(name string) (HashFunc, error) {
	switch name {
	case "djb", "":
		return GenHash, nil
	case "fnv":
		return HashFNV, nil
	case "xxhash":
		return HashXX, nil
	case "farm":
		return HashFarm, nil
	default:
		return nil, fmt.Errorf("unknown hash function %q (expected one of: djb, fnv, xxhash, farm)", name)
	}
}
