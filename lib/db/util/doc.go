// Package util provides utility components for the kvcore storage engines.
//
// The package contains:
//   - functions: hash functions for table descriptors (djb, Thomas Wang's integer mix, FNV-1a,
//     xxhash, farmhash) and seed generation
//   - statistics: summary statistics, distribution quality and a SizeHistogram for tracking
//     value size distributions
//
// This package is particularly useful for:
//   - Building custom dict descriptors with a different hash function
//   - Reporting on engine characteristics without exposing engine internals
package util
