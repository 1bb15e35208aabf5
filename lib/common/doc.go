// Package common holds the pieces shared by every kvcore package: the coded
// error type returned by the engines, the logger factory plugged into the
// dragonboat logging facade, and the engine configuration used by the CLI.
//
// Errors carry a RetCode and can be matched with errors.Is against the
// sentinels ErrDuplicateKey, ErrKeyNotFound, ErrCapacity, ErrOutOfMemory and
// ErrUnsupported regardless of their message.
package common
