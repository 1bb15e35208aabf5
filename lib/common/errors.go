package common

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                       // 1: Operation failed due to an internal error.
	RetCDuplicateKey                        // 2: The key is already present.
	RetCKeyNotFound                         // 3: The key is not present.
	RetCCapacity                            // 4: The requested capacity cannot hold the live elements.
	RetCOutOfMemory                         // 5: The allocator could not satisfy a request.
	RetCUnsupportedOperation                // 6: Operation is not supported by the engine.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCDuplicateKey:
		return "DuplicateKey"
	case RetCKeyNotFound:
		return "KeyNotFound"
	case RetCCapacity:
		return "Capacity"
	case RetCOutOfMemory:
		return "OutOfMemory"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("kvcore error (code %s): %s", e.Code, e.Msg)
}

// Is reports whether target is a *Error with the same code.
// This lets callers match errors with a detailed message against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Errorf creates a new Error with the given code and a formatted message.
func Errorf(code RetCode, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// Sentinel errors, compare with errors.Is
var (
	ErrDuplicateKey = NewError(RetCDuplicateKey, "key already exists")
	ErrKeyNotFound  = NewError(RetCKeyNotFound, "key not found")
	ErrCapacity     = NewError(RetCCapacity, "capacity is smaller than the number of elements")
	ErrOutOfMemory  = NewError(RetCOutOfMemory, "out of memory")
	ErrUnsupported  = NewError(RetCUnsupportedOperation, "operation not supported")
)
