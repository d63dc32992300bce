package bridge

import (
	"errors"
	"fmt"
	"math"
)

// NotCalled is the result returned when no native result code exists: the
// binding was unresolved, the arguments could not be parsed, encoded or
// serialized, or the backend failed to complete the call. It is reserved by
// the bridge and always comes with a non-nil error; the core's own result
// codes are small integers and never use it.
const NotCalled int32 = math.MinInt32

var (
	// ErrModuleNotFound is returned when no candidate module path exists.
	ErrModuleNotFound = errors.New("vcpp module not found")

	// ErrNotInitialized is returned when dispatching before Init.
	ErrNotInitialized = errors.New("bridge not initialized")

	// ErrClosed is returned when dispatching on a closed module.
	ErrClosed = errors.New("vcpp module closed")
)

// linkageHint is appended to missing-symbol errors.
const linkageHint = `the module must export it with C linkage (extern "C") and default visibility (__declspec(dllexport) on Windows)`

// BindingError reports a module that failed to load, or an entry point
// that failed to resolve. Op is OpNone when the whole module is affected.
type BindingError struct {
	Op     Op
	Symbol string
	Path   string
	Err    error
}

func (e *BindingError) Error() string {
	if e.Op == OpNone {
		if e.Path == "" {
			return fmt.Sprintf("load vcpp module: %v", e.Err)
		}
		return fmt.Sprintf("load vcpp module %q: %v", e.Path, e.Err)
	}
	if errors.Is(e.Err, ErrNotInitialized) || errors.Is(e.Err, ErrModuleNotFound) || errors.Is(e.Err, ErrClosed) {
		return fmt.Sprintf("%s: %s unavailable: %v", e.Op, e.Symbol, e.Err)
	}
	return fmt.Sprintf("%s: resolve %s in %q: %v; %s", e.Op, e.Symbol, e.Path, e.Err, linkageHint)
}

func (e *BindingError) Unwrap() error { return e.Err }

// EncodingError reports an argument that cannot cross the boundary as a
// NUL-terminated UTF-8 string.
type EncodingError struct {
	// Index is the argument position, or -1 for the vector as a whole.
	Index  int
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Index < 0 {
		return "encode arguments: " + e.Reason
	}
	return fmt.Sprintf("encode argument %d: %s", e.Index, e.Reason)
}

// SerializationError reports an options payload that cannot be encoded as JSON.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize options: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
