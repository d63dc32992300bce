// Package native loads the vcpp core as a platform shared library and calls
// its entry points directly.
//
// On Unix the module is opened with dlopen through cgo. On Windows it is
// loaded with LoadLibrary through golang.org/x/sys/windows and does not need
// cgo. Builds without either fall back to a loader that always fails with
// ErrUnsupported; use package vcppwasm there.
package native

import (
	"context"
	"errors"

	"github.com/aperturerobotics/go-vcpp-bridge/bridge"
)

// ErrUnsupported is returned by Open when the build cannot load shared
// libraries.
var ErrUnsupported = errors.New("native module loading is not supported by this build")

// errClosed is returned when calling an entry point of a closed library.
var errClosed = errors.New("library closed")

// Loader opens vcpp modules as shared libraries.
type Loader struct{}

// NewLoader returns a shared library loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Open loads the shared library at path.
func (l *Loader) Open(ctx context.Context, path string) (bridge.Library, error) {
	return open(path)
}

var _ bridge.Loader = (*Loader)(nil)
