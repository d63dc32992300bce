//go:build !cgo && !windows

package native

import (
	"fmt"

	"github.com/aperturerobotics/go-vcpp-bridge/bridge"
)

func open(path string) (bridge.Library, error) {
	return nil, fmt.Errorf("%w (cgo disabled): %s", ErrUnsupported, path)
}
