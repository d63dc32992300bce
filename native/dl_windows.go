//go:build windows

package native

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/aperturerobotics/go-vcpp-bridge/bridge"
	"golang.org/x/sys/windows"
)

type library struct {
	dll    *windows.DLL
	closed atomic.Bool
}

type proc struct {
	lib  *library
	proc *windows.Proc
}

func open(path string) (bridge.Library, error) {
	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, err
	}
	return &library{dll: dll}, nil
}

// Lookup resolves symbol with GetProcAddress.
func (l *library) Lookup(symbol string) (bridge.Proc, error) {
	if l.closed.Load() {
		return nil, errClosed
	}
	p, err := l.dll.FindProc(symbol)
	if err != nil {
		return nil, err
	}
	return &proc{lib: l, proc: p}, nil
}

// Close releases the DLL.
func (l *library) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return l.dll.Release()
}

// Call passes the frame buffers to the entry point. argv is NULL terminated
// and every buffer stays reachable until the call returns.
func (p *proc) Call(ctx context.Context, f *bridge.Frame) (int32, error) {
	if p.lib.closed.Load() {
		return 0, fmt.Errorf("%s: %w", p.proc.Name, errClosed)
	}

	argv := make([]*byte, len(f.Args)+1)
	for i, arg := range f.Args {
		argv[i] = &arg[0]
	}
	var options *byte
	if f.Options != nil {
		options = &f.Options[0]
	}

	r1, _, _ := p.proc.Call(
		uintptr(len(f.Args)),
		uintptr(unsafe.Pointer(&argv[0])),
		uintptr(unsafe.Pointer(options)),
	)
	runtime.KeepAlive(argv)
	runtime.KeepAlive(f)
	return int32(r1), nil
}
