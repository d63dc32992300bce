//go:build cgo && !windows

package native

/*
#cgo linux LDFLAGS: -ldl

#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

typedef int32_t (*vcpp_entry)(int32_t, char **, const char *);

// dlerror is per-thread state, so each helper reads it on the thread that
// made the failing call.
static void *vcpp_open(const char *path, const char **err) {
	void *handle = dlopen(path, RTLD_NOW | RTLD_LOCAL);
	if (handle == NULL) {
		*err = dlerror();
	}
	return handle;
}

static void *vcpp_sym(void *handle, const char *name, const char **err) {
	dlerror();
	void *sym = dlsym(handle, name);
	const char *e = dlerror();
	if (e != NULL) {
		*err = e;
		return NULL;
	}
	if (sym == NULL) {
		*err = "symbol resolved to NULL";
	}
	return sym;
}

static const char *vcpp_close(void *handle) {
	if (dlclose(handle) != 0) {
		return dlerror();
	}
	return NULL;
}

static int32_t vcpp_call(void *fn, int32_t argc, char **argv, const char *options) {
	return ((vcpp_entry)fn)(argc, argv, options);
}
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/aperturerobotics/go-vcpp-bridge/bridge"
)

type library struct {
	path   string
	handle unsafe.Pointer
	closed atomic.Bool
}

type proc struct {
	lib    *library
	symbol string
	fn     unsafe.Pointer
}

func dlError(msg *C.char) string {
	if msg == nil {
		return "unknown error"
	}
	return C.GoString(msg)
}

func open(path string) (bridge.Library, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	var cErr *C.char
	handle := C.vcpp_open(cPath, &cErr)
	if handle == nil {
		return nil, fmt.Errorf("dlopen: %s", dlError(cErr))
	}
	return &library{path: path, handle: handle}, nil
}

// Lookup resolves symbol with dlsym.
func (l *library) Lookup(symbol string) (bridge.Proc, error) {
	if l.closed.Load() {
		return nil, errClosed
	}
	cName := C.CString(symbol)
	defer C.free(unsafe.Pointer(cName))

	var cErr *C.char
	fn := C.vcpp_sym(l.handle, cName, &cErr)
	if fn == nil {
		return nil, fmt.Errorf("dlsym: %s", dlError(cErr))
	}
	return &proc{lib: l, symbol: symbol, fn: fn}, nil
}

// Close unloads the library with dlclose.
func (l *library) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	if msg := C.vcpp_close(l.handle); msg != nil {
		return fmt.Errorf("dlclose %s: %s", l.path, C.GoString(msg))
	}
	return nil
}

// Call copies the frame into C memory, invokes the entry point and frees
// the copies after it returns. argv is NULL terminated.
func (p *proc) Call(ctx context.Context, f *bridge.Frame) (int32, error) {
	if p.lib.closed.Load() {
		return 0, fmt.Errorf("%s: %w", p.symbol, errClosed)
	}

	argc := len(f.Args)
	argv := (**C.char)(C.calloc(C.size_t(argc+1), C.size_t(unsafe.Sizeof(uintptr(0)))))
	if argv == nil {
		return 0, errors.New("calloc returned null for argv")
	}
	defer C.free(unsafe.Pointer(argv))

	slots := unsafe.Slice(argv, argc+1)
	defer func() {
		for _, s := range slots {
			if s != nil {
				C.free(unsafe.Pointer(s))
			}
		}
	}()
	for i, arg := range f.Args {
		slots[i] = (*C.char)(C.CBytes(arg))
	}

	var options *C.char
	if f.Options != nil {
		options = (*C.char)(C.CBytes(f.Options))
		defer C.free(unsafe.Pointer(options))
	}

	rc := C.vcpp_call(p.fn, C.int32_t(argc), argv, options)
	return int32(rc), nil
}
