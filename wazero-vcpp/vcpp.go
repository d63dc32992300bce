// Package vcppwasm loads a WASI reactor build of the vcpp core with wazero
// and exposes its entry points to package bridge.
//
// The module must export malloc and free for argument marshalling, and the
// vcpp entry points with signature (i32, i32, i32) -> i32. Strings are
// copied into linear memory NUL-terminated; argv is a NULL-terminated array
// of little-endian wasm32 pointers.
package vcppwasm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"

	vcppbridge "github.com/aperturerobotics/go-vcpp-bridge"
	"github.com/aperturerobotics/go-vcpp-bridge/bridge"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// entryParams and entryResults are the wasm32 lowering of the entry point signature.
var (
	entryParams  = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32}
	entryResults = []api.ValueType{api.ValueTypeI32}
)

// Loader instantiates vcpp modules in a wazero runtime.
type Loader struct {
	runtime wazero.Runtime
	config  wazero.ModuleConfig

	wasiOnce sync.Once
	wasiErr  error
}

// NewLoader creates a Loader. Modules are instantiated in r with config;
// the module name is set from the file name.
func NewLoader(r wazero.Runtime, config wazero.ModuleConfig) *Loader {
	if config == nil {
		config = wazero.NewModuleConfig()
	}
	return &Loader{runtime: r, config: config}
}

var _ bridge.Loader = (*Loader)(nil)

// ensureWASI installs WASI once per runtime.
func (l *Loader) ensureWASI(ctx context.Context) error {
	l.wasiOnce.Do(func() {
		if l.runtime.Module(wasi_snapshot_preview1.ModuleName) != nil {
			return
		}
		_, l.wasiErr = wasi_snapshot_preview1.Instantiate(ctx, l.runtime)
	})
	return l.wasiErr
}

// Open reads, compiles and instantiates the module at path.
func (l *Loader) Open(ctx context.Context, path string) (bridge.Library, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return l.Instantiate(ctx, filepath.Base(path), code)
}

// Instantiate compiles and instantiates module bytes under name.
func (l *Loader) Instantiate(ctx context.Context, name string, code []byte) (*Module, error) {
	if err := l.ensureWASI(ctx); err != nil {
		return nil, err
	}

	compiled, err := l.runtime.CompileModule(ctx, code)
	if err != nil {
		return nil, err
	}

	mod, err := l.runtime.InstantiateModule(ctx, compiled, l.config.WithName(name))
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}

	// Call _initialize for WASI reactor startup.
	if initFn := mod.ExportedFunction(vcppbridge.ExportInitialize); initFn != nil {
		if _, err := initFn.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			_ = compiled.Close(ctx)
			return nil, errors.New("_initialize failed: " + err.Error())
		}
	}

	m := &Module{
		mod:      mod,
		compiled: compiled,
		malloc:   mod.ExportedFunction(vcppbridge.ExportMalloc),
		free:     mod.ExportedFunction(vcppbridge.ExportFree),
	}
	if m.malloc == nil {
		_ = m.close(ctx)
		return nil, errors.New("missing export: " + vcppbridge.ExportMalloc)
	}
	if m.free == nil {
		_ = m.close(ctx)
		return nil, errors.New("missing export: " + vcppbridge.ExportFree)
	}
	if mod.Memory() == nil {
		_ = m.close(ctx)
		return nil, errors.New("missing exported memory")
	}
	return m, nil
}

// Module is an instantiated vcpp WASM module.
type Module struct {
	mod      api.Module
	compiled wazero.CompiledModule

	malloc api.Function
	free   api.Function
}

// Lookup resolves an exported entry point and checks its signature.
func (m *Module) Lookup(symbol string) (bridge.Proc, error) {
	fn := m.mod.ExportedFunction(symbol)
	if fn == nil {
		return nil, errors.New("missing export: " + symbol)
	}
	def := fn.Definition()
	if !slices.Equal(def.ParamTypes(), entryParams) || !slices.Equal(def.ResultTypes(), entryResults) {
		return nil, errors.New("export " + symbol + " does not have signature (i32, i32, i32) -> i32")
	}
	return &entry{m: m, symbol: symbol, fn: fn}, nil
}

// Close releases the module instance.
func (m *Module) Close() error {
	return m.close(context.Background())
}

func (m *Module) close(ctx context.Context) error {
	err := m.mod.Close(ctx)
	if cerr := m.compiled.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

// allocBytes copies b into WASM memory. b must already carry its NUL.
func (m *Module) allocBytes(ctx context.Context, b []byte) (uint32, error) {
	results, err := m.malloc.Call(ctx, uint64(len(b)))
	if err != nil {
		return 0, err
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		return 0, errors.New("malloc returned null")
	}
	if !m.mod.Memory().Write(ptr, b) {
		m.freePtr(ctx, ptr)
		return 0, errors.New("failed to write string to memory")
	}
	return ptr, nil
}

// freePtr frees a pointer in WASM memory.
func (m *Module) freePtr(ctx context.Context, ptr uint32) {
	if ptr != 0 {
		_, _ = m.free.Call(ctx, uint64(ptr))
	}
}

// entry is a resolved vcpp entry point.
type entry struct {
	m      *Module
	symbol string
	fn     api.Function
}

// Call marshals the frame into linear memory, invokes the entry point and
// frees every allocation before returning.
func (e *entry) Call(ctx context.Context, f *bridge.Frame) (int32, error) {
	m := e.m
	var ptrs []uint32
	defer func() {
		for _, ptr := range ptrs {
			m.freePtr(ctx, ptr)
		}
	}()

	argc := len(f.Args)
	argvPtrs := make([]uint32, argc)
	for i, arg := range f.Args {
		ptr, err := m.allocBytes(ctx, arg)
		if err != nil {
			return 0, err
		}
		ptrs = append(ptrs, ptr)
		argvPtrs[i] = ptr
	}

	// Allocate argv array (4 bytes per pointer in wasm32) plus NULL.
	results, err := m.malloc.Call(ctx, uint64((argc+1)*4))
	if err != nil {
		return 0, err
	}
	argv := uint32(results[0])
	if argv == 0 {
		return 0, errors.New("malloc returned null for argv")
	}
	ptrs = append(ptrs, argv)

	// Write argv pointers (little-endian wasm32).
	mem := m.mod.Memory()
	for i, ptr := range argvPtrs {
		if !mem.WriteUint32Le(argv+uint32(i*4), ptr) {
			return 0, errors.New("failed to write argv to memory")
		}
	}
	if !mem.WriteUint32Le(argv+uint32(argc*4), 0) {
		return 0, errors.New("failed to write argv to memory")
	}

	var options uint32
	if f.Options != nil {
		options, err = m.allocBytes(ctx, f.Options)
		if err != nil {
			return 0, err
		}
		ptrs = append(ptrs, options)
	}

	res, err := e.fn.Call(ctx, uint64(argc), uint64(argv), uint64(options))
	if err != nil {
		return 0, errors.New(e.symbol + " failed: " + err.Error())
	}
	return int32(uint32(res[0])), nil
}
