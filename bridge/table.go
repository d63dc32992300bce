package bridge

import (
	"context"
	"errors"
)

// Loader opens a vcpp module. Implementations live in the native and
// vcppwasm packages.
type Loader interface {
	Open(ctx context.Context, path string) (Library, error)
}

// Library is a loaded module.
type Library interface {
	// Lookup resolves an exported entry point by symbol name.
	Lookup(symbol string) (Proc, error)
	// Close unloads the module. Procs from it must not be called afterwards.
	Close() error
}

// Proc is a resolved entry point with the uniform vcpp signature.
type Proc interface {
	Call(ctx context.Context, f *Frame) (int32, error)
}

// Table holds the entry points resolved from one loaded module.
// It is read-only after Bind returns.
type Table struct {
	path  string
	lib   Library
	procs [opCount]Proc
	errs  [opCount]error
}

// Bind loads the module at path and resolves every entry point.
//
// If the module fails to load, Bind returns a nil Table and a
// *BindingError with Op OpNone. Otherwise the Table is returned even when
// some entry points are missing; the error then joins one *BindingError per
// missing entry point and the remaining families stay usable.
func Bind(ctx context.Context, loader Loader, path string) (*Table, error) {
	lib, err := loader.Open(ctx, path)
	if err != nil {
		return nil, &BindingError{Op: OpNone, Path: path, Err: err}
	}

	t := &Table{path: path, lib: lib}
	var errs []error
	for _, op := range Ops {
		proc, err := lib.Lookup(op.Symbol())
		if err == nil && proc == nil {
			err = errors.New("symbol resolved to nil")
		}
		if err != nil {
			berr := &BindingError{Op: op, Symbol: op.Symbol(), Path: path, Err: err}
			t.errs[op] = berr
			errs = append(errs, berr)
			continue
		}
		t.procs[op] = proc
	}
	return t, errors.Join(errs...)
}

// Path returns the module path the table was bound from.
func (t *Table) Path() string {
	return t.path
}

// Proc returns the resolved entry point for op, or its binding error.
func (t *Table) Proc(op Op) (Proc, error) {
	if !op.valid() {
		return nil, &BindingError{Op: op, Path: t.path, Err: errors.New("unknown operation")}
	}
	if p := t.procs[op]; p != nil {
		return p, nil
	}
	if err := t.errs[op]; err != nil {
		return nil, err
	}
	return nil, &BindingError{Op: op, Symbol: op.Symbol(), Path: t.path, Err: ErrClosed}
}

// Err returns the binding error for op, or nil if it resolved.
func (t *Table) Err(op Op) error {
	if !op.valid() {
		return nil
	}
	return t.errs[op]
}

// Close unloads the module and drops every resolved entry point.
func (t *Table) Close() error {
	t.procs = [opCount]Proc{}
	if t.lib == nil {
		return nil
	}
	err := t.lib.Close()
	t.lib = nil
	return err
}
