package bridge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// fakeProc is a call-count spy standing in for a native entry point.
type fakeProc struct {
	rc     int32
	err    error
	calls  int
	frames []*Frame
}

func (p *fakeProc) Call(ctx context.Context, f *Frame) (int32, error) {
	p.calls++
	p.frames = append(p.frames, f)
	return p.rc, p.err
}

func (p *fakeProc) last() *Frame {
	if len(p.frames) == 0 {
		return nil
	}
	return p.frames[len(p.frames)-1]
}

type fakeLibrary struct {
	procs  map[string]*fakeProc
	closed bool
}

// newFakeLibrary exports every entry point except the ones in missing.
func newFakeLibrary(missing ...string) *fakeLibrary {
	lib := &fakeLibrary{procs: make(map[string]*fakeProc)}
	for _, op := range Ops {
		lib.procs[op.Symbol()] = &fakeProc{}
	}
	for _, sym := range missing {
		delete(lib.procs, sym)
	}
	return lib
}

func (l *fakeLibrary) Lookup(symbol string) (Proc, error) {
	p, ok := l.procs[symbol]
	if !ok {
		return nil, fmt.Errorf("undefined symbol: %s", symbol)
	}
	return p, nil
}

func (l *fakeLibrary) Close() error {
	if l.closed {
		return errors.New("already closed")
	}
	l.closed = true
	return nil
}

func (l *fakeLibrary) proc(op Op) *fakeProc {
	return l.procs[op.Symbol()]
}

func (l *fakeLibrary) totalCalls() int {
	n := 0
	for _, p := range l.procs {
		n += p.calls
	}
	return n
}

type fakeLoader struct {
	libs  map[string]*fakeLibrary
	err   error
	opens []string
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{libs: make(map[string]*fakeLibrary)}
}

func (l *fakeLoader) Open(ctx context.Context, path string) (Library, error) {
	l.opens = append(l.opens, path)
	if l.err != nil {
		return nil, l.err
	}
	lib, ok := l.libs[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return lib, nil
}
