// Package bridge dispatches operation requests to the entry points of a
// vcpp module across a foreign-function boundary.
//
// A Bridge owns one binding Table. Commands arrive as raw command strings
// (tokenized with package cmdline) or as pre-tokenized argument lists, are
// marshalled into a Frame and handed to the resolved entry point. The
// native result code is returned unmodified; NotCalled is returned whenever
// the call never reached the module.
package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aperturerobotics/go-vcpp-bridge/cmdline"
	"github.com/google/uuid"
)

var diagnosticArgs = [...]string{"test arg1", "test arg2"}

// DiagnosticArgs returns a copy of the fixed argument list sent to the
// diagnostic entry point regardless of caller input.
func DiagnosticArgs() []string {
	return slices.Clone(diagnosticArgs[:])
}

// Bridge binds to a vcpp module and dispatches calls to it.
//
// Dispatch methods may be called from several goroutines; each call owns
// its own Frame. SetModulePath waits for in-flight calls before unloading
// the previous module.
type Bridge struct {
	loader Loader
	logger *slog.Logger
	locate Locator

	program    string
	programSet bool

	mu      sync.RWMutex
	path    string
	table   *Table
	bindErr error
	inited  bool
}

// New creates a Bridge that loads modules with loader.
// Call Init to locate and bind the module, and Close when done.
func New(loader Loader, opts ...Option) *Bridge {
	b := &Bridge{
		loader: loader,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		locate: Locator{Candidates: DefaultCandidates(ExecutableDir())},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Init locates the module, unless a path was set explicitly, and binds it.
//
// A missing module or entry point is not fatal to the Bridge: the affected
// families return NotCalled until SetModulePath binds a working module.
// The returned error is ErrModuleNotFound, or the error from Bind.
func (b *Bridge) Init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := b.path
	if path == "" {
		found, err := b.locate.Locate()
		if err != nil {
			b.logger.Warn("vcpp module not found; set a module path explicitly",
				slog.Any("candidates", b.locate.Candidates))
			b.inited = true
			b.bindErr = err
			return err
		}
		path = found
	}
	return b.bindLocked(ctx, path)
}

// SetModulePath discards every resolved entry point and binds the module at
// path from scratch.
func (b *Bridge) SetModulePath(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bindLocked(ctx, path)
}

func (b *Bridge) bindLocked(ctx context.Context, path string) error {
	if b.table != nil {
		if err := b.table.Close(); err != nil {
			b.logger.Warn("closing previous vcpp module", slog.String("path", b.table.Path()), slog.Any("error", err))
		}
		b.table = nil
	}
	b.path = path
	b.inited = true

	table, err := Bind(ctx, b.loader, path)
	b.table = table
	b.bindErr = err
	if table == nil {
		b.logger.Error("loading vcpp module failed", slog.String("path", path), slog.Any("error", err))
		return err
	}
	for _, op := range Ops {
		if opErr := table.Err(op); opErr != nil {
			b.logger.Error("entry point unresolved",
				slog.String("op", op.String()),
				slog.String("symbol", op.Symbol()),
				slog.Any("error", opErr))
		}
	}
	b.logger.Info("vcpp module bound", slog.String("path", path))
	return err
}

// ModulePath returns the path of the bound (or last attempted) module.
func (b *Bridge) ModulePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// Close unloads the module.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.table == nil {
		return nil
	}
	err := b.table.Close()
	b.table = nil
	b.bindErr = ErrClosed
	return err
}

// EntryStatus describes the binding state of one operation family.
type EntryStatus struct {
	Op     Op
	Symbol string
	Path   string
	Err    error
}

// Resolved reports whether the entry point can be called.
func (s EntryStatus) Resolved() bool {
	return s.Err == nil
}

// Status reports the binding state of every operation family.
func (b *Bridge) Status() []EntryStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]EntryStatus, 0, len(Ops))
	for _, op := range Ops {
		st := EntryStatus{Op: op, Symbol: op.Symbol(), Path: b.path}
		_, st.Err = b.procLocked(op)
		out = append(out, st)
	}
	return out
}

// procLocked returns the entry point for op or the reason it is unusable.
func (b *Bridge) procLocked(op Op) (Proc, error) {
	if b.table != nil {
		return b.table.Proc(op)
	}
	err := b.bindErr
	if !b.inited {
		err = ErrNotInitialized
	}
	var berr *BindingError
	if errors.As(err, &berr) && berr.Op == OpNone {
		return nil, err
	}
	if err == nil {
		err = ErrNotInitialized
	}
	return nil, &BindingError{Op: op, Symbol: op.Symbol(), Path: b.path, Err: err}
}

// argv prefixes args with the placeholder program name for op.
func (b *Bridge) argv(op Op, args []string) []string {
	prog := op.Program()
	if b.programSet {
		prog = b.program
	}
	if prog == "" {
		return args
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, prog)
	return append(out, args...)
}

// Run tokenizes cmd and dispatches it to op.
func (b *Bridge) Run(ctx context.Context, op Op, cmd string, options any) (int32, error) {
	args, err := cmdline.Tokenize(cmd)
	if err != nil {
		b.logger.Warn("parsing command line failed; quotes are probably unbalanced",
			slog.String("op", op.String()),
			slog.Any("error", err))
		return NotCalled, err
	}
	return b.RunArgs(ctx, op, args, options)
}

// RunArgs dispatches pre-tokenized args to op. The diagnostic family
// ignores args and always sends DiagnosticArgs.
func (b *Bridge) RunArgs(ctx context.Context, op Op, args []string, options any) (int32, error) {
	if op == OpDiagnostic {
		args = DiagnosticArgs()
	} else {
		args = b.argv(op, args)
	}
	return b.call(ctx, op, args, options)
}

func (b *Bridge) call(ctx context.Context, op Op, args []string, options any) (int32, error) {
	le := b.logger.With(slog.String("call_id", uuid.NewString()), slog.String("op", op.String()))

	b.mu.RLock()
	defer b.mu.RUnlock()

	proc, err := b.procLocked(op)
	if err != nil {
		le.Error("entry point unresolved; call not attempted", slog.Any("error", err))
		return NotCalled, err
	}

	frame, err := Marshal(args, options)
	if err != nil {
		le.Warn("marshalling arguments failed; call not attempted", slog.Any("error", err))
		return NotCalled, err
	}

	_, hasOptions := frame.OptionsJSON()
	le.Debug("calling entry point",
		slog.String("symbol", op.Symbol()),
		slog.Int("argc", int(frame.Argc())),
		slog.Any("argv", args),
		slog.Bool("options", hasOptions))

	start := time.Now()
	rc, err := proc.Call(ctx, frame)
	if err != nil {
		le.Error("entry point call failed", slog.Any("error", err))
		return NotCalled, err
	}
	le.Debug("entry point returned", slog.Int("rc", int(rc)), slog.Duration("elapsed", time.Since(start)))
	return rc, nil
}

// Texture runs a texture command line such as
// `create --format R8G8B8A8_UNORM input.tga output.ktx2`.
func (b *Bridge) Texture(ctx context.Context, cmd string, options any) (int32, error) {
	return b.Run(ctx, OpTexture, cmd, options)
}

// TextureArgs runs a pre-tokenized texture command.
func (b *Bridge) TextureArgs(ctx context.Context, args []string, options any) (int32, error) {
	return b.RunArgs(ctx, OpTexture, args, options)
}

// Mesh runs a mesh command line.
func (b *Bridge) Mesh(ctx context.Context, cmd string, options any) (int32, error) {
	return b.Run(ctx, OpMesh, cmd, options)
}

// MeshArgs runs a pre-tokenized mesh command.
func (b *Bridge) MeshArgs(ctx context.Context, args []string, options any) (int32, error) {
	return b.RunArgs(ctx, OpMesh, args, options)
}

// ConvertMesh converts the scene at input into meshes named after outputPrefix.
func (b *Bridge) ConvertMesh(ctx context.Context, input, outputPrefix string) (int32, error) {
	return b.RunArgs(ctx, OpMesh, []string{input, outputPrefix}, nil)
}

// Image runs an image command line.
func (b *Bridge) Image(ctx context.Context, cmd string, options any) (int32, error) {
	return b.Run(ctx, OpImage, cmd, options)
}

// ImageArgs runs a pre-tokenized image command.
func (b *Bridge) ImageArgs(ctx context.Context, args []string, options any) (int32, error) {
	return b.RunArgs(ctx, OpImage, args, options)
}

// Denoise denoises input into output.
func (b *Bridge) Denoise(ctx context.Context, input, output string, options any) (int32, error) {
	return b.RunArgs(ctx, OpImage, []string{input, output}, options)
}

// Diagnostic calls the diagnostic entry point with DiagnosticArgs and options.
func (b *Bridge) Diagnostic(ctx context.Context, options any) (int32, error) {
	return b.RunArgs(ctx, OpDiagnostic, nil, options)
}
