package vcppwasm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	vcppbridge "github.com/aperturerobotics/go-vcpp-bridge"
	"github.com/aperturerobotics/go-vcpp-bridge/bridge"
	"github.com/tetratelabs/wazero"
)

// testCore is a hand-assembled module standing in for the vcpp core.
// malloc is a bump allocator starting at 1024 and free does nothing, so
// marshalled buffers stay readable after a call.
//
//	vcpp_ktx(argc, argv, opts)  -> argc
//	vcpp_fbx(argc, argv, opts)  -> first byte of argv[1]
//	vcpp_test(argc, argv, opts) -> opts == NULL ? -2 : first byte of opts
//
// vcpp_image is deliberately not exported.
var testCore = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,

	// type section: (i32)->i32, (i32)->(), (i32,i32,i32)->i32
	0x01, 0x11, 0x03,
	0x60, 0x01, 0x7f, 0x01, 0x7f,
	0x60, 0x01, 0x7f, 0x00,
	0x60, 0x03, 0x7f, 0x7f, 0x7f, 0x01, 0x7f,

	// function section: malloc, free, vcpp_ktx, vcpp_fbx, vcpp_test
	0x03, 0x06, 0x05, 0x00, 0x01, 0x02, 0x02, 0x02,

	// memory section: one memory, min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,

	// global section: mutable i32 heap pointer = 1024
	0x06, 0x07, 0x01, 0x7f, 0x01, 0x41, 0x80, 0x08, 0x0b,

	// export section
	0x07, 0x3c, 0x06,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x06, 'm', 'a', 'l', 'l', 'o', 'c', 0x00, 0x00,
	0x04, 'f', 'r', 'e', 'e', 0x00, 0x01,
	0x08, 'v', 'c', 'p', 'p', '_', 'k', 't', 'x', 0x00, 0x02,
	0x08, 'v', 'c', 'p', 'p', '_', 'f', 'b', 'x', 0x00, 0x03,
	0x09, 'v', 'c', 'p', 'p', '_', 't', 'e', 's', 't', 0x00, 0x04,

	// code section
	0x0a, 0x31, 0x05,
	// malloc: old = heap; heap += n; return old
	0x0b, 0x00, 0x23, 0x00, 0x23, 0x00, 0x20, 0x00, 0x6a, 0x24, 0x00, 0x0b,
	// free
	0x02, 0x00, 0x0b,
	// vcpp_ktx
	0x04, 0x00, 0x20, 0x00, 0x0b,
	// vcpp_fbx: i32.load8_u(i32.load offset=4 (argv))
	0x0a, 0x00, 0x20, 0x01, 0x28, 0x02, 0x04, 0x2d, 0x00, 0x00, 0x0b,
	// vcpp_test
	0x10, 0x00, 0x20, 0x02, 0x45, 0x04, 0x7f, 0x41, 0x7e, 0x05, 0x20, 0x02, 0x2d, 0x00, 0x00, 0x0b, 0x0b,
}

// emptyModule is the smallest valid WASM module.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func writeModule(t *testing.T, name string, code []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, code, 0o644); err != nil {
		t.Fatal("WriteFile:", err)
	}
	return path
}

func newRuntime(t *testing.T) (context.Context, wazero.Runtime) {
	t.Helper()
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = r.Close(ctx) })
	return ctx, r
}

func TestBridgeOverWASM(t *testing.T) {
	ctx, r := newRuntime(t)
	path := writeModule(t, "vcpp_core.wasm", testCore)

	b := bridge.New(NewLoader(r, nil), bridge.WithModulePath(path))
	defer b.Close()

	err := b.Init(ctx)
	var berr *bridge.BindingError
	if !errors.As(err, &berr) || berr.Op != bridge.OpImage {
		t.Fatalf("expected only the image entry point to be missing, got %v", err)
	}

	rc, err := b.Texture(ctx, `create "my file.tga" out.ktx2`, nil)
	if err != nil {
		t.Fatal("Texture:", err)
	}
	if rc != 4 {
		t.Fatalf("expected argc 4 (placeholder plus 3 tokens), got %d", rc)
	}

	rc, err = b.ConvertMesh(ctx, "in.fbx", "out/prefix")
	if err != nil {
		t.Fatal("ConvertMesh:", err)
	}
	if rc != 'i' {
		t.Fatalf("expected first byte of argv[1] 'i', got %d", rc)
	}

	// First UTF-8 byte of 한 is 0xED.
	rc, err = b.ConvertMesh(ctx, "한글 띄어쓰기.fbx", "out")
	if err != nil {
		t.Fatal("ConvertMesh:", err)
	}
	if rc != 0xED {
		t.Fatalf("expected 0xED, got %#x", rc)
	}

	rc, err = b.Diagnostic(ctx, nil)
	if err != nil {
		t.Fatal("Diagnostic:", err)
	}
	if rc != -2 {
		t.Fatalf("expected NULL options to reach the module, got %d", rc)
	}

	rc, err = b.Diagnostic(ctx, map[string]any{"boolean value": true})
	if err != nil {
		t.Fatal("Diagnostic:", err)
	}
	if rc != '{' {
		t.Fatalf("expected options to start with '{', got %d", rc)
	}

	rc, err = b.Denoise(ctx, "in.hdr", "out.hdr", nil)
	if rc != bridge.NotCalled || !errors.As(err, &berr) || berr.Symbol != vcppbridge.ExportImage {
		t.Fatalf("expected NotCalled for the missing image entry point, got %d %v", rc, err)
	}
}

func TestRebindSameModule(t *testing.T) {
	ctx, r := newRuntime(t)
	path := writeModule(t, "vcpp_core.wasm", testCore)

	b := bridge.New(NewLoader(r, nil), bridge.WithModulePath(path))
	defer b.Close()
	_ = b.Init(ctx)

	// Rebinding closes the previous instance, so the name is free again.
	_ = b.SetModulePath(ctx, path)
	rc, err := b.TextureArgs(ctx, []string{"info", "a.ktx2"}, nil)
	if err != nil {
		t.Fatal("TextureArgs:", err)
	}
	if rc != 3 {
		t.Fatalf("expected argc 3, got %d", rc)
	}
}

func TestOpenCorrupt(t *testing.T) {
	ctx, r := newRuntime(t)
	path := writeModule(t, "ktxdll.wasm", []byte("MZ\x90\x00 not a wasm module"))

	b := bridge.New(NewLoader(r, nil), bridge.WithModulePath(path))
	err := b.Init(ctx)
	var berr *bridge.BindingError
	if !errors.As(err, &berr) || berr.Op != bridge.OpNone {
		t.Fatalf("expected module-wide *BindingError, got %v", err)
	}
	rc, _ := b.Texture(ctx, "info a.ktx2", nil)
	if rc != bridge.NotCalled {
		t.Fatalf("expected NotCalled, got %d", rc)
	}
}

func TestOpenMissingFile(t *testing.T) {
	ctx, r := newRuntime(t)
	_, err := NewLoader(r, nil).Open(ctx, filepath.Join(t.TempDir(), "absent.wasm"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestMissingAllocator(t *testing.T) {
	ctx, r := newRuntime(t)
	_, err := NewLoader(r, nil).Instantiate(ctx, "empty.wasm", emptyModule)
	if err == nil || !strings.Contains(err.Error(), "missing export: "+vcppbridge.ExportMalloc) {
		t.Fatalf("expected missing malloc, got %v", err)
	}
}

func TestLookupSignature(t *testing.T) {
	ctx, r := newRuntime(t)
	m, err := NewLoader(r, nil).Instantiate(ctx, "core.wasm", testCore)
	if err != nil {
		t.Fatal("Instantiate:", err)
	}
	defer m.Close()

	if _, err := m.Lookup(vcppbridge.ExportMalloc); err == nil || !strings.Contains(err.Error(), "signature") {
		t.Fatalf("expected a signature mismatch for malloc, got %v", err)
	}
	if _, err := m.Lookup(vcppbridge.ExportImage); err == nil {
		t.Fatal("expected missing export error")
	}
	p, err := m.Lookup(vcppbridge.ExportTexture)
	if err != nil {
		t.Fatal("Lookup:", err)
	}
	f, err := bridge.Marshal([]string{"ktx", "info"}, nil)
	if err != nil {
		t.Fatal("Marshal:", err)
	}
	rc, err := p.Call(ctx, f)
	if err != nil {
		t.Fatal("Call:", err)
	}
	if rc != 2 {
		t.Fatalf("expected argc 2, got %d", rc)
	}
}
