// Package vcppbridge defines the export names and file names of the vcpp
// core module that the bridge binds to.
//
// The core is a natively compiled shared library (or a WASI reactor build of
// the same sources) exporting four entry points with one uniform signature:
//
//	int32_t fn(int32_t argc, char **argv, const char *options_json);
//
// argv[0] is a placeholder program name the core does not interpret.
// options_json is NULL when the caller supplied no options.
package vcppbridge

// Entry point exports.
const (
	// ExportTexture runs a KTX tool command (create, encode, info, ...).
	// Signature: vcpp_ktx(argc: i32, argv: char**, options: char*) -> i32
	ExportTexture = "vcpp_ktx"

	// ExportMesh converts an FBX scene into Draco meshes.
	// Signature: vcpp_fbx(argc: i32, argv: char**, options: char*) -> i32
	ExportMesh = "vcpp_fbx"

	// ExportImage denoises an image.
	// Signature: vcpp_image(argc: i32, argv: char**, options: char*) -> i32
	ExportImage = "vcpp_image"

	// ExportDiagnostic echoes its arguments and options.
	// Used to validate the options marshalling path.
	// Signature: vcpp_test(argc: i32, argv: char**, options: char*) -> i32
	ExportDiagnostic = "vcpp_test"
)

// Memory management exports required from the WASM build.
const (
	// ExportMalloc allocates memory in WASM linear memory.
	ExportMalloc = "malloc"

	// ExportFree frees memory in WASM linear memory.
	ExportFree = "free"

	// ExportInitialize is the WASI reactor startup function, called if present.
	ExportInitialize = "_initialize"
)

// Module file names, without the platform extension.
const (
	// DefaultModuleName is the module shipped next to the host binary.
	DefaultModuleName = "ktxdll"

	// BuildModuleName is the module produced by the core's build tree.
	BuildModuleName = "vcpp_core"

	// BuildDir is the build output directory, relative to the parent of the
	// host binary's directory.
	BuildDir = "build"
)

// Exports lists the entry point exports in dispatch order.
var Exports = []string{ExportTexture, ExportMesh, ExportImage, ExportDiagnostic}
