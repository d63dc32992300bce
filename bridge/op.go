package bridge

import (
	"fmt"
	"strings"

	vcppbridge "github.com/aperturerobotics/go-vcpp-bridge"
)

// Op is an operation family. Each family maps to exactly one entry point.
type Op int

const (
	// OpNone marks errors that are not scoped to a single family.
	OpNone Op = iota - 1
	// OpTexture runs KTX texture packaging commands.
	OpTexture
	// OpMesh converts meshes.
	OpMesh
	// OpImage denoises images.
	OpImage
	// OpDiagnostic is the self-test echo.
	OpDiagnostic

	opCount = int(OpDiagnostic) + 1
)

// Ops lists every operation family in dispatch order.
var Ops = []Op{OpTexture, OpMesh, OpImage, OpDiagnostic}

var opNames = [opCount]string{"texture", "mesh", "image", "diagnostic"}

var opSymbols = [opCount]string{
	vcppbridge.ExportTexture,
	vcppbridge.ExportMesh,
	vcppbridge.ExportImage,
	vcppbridge.ExportDiagnostic,
}

// default argv[0] placeholders, matching what each tool prints in usage text.
var opPrograms = [opCount]string{"ktx", "fbx", "image", ""}

var opAliases = map[string]Op{
	"texture":    OpTexture,
	"ktx":        OpTexture,
	"mesh":       OpMesh,
	"fbx":        OpMesh,
	"image":      OpImage,
	"denoise":    OpImage,
	"oidn":       OpImage,
	"diagnostic": OpDiagnostic,
	"diag":       OpDiagnostic,
	"test":       OpDiagnostic,
}

func (o Op) valid() bool {
	return o >= 0 && int(o) < opCount
}

// String returns the family name.
func (o Op) String() string {
	if !o.valid() {
		return fmt.Sprintf("Op(%d)", int(o))
	}
	return opNames[o]
}

// Symbol returns the exported entry point name for the family.
func (o Op) Symbol() string {
	if !o.valid() {
		return ""
	}
	return opSymbols[o]
}

// Program returns the default argv[0] placeholder for the family.
func (o Op) Program() string {
	if !o.valid() {
		return ""
	}
	return opPrograms[o]
}

// ParseOp resolves a family name or alias, case-insensitively.
func ParseOp(name string) (Op, error) {
	if op, ok := opAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return op, nil
	}
	return OpNone, fmt.Errorf("unknown operation %q", name)
}
