// Command vcpp calls the entry points of a vcpp module from the shell.
//
// Usage:
//
//	vcpp texture 'create --format R8G8B8A8_UNORM in.tga out.ktx2'
//	vcpp mesh-convert scene.fbx out/scene
//	vcpp denoise --options '{"hdr":true}' in.exr out.exr
//	vcpp run jobs.toml
//	vcpp bindings
//
// The exit status is the module's result code.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	cmd := newRootCommand()
	os.Exit(exitCode(cmd.Execute(), os.Stderr))
}

// exitCode reports err on stderr and maps it to a process exit status.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil && !errors.Is(ee.err, context.Canceled) {
			fmt.Fprintln(stderr, ee.err)
		}
		return ee.code
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, err)
	}
	return 1
}
