package bridge

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	vcppbridge "github.com/aperturerobotics/go-vcpp-bridge"
)

// LibraryExt returns the shared library extension for the host platform.
func LibraryExt() string {
	switch runtime.GOOS {
	case "windows":
		return ".dll"
	case "darwin", "ios":
		return ".dylib"
	default:
		return ".so"
	}
}

// DefaultCandidates returns the ordered module locations relative to dir:
// the co-located default module, then the build output one level up.
func DefaultCandidates(dir string) []string {
	return Candidates(dir, LibraryExt())
}

// Candidates is DefaultCandidates for module files ending in ext.
func Candidates(dir, ext string) []string {
	return []string{
		filepath.Join(dir, vcppbridge.DefaultModuleName+ext),
		filepath.Join(dir, "..", vcppbridge.BuildDir, vcppbridge.BuildModuleName+ext),
	}
}

// ExecutableDir returns the directory of the running binary, or the
// working directory if it cannot be determined.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// Locator finds the module on disk.
type Locator struct {
	// Candidates are tried in order; the first existing file wins.
	Candidates []string
	// Stat defaults to os.Stat.
	Stat func(name string) (fs.FileInfo, error)
}

// Locate returns the first candidate that exists and is not a directory.
func (l Locator) Locate() (string, error) {
	stat := l.Stat
	if stat == nil {
		stat = os.Stat
	}
	for _, c := range l.Candidates {
		if c == "" {
			continue
		}
		fi, err := stat(c)
		if err != nil || fi.IsDir() {
			continue
		}
		return c, nil
	}
	return "", fmt.Errorf("%w: tried %s", ErrModuleNotFound, strings.Join(l.Candidates, ", "))
}
