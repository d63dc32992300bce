package bridge

import (
	"io/fs"
	"log/slog"
)

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger used for diagnostics. Errors are always
// returned to the caller as well.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithModulePath binds path on Init instead of searching the candidates.
func WithModulePath(path string) Option {
	return func(b *Bridge) {
		b.path = path
	}
}

// WithCandidates replaces the ordered module search list.
func WithCandidates(paths ...string) Option {
	return func(b *Bridge) {
		b.locate.Candidates = paths
	}
}

// WithStat replaces the file check used by the locator.
func WithStat(stat func(string) (fs.FileInfo, error)) Option {
	return func(b *Bridge) {
		b.locate.Stat = stat
	}
}

// WithProgramName sets argv[0] for every family but the diagnostic one.
// An empty name sends the caller's arguments verbatim.
func WithProgramName(name string) Option {
	return func(b *Bridge) {
		b.program = name
		b.programSet = true
	}
}
