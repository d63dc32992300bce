// Package config loads vcpp command settings from the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Backend names accepted by the vcpp command.
const (
	BackendNative = "native"
	BackendWASM   = "wasm"
)

// Config holds vcpp command settings. Command-line flags override the
// environment values after Load returns.
type Config struct {
	// ModulePath is an explicit module path. Empty means search next to the
	// executable.
	ModulePath string `env:"VCPP_MODULE"`
	Backend    string `env:"VCPP_BACKEND" envDefault:"native"`
	LogLevel   string `env:"VCPP_LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"VCPP_LOG_FORMAT" envDefault:"auto"`
	// Program overrides the argv[0] placeholder when VCPP_PROGRAM is set.
	// A set but empty value sends arguments without a placeholder. env
	// leaves pointers nil for empty values, so it is read by Load directly.
	Program *string
}

const programEnv = "VCPP_PROGRAM"

// Load parses the process environment and validates the result.
func Load() (*Config, error) {
	return load(env.Options{}, os.LookupEnv)
}

// LoadFrom parses environ instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ}, func(key string) (string, bool) {
		v, ok := environ[key]
		return v, ok
	})
}

func load(opts env.Options, lookup func(string) (string, bool)) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if v, ok := lookup(programEnv); ok {
		v = strings.TrimSpace(v)
		cfg.Program = &v
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.ModulePath = strings.TrimSpace(c.ModulePath)
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendNative, BackendWASM:
	default:
		return fmt.Errorf("backend: unsupported value %q (want %s or %s)", c.Backend, BackendNative, BackendWASM)
	}
	switch c.LogFormat {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("log format: unsupported value %q", c.LogFormat)
	}
	return nil
}
