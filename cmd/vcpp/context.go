package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/tetratelabs/wazero"

	"github.com/aperturerobotics/go-vcpp-bridge/bridge"
	"github.com/aperturerobotics/go-vcpp-bridge/internal/config"
	"github.com/aperturerobotics/go-vcpp-bridge/internal/logging"
	"github.com/aperturerobotics/go-vcpp-bridge/native"
	vcppwasm "github.com/aperturerobotics/go-vcpp-bridge/wazero-vcpp"
)

// loaderFunc returns the module loader for a backend and a function that
// releases it.
type loaderFunc func(ctx context.Context, backend string, stdout, stderr io.Writer) (bridge.Loader, func(), error)

// openLoader builds the native or wazero loader.
func openLoader(ctx context.Context, backend string, stdout, stderr io.Writer) (bridge.Loader, func(), error) {
	switch backend {
	case config.BackendNative:
		return native.NewLoader(), func() {}, nil
	case config.BackendWASM:
		r := wazero.NewRuntime(ctx)
		modConfig := wazero.NewModuleConfig().
			WithStdout(stdout).
			WithStderr(stderr)
		return vcppwasm.NewLoader(r, modConfig), func() { _ = r.Close(ctx) }, nil
	default:
		return nil, nil, fmt.Errorf("backend: unsupported value %q", backend)
	}
}

type commandContext struct {
	flags  *rootFlags
	loader loaderFunc

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(flags *rootFlags, loader loaderFunc) *commandContext {
	return &commandContext{flags: flags, loader: loader}
}

// ensureConfig loads the environment, applies flag overrides and builds
// the logger writing to cmd's stderr.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		if v := strings.TrimSpace(c.flags.module); v != "" {
			cfg.ModulePath = v
		}
		if v := strings.TrimSpace(c.flags.backend); v != "" {
			cfg.Backend = strings.ToLower(v)
		}
		if v := strings.TrimSpace(c.flags.logLevel); v != "" {
			cfg.LogLevel = strings.ToLower(v)
		}
		if v := strings.TrimSpace(c.flags.logFormat); v != "" {
			cfg.LogFormat = strings.ToLower(v)
		}
		if f := cmd.Flags().Lookup("program"); f != nil && f.Changed {
			v := strings.TrimSpace(c.flags.program)
			cfg.Program = &v
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}

		logger, err := logging.New(logging.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Output: cmd.ErrOrStderr(),
		})
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

// withBridge binds the configured module, runs fn and releases the module.
// A bind failure is logged but not returned: calls to unresolved entry
// points report it instead.
func (c *commandContext) withBridge(cmd *cobra.Command, fn func(*bridge.Bridge) error) error {
	cfg, err := c.ensureConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loader, release, err := c.loader(ctx, cfg.Backend, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer release()

	opts := []bridge.Option{bridge.WithLogger(c.logger)}
	if cfg.ModulePath != "" {
		opts = append(opts, bridge.WithModulePath(cfg.ModulePath))
	} else if cfg.Backend == config.BackendWASM {
		opts = append(opts, bridge.WithCandidates(bridge.Candidates(bridge.ExecutableDir(), ".wasm")...))
	}
	if cfg.Program != nil {
		opts = append(opts, bridge.WithProgramName(*cfg.Program))
	}

	b := bridge.New(loader, opts...)
	defer func() {
		if err := b.Close(); err != nil {
			c.logger.Warn("closing vcpp module", slog.Any("error", err))
		}
	}()

	if err := b.Init(ctx); err != nil {
		var berr *bridge.BindingError
		if !errors.Is(err, bridge.ErrModuleNotFound) && !errors.As(err, &berr) {
			return err
		}
	}
	return fn(b)
}

// modulePathLabel is the module path for display.
func modulePathLabel(b *bridge.Bridge) string {
	p := b.ModulePath()
	if p == "" {
		return "(not found)"
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
