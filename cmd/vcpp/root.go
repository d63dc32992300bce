package main

import (
	"github.com/spf13/cobra"
)

// rootFlags are the persistent flags. Non-empty values override the
// environment; --program overrides it whenever given, even empty.
type rootFlags struct {
	module    string
	backend   string
	logLevel  string
	logFormat string
	program   string
}

func newRootCommand() *cobra.Command {
	return buildRootCommand(openLoader)
}

func buildRootCommand(loader loaderFunc) *cobra.Command {
	flags := &rootFlags{}
	ctx := newCommandContext(flags, loader)

	rootCmd := &cobra.Command{
		Use:           "vcpp",
		Short:         "Call vcpp texture, mesh and image entry points",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.module, "module", "", "Path to the vcpp module (env VCPP_MODULE)")
	pf.StringVar(&flags.backend, "backend", "", "Module backend: native or wasm (env VCPP_BACKEND)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error (env VCPP_LOG_LEVEL)")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: auto, console or json (env VCPP_LOG_FORMAT)")
	pf.StringVar(&flags.program, "program", "", "argv[0] sent before the arguments; empty sends none (env VCPP_PROGRAM)")

	for _, cmd := range newCallCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newDiagnosticCommand(ctx))
	rootCmd.AddCommand(newDenoiseCommand(ctx))
	rootCmd.AddCommand(newMeshConvertCommand(ctx))
	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newBindingsCommand(ctx))
	rootCmd.AddCommand(newTokenizeCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
