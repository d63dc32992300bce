package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aperturerobotics/go-vcpp-bridge/bridge"
)

// optionsFlags holds --options and --options-file.
type optionsFlags struct {
	text string
	file string
}

func (o *optionsFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.text, "options", "", "Options as JSON text")
	cmd.Flags().StringVar(&o.file, "options-file", "", "Read options JSON from a file")
	cmd.MarkFlagsMutuallyExclusive("options", "options-file")
}

// value returns the options to pass, or nil when none were given.
func (o *optionsFlags) value() (any, error) {
	text := o.text
	if o.file != "" {
		data, err := os.ReadFile(o.file)
		if err != nil {
			return nil, fmt.Errorf("read options: %w", err)
		}
		text = string(data)
	}
	if text == "" {
		return nil, nil
	}
	if !json.Valid([]byte(text)) {
		return nil, errors.New("options: not valid JSON")
	}
	return json.RawMessage(text), nil
}

// newCallCommands builds texture, mesh and image. A single argument is a
// command line to tokenize; several are passed as already split.
func newCallCommands(ctx *commandContext) []*cobra.Command {
	families := []struct {
		op      bridge.Op
		aliases []string
		short   string
	}{
		{bridge.OpTexture, []string{"ktx"}, "Run a texture tool command"},
		{bridge.OpMesh, []string{"fbx"}, "Run a mesh conversion command"},
		{bridge.OpImage, nil, "Run an image command"},
	}

	cmds := make([]*cobra.Command, 0, len(families))
	for _, fam := range families {
		op := fam.op
		var opts optionsFlags
		cmd := &cobra.Command{
			Use:     op.String() + " [COMMAND | ARG...]",
			Aliases: fam.aliases,
			Short:   fam.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				options, err := opts.value()
				if err != nil {
					return err
				}
				return ctx.withBridge(cmd, func(b *bridge.Bridge) error {
					var rc int32
					if len(args) == 1 {
						rc, err = b.Run(cmd.Context(), op, args[0], options)
					} else {
						rc, err = b.RunArgs(cmd.Context(), op, args, options)
					}
					return report(cmd, op, rc, err)
				})
			},
		}
		opts.register(cmd)
		cmds = append(cmds, cmd)
	}
	return cmds
}

func newDiagnosticCommand(ctx *commandContext) *cobra.Command {
	var opts optionsFlags
	cmd := &cobra.Command{
		Use:     "diag",
		Aliases: []string{"test"},
		Short:   "Call the diagnostic entry point",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := opts.value()
			if err != nil {
				return err
			}
			return ctx.withBridge(cmd, func(b *bridge.Bridge) error {
				rc, err := b.Diagnostic(cmd.Context(), options)
				return report(cmd, bridge.OpDiagnostic, rc, err)
			})
		},
	}
	opts.register(cmd)
	return cmd
}

func newDenoiseCommand(ctx *commandContext) *cobra.Command {
	var opts optionsFlags
	cmd := &cobra.Command{
		Use:   "denoise INPUT OUTPUT",
		Short: "Denoise an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := opts.value()
			if err != nil {
				return err
			}
			return ctx.withBridge(cmd, func(b *bridge.Bridge) error {
				rc, err := b.Denoise(cmd.Context(), args[0], args[1], options)
				return report(cmd, bridge.OpImage, rc, err)
			})
		},
	}
	opts.register(cmd)
	return cmd
}

func newMeshConvertCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mesh-convert INPUT OUTPUT_PREFIX",
		Short: "Convert a scene file into meshes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBridge(cmd, func(b *bridge.Bridge) error {
				rc, err := b.ConvertMesh(cmd.Context(), args[0], args[1])
				return report(cmd, bridge.OpMesh, rc, err)
			})
		},
	}
}

// report prints the result code of a dispatched call.
func report(cmd *cobra.Command, op bridge.Op, rc int32, err error) error {
	if err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", op.Symbol(), rc)
	}
	return resultError(rc, err)
}
