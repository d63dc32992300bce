package main

import (
	"fmt"

	"github.com/spf13/cobra"

	vcppbridge "github.com/aperturerobotics/go-vcpp-bridge"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vcpp %s (abi %d)\n", vcppbridge.Version, vcppbridge.ABIVersion)
			fmt.Fprintf(out, "entry points: %v\n", vcppbridge.Exports)
			fmt.Fprintf(out, "core sources: %s\n", vcppbridge.SourceURL)
			return nil
		},
	}
}
