package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/aperturerobotics/go-vcpp-bridge/cmdline"
)

func newTokenizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "tokenize COMMAND",
		Short:       "Print the arguments a command line splits into, as JSON",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := cmdline.Tokenize(args[0])
			if err != nil {
				return err
			}
			if tokens == nil {
				tokens = []string{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			return enc.Encode(tokens)
		},
	}
}
