package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aperturerobotics/go-vcpp-bridge/bridge"
)

func newBindingsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "bindings",
		Short: "Show which entry points resolved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBridge(cmd, func(b *bridge.Bridge) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Module: %s\n", modulePathLabel(b))

				status := b.Status()
				rows := make([][]string, 0, len(status))
				for _, st := range status {
					state := "resolved"
					if !st.Resolved() {
						state = st.Err.Error()
					}
					rows = append(rows, []string{st.Op.String(), st.Symbol, state})
				}
				fmt.Fprintln(out, renderTable([]string{"Op", "Symbol", "Status"}, rows, nil))
				return nil
			})
		},
	}
}
