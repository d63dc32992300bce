package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aperturerobotics/go-vcpp-bridge/bridge"
	"github.com/aperturerobotics/go-vcpp-bridge/internal/batch"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run JOBS.toml",
		Short: "Run a batch of calls from a TOML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := batch.Load(args[0])
			if err != nil {
				return err
			}
			return ctx.withBridge(cmd, func(b *bridge.Bridge) error {
				results, err := batch.Run(cmd.Context(), b, jobs, ctx.logger)
				fmt.Fprintln(cmd.OutOrStdout(), renderResults(results))
				if err != nil {
					return &exitError{code: 1, err: err}
				}
				return nil
			})
		},
	}
}

func renderResults(results []batch.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		rc := strconv.Itoa(int(r.RC))
		switch {
		case r.Err != nil:
			status = r.Err.Error()
			rc = "-"
		case r.Failed():
			status = "failed"
		}
		rows = append(rows, []string{r.Job.Label(r.Index), r.Job.Op, rc, status})
	}
	return renderTable(
		[]string{"Job", "Op", "RC", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}
