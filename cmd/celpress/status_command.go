package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"celpress/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check binaries, paths, and readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			printer := newStatusPrinter(cmd.OutOrStdout())
			printer.section("Preflight")
			results := preflight.RunAll(cfg)
			for _, result := range results {
				printer.check(result.Name, result.Passed, result.Detail)
			}

			if failed := preflight.Failures(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			printer.check("Overall", true, "ready")
			return nil
		},
	}
}
