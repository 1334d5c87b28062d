package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"celpress/internal/daemon"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Run exactly one publish cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			watcher, cleanup, err := newWatcher(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := watcher.RunOnce(cmd.Context()); err != nil {
				if errors.Is(err, daemon.ErrAlreadyRunning) {
					fmt.Fprintln(cmd.OutOrStdout(), "Another celpress instance holds the lock; nothing to do.")
					return nil
				}
				return err
			}
			return nil
		},
	}
}
