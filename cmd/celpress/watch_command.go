package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"celpress/internal/daemon"
	"celpress/internal/preflight"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the project directory and publish on change",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			if !skipPreflight {
				if failed := preflight.Failures(preflight.RunAll(cfg)); len(failed) > 0 {
					var details []string
					for _, result := range failed {
						details = append(details, fmt.Sprintf("%s: %s", result.Name, result.Detail))
					}
					return fmt.Errorf("preflight failed:\n  %s", strings.Join(details, "\n  "))
				}
			}

			watcher, cleanup, err := newWatcher(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := watcher.Run(signalCtx); err != nil {
				if errors.Is(err, daemon.ErrAlreadyRunning) {
					fmt.Fprintln(cmd.OutOrStdout(), "Another celpress instance holds the lock; exiting.")
					return nil
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip readiness checks before watching")
	return cmd
}
