package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"teachback/internal/logging"
	"teachback/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		follow    bool
		lines     int
		sessionID string
		component string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display the application log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			runCtx := cmd.Context()
			out := cmd.OutOrStdout()

			opts := logs.TailOptions{
				Offset: -1,
				Limit:  max(lines, 0),
				Filter: logs.Filter{SessionID: sessionID, Component: component},
			}
			if opts.Limit == 0 {
				opts.Offset = 0
			}
			printed := false
			for {
				result, err := logs.Tail(runCtx, path, opts)
				if err != nil {
					if errors.Is(err, runCtx.Err()) {
						return nil
					}
					return fmt.Errorf("tail logs: %w", err)
				}
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
					printed = true
				}
				if !follow {
					if !printed {
						fmt.Fprintln(out, "No log entries available")
					}
					return nil
				}
				opts.Offset = result.Offset
				opts.Limit = 0
				opts.Follow = true
				opts.Wait = time.Second
				if runCtx.Err() != nil {
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show (0 for all)")
	cmd.Flags().StringVar(&sessionID, "session", "", "Only show records for this session ID")
	cmd.Flags().StringVar(&component, "component", "", "Only show records from this component")
	return cmd
}
