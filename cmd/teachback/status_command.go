package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"teachback/internal/persistence"
	"teachback/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check configuration, backend reachability, audio devices and usage counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var pinger preflight.Pinger
			if !offline {
				if b, err := ctx.models(cmd.Context()); err == nil {
					pinger = b.pinger
				}
			}

			for _, line := range renderSectionHeader("Setup", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Provider", statusInfo, fmt.Sprintf("%s (%s)", cfg.AI.Provider, cfg.AI.Model), colorize))
			for _, r := range preflight.RunAll(cmd.Context(), cfg, pinger) {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Tools", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range dependencyLines(preflight.CheckSystemDeps(cfg), colorize) {
				fmt.Fprintln(out, line)
			}
			probe := preflight.ProbeCapture(cmd.Context(), cfg.Audio.CaptureCommand)
			kind := statusOK
			if !probe.Available {
				kind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Microphone", kind, probe.CaptureDetail(), colorize))

			return renderUsage(cmd.Context(), ctx, out)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the backend reachability check")
	return cmd
}

func renderUsage(ctx context.Context, c *commandContext, out io.Writer) error {
	kv, err := c.store()
	if err != nil {
		return err
	}
	counts, err := persistence.NewCounters(kv).All(ctx)
	if err != nil {
		return err
	}
	saved, err := persistence.NewSessions(kv, c.log()).Exists(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(persistence.AllCounters)+1)
	for _, name := range persistence.AllCounters {
		rows = append(rows, []string{name.Label(), strconv.Itoa(counts[name])})
	}
	rows = append(rows, []string{"Saved session", yesNo(saved)})
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]string{"Usage", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
	return nil
}
