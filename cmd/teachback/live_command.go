package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"teachback/internal/live"
	"teachback/internal/logging"
	"teachback/internal/teachback"
)

func newLiveCommand(ctx *commandContext) *cobra.Command {
	var demoFlag bool

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Talk with the voice assistant through the microphone",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := ctx.newLive(runCtx)
			if demoFlag {
				s.SetDemo(true)
				printTranscript(out, s.Status().Transcript)
				return nil
			}
			return runLive(runCtx, ctx, s, out)
		},
	}
	cmd.Flags().BoolVar(&demoFlag, "demo", false, "Show a sample transcript instead of connecting")
	return cmd
}

// runLive starts s and prints transcript lines until ctx ends or the session
// stops on its own.
func runLive(ctx context.Context, c *commandContext, s *live.Session, out io.Writer) error {
	var mu sync.Mutex
	printed := 0
	ended := make(chan live.Status, 1)
	s.OnChange(func(st live.Status) {
		mu.Lock()
		if len(st.Transcript) < printed {
			printed = 0
		}
		printTranscript(out, st.Transcript[printed:])
		printed = len(st.Transcript)
		mu.Unlock()
		if st.State == live.Idle && st.Notice != "" {
			select {
			case ended <- st:
			default:
			}
		}
	})

	if c.configValue().Audio.MonitorDevices {
		monitor := live.NewDeviceMonitor(c.log(), func(device string) {
			s.StopWithNotice(live.DeviceRemovedText, deviceRemovedError(device))
		})
		if err := monitor.Start(ctx); err != nil {
			c.log().Warn("device monitor unavailable", logging.Error(err))
		}
		defer monitor.Stop()
	}

	if err := s.Start(ctx); err != nil {
		if st := s.Status(); st.Notice != "" {
			return fmt.Errorf("%s: %w", st.Notice, err)
		}
		return err
	}
	fmt.Fprintln(out, "Listening. Speak your question; press Ctrl+C to end the session.")

	select {
	case <-ctx.Done():
		s.Stop()
		fmt.Fprintln(out, "Session ended.")
		return nil
	case st := <-ended:
		fmt.Fprintln(out, st.Notice)
		return st.Err
	}
}

func printTranscript(out io.Writer, lines []teachback.Utterance) {
	for _, u := range lines {
		speaker := "You"
		if u.Role == teachback.RoleModel {
			speaker = "Assistant"
		}
		fmt.Fprintf(out, "%s: %s\n", speaker, u.Text)
	}
}
