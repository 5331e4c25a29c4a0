package preflight

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"teachback/internal/services"
)

var commandContext = exec.CommandContext

// CaptureProbe reports the capture devices the audio tool can see.
type CaptureProbe struct {
	Available bool
	Command   string
	Devices   []string
	Detail    string
}

// ProbeCapture lists capture devices via "<capture> -l" (arecord syntax).
func ProbeCapture(ctx context.Context, command string) CaptureProbe {
	command = strings.TrimSpace(command)
	if command == "" {
		command = "arecord"
	}
	probe := CaptureProbe{Command: command}
	if _, err := exec.LookPath(command); err != nil {
		probe.Detail = fmt.Sprintf("binary %q not found", command)
		return probe
	}

	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	output, err := commandContext(probeCtx, command, "-l").Output()
	if err != nil {
		probe.Detail = fmt.Sprintf("list devices failed (%v)", err)
		return probe
	}
	probe.Devices = parseCardList(string(output))
	if len(probe.Devices) == 0 {
		probe.Detail = "no capture devices found"
		return probe
	}
	probe.Available = true
	return probe
}

// parseCardList keeps the "card N: ..." lines of arecord -l output.
func parseCardList(output string) []string {
	var devices []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "card ") {
			devices = append(devices, line)
		}
	}
	return devices
}

// CaptureDetail renders a display-friendly summary for status UIs.
func (p CaptureProbe) CaptureDetail() string {
	if !p.Available {
		return p.Detail
	}
	if len(p.Devices) == 1 {
		return p.Devices[0]
	}
	return fmt.Sprintf("%d capture devices", len(p.Devices))
}

// CheckCapture fails with services.ErrDeviceUnavailable when no microphone is
// usable.
func CheckCapture(ctx context.Context, command string) error {
	probe := ProbeCapture(ctx, command)
	if probe.Available {
		return nil
	}
	return services.Wrap(services.ErrDeviceUnavailable, "live", "preflight", probe.Detail, nil)
}
