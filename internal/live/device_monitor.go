package live

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"teachback/internal/logging"
)

// DeviceMonitor watches udev for sound devices being unplugged.
type DeviceMonitor struct {
	logger   *slog.Logger
	onRemove func(device string)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewDeviceMonitor returns a monitor that calls onRemove for each removed
// sound card or PCM device.
func NewDeviceMonitor(logger *slog.Logger, onRemove func(device string)) *DeviceMonitor {
	return &DeviceMonitor{
		logger:   logging.NewComponentLogger(logger, "device-monitor"),
		onRemove: onRemove,
	}
}

// Start connects to the udev netlink socket. A connection failure is logged
// and not returned; live sessions still work without hot-unplug detection.
func (m *DeviceMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; audio unplug detection disabled",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "netlink sockets may be blocked in containers"),
			logging.String(logging.FieldImpact, "a removed headset will not end the live session"),
		)
		return nil
	}
	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, conn, quit)
	m.logger.Debug("device monitor started")
	return nil
}

// Stop closes the netlink socket.
func (m *DeviceMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	close(m.quit)
	m.quit = nil
	_ = m.conn.Close()
	m.conn = nil
	m.running = false
}

// Running reports whether the monitor is connected.
func (m *DeviceMonitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *DeviceMonitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, soundRemovalMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Debug("netlink monitor error", logging.Error(err))
		}
	}
}

func soundRemovalMatcher() netlink.Matcher {
	action := "remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env:    map[string]string{"SUBSYSTEM": "sound"},
	})
	return rules
}

func (m *DeviceMonitor) handleEvent(uevent netlink.UEvent) {
	if uevent.Action != netlink.REMOVE || uevent.Env["SUBSYSTEM"] != "sound" {
		return
	}
	device := soundDeviceName(uevent)
	if device == "" || !isAudioEndpoint(device) {
		return
	}
	m.logger.Info("sound device removed",
		logging.String(logging.FieldEventType, "sound_device_removed"),
		logging.String("device", device),
	)
	if m.onRemove != nil {
		m.onRemove(device)
	}
}

func soundDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		devpath = uevent.KObj
	}
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return parts[len(parts)-1]
}

// isAudioEndpoint keeps card and PCM nodes and drops control and timer nodes
// that come and go with every card.
func isAudioEndpoint(device string) bool {
	base := device[strings.LastIndex(device, "/")+1:]
	return strings.HasPrefix(base, "card") || strings.HasPrefix(base, "pcm")
}
