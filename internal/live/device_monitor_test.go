package live

import (
	"testing"

	"github.com/pilebones/go-udev/netlink"

	"teachback/internal/logging"
)

func TestDeviceMonitorHandleEvent(t *testing.T) {
	tests := []struct {
		name  string
		event netlink.UEvent
		want  string
	}{
		{
			name: "pcm removed",
			event: netlink.UEvent{
				Action: netlink.REMOVE,
				Env:    map[string]string{"SUBSYSTEM": "sound", "DEVNAME": "/dev/snd/pcmC1D0c"},
			},
			want: "/dev/snd/pcmC1D0c",
		},
		{
			name: "card removed by devpath",
			event: netlink.UEvent{
				Action: netlink.REMOVE,
				KObj:   "/devices/pci0000:00/usb1/1-2/sound/card1",
				Env:    map[string]string{"SUBSYSTEM": "sound", "DEVPATH": "/devices/pci0000:00/usb1/1-2/sound/card1"},
			},
			want: "card1",
		},
		{
			name: "control node ignored",
			event: netlink.UEvent{
				Action: netlink.REMOVE,
				Env:    map[string]string{"SUBSYSTEM": "sound", "DEVNAME": "/dev/snd/controlC1"},
			},
		},
		{
			name: "add ignored",
			event: netlink.UEvent{
				Action: netlink.ADD,
				Env:    map[string]string{"SUBSYSTEM": "sound", "DEVNAME": "/dev/snd/pcmC1D0p"},
			},
		},
		{
			name: "other subsystem ignored",
			event: netlink.UEvent{
				Action: netlink.REMOVE,
				Env:    map[string]string{"SUBSYSTEM": "block", "DEVNAME": "/dev/sdb"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			m := NewDeviceMonitor(logging.NewNop(), func(device string) { got = device })
			m.handleEvent(tt.event)
			if got != tt.want {
				t.Fatalf("onRemove(%q), want %q", got, tt.want)
			}
		})
	}
}

func TestDeviceMonitorStopWithoutStart(t *testing.T) {
	m := NewDeviceMonitor(logging.NewNop(), nil)
	m.Stop()
	if m.Running() {
		t.Fatal("expected monitor not running")
	}
}
