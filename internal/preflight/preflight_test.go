package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"teachback/internal/config"
	"teachback/internal/services"
	"teachback/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckExportDirectory_Missing(t *testing.T) {
	result := CheckExportDirectory(filepath.Join(t.TempDir(), "later"))
	if !result.Passed {
		t.Fatalf("missing export dir should pass, got: %s", result.Detail)
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func TestCheckBackend(t *testing.T) {
	ok := CheckBackend(context.Background(), "Gemini", pingFunc(func(context.Context) error { return nil }))
	if !ok.Passed {
		t.Fatalf("expected pass, got: %s", ok.Detail)
	}
	timeout := CheckBackend(context.Background(), "Gemini", pingFunc(func(context.Context) error { return context.DeadlineExceeded }))
	if timeout.Passed || timeout.Detail != "health check timed out (API unresponsive)" {
		t.Fatalf("unexpected timeout result: %+v", timeout)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	cfg.AI.APIKey = ""
	var pinged bool
	pinger := pingFunc(func(context.Context) error { pinged = true; return nil })

	results := RunAll(context.Background(), cfg, pinger)
	if len(results) != 3 || pinged {
		t.Fatalf("expected backend check skipped without key, got %+v", results)
	}
	if results[2].Passed {
		t.Fatal("expected API key check to fail")
	}

	cfg.AI.APIKey = "key"
	results = RunAll(context.Background(), cfg, pinger)
	if len(results) != 4 || !pinged {
		t.Fatalf("expected backend check, got %+v", results)
	}
	for _, r := range results {
		if !r.Passed {
			t.Fatalf("check %s failed: %s", r.Name, r.Detail)
		}
	}
	if RunAll(context.Background(), nil, nil) != nil {
		t.Fatal("nil config should yield no results")
	}
}

func TestProbeCapture(t *testing.T) {
	dir := t.TempDir()
	testsupport.StubBinaries(t, filepath.Join(dir, "bin"),
		"#!/bin/sh\necho '**** List of CAPTURE Hardware Devices ****'\necho 'card 1: USB [USB Audio], device 0: USB Audio [USB Audio]'\necho '  Subdevices: 1/1'\n",
		"arecord-stub")
	probe := ProbeCapture(context.Background(), "arecord-stub")
	if !probe.Available || len(probe.Devices) != 1 {
		t.Fatalf("unexpected probe: %+v", probe)
	}
	if probe.CaptureDetail() != "card 1: USB [USB Audio], device 0: USB Audio [USB Audio]" {
		t.Fatalf("detail = %q", probe.CaptureDetail())
	}

	testsupport.StubBinaries(t, filepath.Join(dir, "empty"), "#!/bin/sh\nexit 0\n", "arecord-none")
	if err := CheckCapture(context.Background(), "arecord-none"); !errors.Is(err, services.ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
	if err := CheckCapture(context.Background(), "clearly-not-present-binary"); !errors.Is(err, services.ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := &config.Config{}
	cfg.Audio.CaptureCommand = "clearly-not-present-capture"
	cfg.Audio.PlaybackCommand = "clearly-not-present-playback"
	cfg.Extract.PDFToTextCommand = "clearly-not-present-pdftotext"
	statuses := CheckSystemDeps(cfg)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	for _, s := range statuses {
		if s.Available || !s.Optional {
			t.Fatalf("unexpected status %+v", s)
		}
	}
}
