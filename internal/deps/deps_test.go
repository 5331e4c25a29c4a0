package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary", Package: "poppler-utils"},
		{Name: "Unset", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	tests := []struct {
		name      string
		got       Status
		available bool
		command   string
		detail    string
	}{
		{"present", results[0], true, present, ""},
		{"missing", results[1], false, "clearly-not-present-binary", `binary "clearly-not-present-binary" not found; install poppler-utils`},
		{"unset", results[2], false, "", "command not configured"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got.Available != tc.available || tc.got.Command != tc.command || tc.got.Detail != tc.detail {
				t.Fatalf("status = %#v", tc.got)
			}
		})
	}
}

func TestClientRequirementsAreOptional(t *testing.T) {
	reqs := ClientRequirements("arecord", "pdftotext")
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	for _, req := range reqs {
		if !req.Optional || req.Package == "" {
			t.Fatalf("unexpected requirement %#v", req)
		}
	}
	if reqs[0].Command != "arecord" || reqs[1].Command != "pdftotext" {
		t.Fatalf("commands = %q, %q", reqs[0].Command, reqs[1].Command)
	}
}

func TestResolveCompanionSibling(t *testing.T) {
	tmp := t.TempDir()
	capturePath := filepath.Join(tmp, executableName("arecord"))
	playbackPath := filepath.Join(tmp, executableName("aplay"))
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(capturePath, script, 0o755); err != nil {
		t.Fatalf("write arecord stub: %v", err)
	}
	if err := os.WriteFile(playbackPath, script, 0o755); err != nil {
		t.Fatalf("write aplay sibling: %v", err)
	}

	status := ResolveCompanion("Playback", "Speaker output", capturePath, "aplay")
	if !status.Available {
		t.Fatalf("expected sibling to be available, got detail %q", status.Detail)
	}
	if status.Command != playbackPath {
		t.Fatalf("expected playback command %q, got %q", playbackPath, status.Command)
	}
}

func TestResolveCompanionPathFallback(t *testing.T) {
	tmp := t.TempDir()
	binDir := filepath.Join(tmp, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	playbackPath := filepath.Join(binDir, executableName("aplay"))
	if err := os.WriteFile(playbackPath, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write aplay stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	status := ResolveCompanion("Playback", "Speaker output", filepath.Join(tmp, "missing-arecord"), "aplay")
	if !status.Available {
		t.Fatalf("expected PATH fallback to be available, got detail %q", status.Detail)
	}
	if status.Command != playbackPath {
		t.Fatalf("expected playback command %q, got %q", playbackPath, status.Command)
	}
}

func TestResolveCompanionNotFound(t *testing.T) {
	t.Setenv("PATH", "")
	status := ResolveCompanion("Playback", "", "arecord", "aplay")
	if status.Available {
		t.Fatal("expected resolution to fail")
	}
	if status.Detail == "" {
		t.Fatal("expected detail message when playback is unavailable")
	}
	if empty := ResolveCompanion("Playback", "", "arecord", " "); empty.Available || empty.Detail != "command not configured" {
		t.Fatalf("unexpected status for empty command: %#v", empty)
	}
}
