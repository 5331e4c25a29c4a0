package main

import (
	"context"
	"strings"
	"testing"

	"teachback/internal/persistence"
	"teachback/internal/teachback"
	"teachback/internal/testsupport"
)

func TestAppShellTourAndCounters(t *testing.T) {
	env := setupCLITestEnv(t)
	installBackends(t, &backends{json: testsupport.NewScriptedBackend()})

	script := strings.Join([]string{
		"y",    // take the tour
		"next", // second step
		"back",
		"skip",
		"y", // discard demo content
		"show",
		"quit",
	}, "\n") + "\n"
	out, _, err := runCLI(t, []string{"app"}, env.configPath, script)
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	requireContains(t, out, disclaimerTitle)
	requireContains(t, out, "Tour 1/")
	requireContains(t, out, "Tour 2/")
	requireContains(t, out, "No teach-back content yet")

	kv := testsupport.MustOpenStore(t, env.cfg)
	ctx := context.Background()
	starts, err := persistence.NewCounters(kv).Get(ctx, persistence.TotalSessions)
	if err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if starts != 1 {
		t.Fatalf("expected one app start, got %d", starts)
	}
	done, err := persistence.NewTourFlag(kv).Completed(ctx)
	if err != nil {
		t.Fatalf("read tour flag: %v", err)
	}
	if !done {
		t.Fatal("expected skipping the tour to mark it completed")
	}
}

func TestAppShellGenerateAndAnswer(t *testing.T) {
	env := setupCLITestEnv(t)
	backend := testsupport.NewScriptedBackend(
		testsupport.Reply{Body: testsupport.ClassificationJSON(t, teachback.Discharge, 0.9)},
		testsupport.Reply{Body: testsupport.ContentJSON(t, teachback.Discharge)},
	)
	installBackends(t, &backends{json: backend, chat: fakeStreamer{reply: "Swelling means puffiness."}})

	script := strings.Join([]string{
		"n", // no tour
		"paste",
		dischargeNote,
		".",
		"generate",
		"answer 1 1",
		"save",
		"tab 2",
		"what is swelling",
		"tab live-qa",
		"quit",
	}, "\n") + "\n"
	out, _, err := runCLI(t, []string{"app"}, env.configPath, script)
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	requireContains(t, out, "Analyzing your document...")
	requireContains(t, out, "Discharge Instructions")
	requireContains(t, out, "1 of ")
	requireContains(t, out, "Session saved successfully!")
	requireContains(t, out, "Swelling means puffiness.")
	requireContains(t, out, "live-qa> ")
	if backend.CallCount() != 2 {
		t.Fatalf("expected two backend calls, got %d", backend.CallCount())
	}
}
